package interp

// MarkModKind discriminates the variants of MarkMod.
type MarkModKind int

const (
	// MarkModNil describes a command that moved nothing.
	MarkModNil MarkModKind = iota
	// MarkModAfter shifts every position > Start by Delta.
	MarkModAfter
	// MarkModRange shifts every position in (Start, End] by Delta.
	MarkModRange
)

// MarkMod is a delta describing how line positions shifted as a result of
// a single mutation. Global/Void (the interpreter's g/v sub-command loop)
// applies it to its pending worklist; the caller of Exec may also apply it
// to any positions it is independently tracking (e.g. a TUI's selection).
type MarkMod struct {
	Kind  MarkModKind
	Start int
	End   int // valid when Kind == MarkModRange
	Delta int
}

// NilMod is the no-op MarkMod.
func NilMod() MarkMod { return MarkMod{Kind: MarkModNil} }

// AfterMod describes a shift of every position > start by delta.
func AfterMod(start, delta int) MarkMod {
	return MarkMod{Kind: MarkModAfter, Start: start, Delta: delta}
}

// RangeMod describes a shift of every position in (start, end] by delta.
func RangeMod(start, end, delta int) MarkMod {
	return MarkMod{Kind: MarkModRange, Start: start, End: end, Delta: delta}
}

// Modify applies the delta to a single position, per the shape's
// predicate. Positions that fall outside the predicate are returned
// unchanged; positions that would become <= 0 are clamped to 0.
func (m MarkMod) Modify(pos int) int {
	var shifted int
	switch m.Kind {
	case MarkModAfter:
		if pos <= m.Start {
			return pos
		}
		shifted = pos + m.Delta
	case MarkModRange:
		if pos <= m.Start || pos > m.End {
			return pos
		}
		shifted = pos + m.Delta
	default:
		return pos
	}
	if shifted <= 0 {
		return 0
	}
	return shifted
}

// ModifyAll applies Modify to every element of positions in place and
// returns it.
func (m MarkMod) ModifyAll(positions []int) []int {
	for i, p := range positions {
		positions[i] = m.Modify(p)
	}
	return positions
}
