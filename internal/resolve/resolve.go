// Package resolve turns addr.Point / addr.Offset / addr.Address values
// into concrete 1-based line numbers against a buffer, per the narrow
// BufferView capability the resolver needs rather than the whole buffer
// type.
package resolve

import "github.com/bethropolis/ered/internal/addr"

// BufferView is the slice of buffer.Buffer's read API the resolver needs.
type BufferView interface {
	Len() int
	Cursor() int
	Line(n int) (string, bool)
	Mark(ch rune) (int, bool)
}

// Line resolves a Point to a concrete 1-based line number, or false if it
// does not resolve.
func Line(p addr.Point, buf BufferView) (int, bool) {
	switch p.Kind {
	case addr.Current:
		return buf.Cursor(), true
	case addr.Last:
		return buf.Len(), true
	case addr.Abs:
		return p.N, true
	case addr.Mark:
		return buf.Mark(p.Ch)
	case addr.Ref:
		for i := buf.Cursor() + 1; ; i++ {
			line, ok := buf.Line(i)
			if !ok {
				return 0, false
			}
			if p.Regex.MatchString(line) {
				return i, true
			}
		}
	case addr.Reb:
		if buf.Cursor() <= 1 {
			return 0, false
		}
		for i := buf.Cursor() - 1; i >= 1; i-- {
			line, ok := buf.Line(i)
			if !ok {
				return 0, false
			}
			if p.Regex.MatchString(line) {
				return i, true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// OffsetLine resolves an Offset: resolve its Point, then add the delta.
// Absent propagates; a negative result is absent.
func OffsetLine(o addr.Offset, buf BufferView) (int, bool) {
	n, ok := Line(o.Point, buf)
	if !ok {
		return 0, false
	}
	n += o.Delta
	if n < 0 {
		return 0, false
	}
	return n, true
}

// Range resolves an Address to an inclusive (start, end) pair: (n, n) for
// a single Offset, or (start', end') for a range. If start' > end' the
// range is reported invalid via the bool return.
func Range(a addr.Address, buf BufferView) (start, end int, ok bool) {
	if !a.Range {
		n, ok := OffsetLine(a.Start, buf)
		if !ok {
			return 0, 0, false
		}
		return n, n, true
	}

	s, ok := OffsetLine(a.Start, buf)
	if !ok {
		return 0, 0, false
	}
	e, ok := OffsetLine(a.End, buf)
	if !ok {
		return 0, 0, false
	}
	if s > e {
		return 0, 0, false
	}
	return s, e, true
}
