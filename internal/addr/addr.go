// Package addr defines the value types used to address lines in a buffer:
// Point (a single-line target), Offset (a Point plus a signed delta), and
// Address (one Offset or an inclusive range of two).
package addr

import "regexp"

// PointKind discriminates the variants of Point.
type PointKind int

const (
	// Current resolves to the buffer's cursor line.
	Current PointKind = iota
	// Last resolves to the buffer's last line.
	Last
	// Abs resolves to a fixed 1-based line number (0 is a legal position,
	// never a legal line index).
	Abs
	// Ref is a forward regex search, starting strictly after the cursor.
	Ref
	// Reb is a backward regex search, starting strictly before the cursor.
	Reb
	// Mark resolves via a named mark on the buffer.
	Mark
)

// Point denotes a single line target.
type Point struct {
	Kind  PointKind
	N     int            // valid when Kind == Abs
	Regex *regexp.Regexp // valid when Kind == Ref or Reb
	Ch    rune           // valid when Kind == Mark
}

// CurrentPoint returns the "current cursor" Point.
func CurrentPoint() Point { return Point{Kind: Current} }

// LastPoint returns the "last line" Point.
func LastPoint() Point { return Point{Kind: Last} }

// AbsPoint returns an absolute line Point.
func AbsPoint(n int) Point { return Point{Kind: Abs, N: n} }

// RefPoint returns a forward-search Point.
func RefPoint(re *regexp.Regexp) Point { return Point{Kind: Ref, Regex: re} }

// RebPoint returns a backward-search Point.
func RebPoint(re *regexp.Regexp) Point { return Point{Kind: Reb, Regex: re} }

// MarkPoint returns a mark-reference Point.
func MarkPoint(ch rune) Point { return Point{Kind: Mark, Ch: ch} }

// Offset is a Point with an integer delta (zero, +n, or -n) applied to the
// resolved Point.
type Offset struct {
	Point Point
	Delta int
}

// Nil wraps a Point with a zero delta.
func Nil(p Point) Offset { return Offset{Point: p} }

// Relf adds n to the resolved Point ("relative forward").
func Relf(p Point, n int) Offset { return Offset{Point: p, Delta: n} }

// Relb subtracts n from the resolved Point ("relative backward").
func Relb(p Point, n int) Offset { return Offset{Point: p, Delta: -n} }

// Address is either a single Offset (one line) or a pair of Offsets
// denoting an inclusive range.
type Address struct {
	Start Offset
	End   Offset
	Range bool // false: a single-line address (End is unused)
}

// Line constructs a single-line Address.
func Line(o Offset) Address { return Address{Start: o} }

// Span constructs a range Address.
func Span(start, end Offset) Address { return Address{Start: start, End: end, Range: true} }
