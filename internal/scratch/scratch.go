// Package scratch implements the Scratch Pad (component H): an
// append-only, capacity-bounded output surface the interpreter writes to
// and the TUI (or a script runner) renders or streams.
package scratch

// DefaultCapacity is the ring size used when none is given explicitly.
const DefaultCapacity = 1024

// Pad is anything the interpreter can print a line to.
type Pad interface {
	Print(line string)
}

// Store is a capacity-bounded ring buffer of lines, newest first: pushing
// past capacity drops the oldest entry. It tracks a scroll offset for
// Scratch-mode browsing and a stale flag set on every push and cleared by
// Refresh.
type Store struct {
	lines []string
	cap   int
	offset int
	stale  bool
}

// NewStore returns an empty Store with the given capacity. A capacity <= 0
// uses DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{cap: capacity}
}

// Print pushes line to the front of the ring, dropping the oldest entry if
// at capacity, and marks the pad stale.
func (s *Store) Print(line string) {
	s.stale = true
	s.lines = append([]string{line}, s.lines...)
	if len(s.lines) > s.cap {
		s.lines = s.lines[:s.cap]
	}
}

// BufferLines materializes up to max lines starting at the current
// offset, short if fewer remain.
func (s *Store) BufferLines(max int) []string {
	if s.offset >= len(s.lines) {
		return nil
	}
	end := s.offset + max
	if end > len(s.lines) {
		end = len(s.lines)
	}
	out := make([]string, end-s.offset)
	copy(out, s.lines[s.offset:end])
	return out
}

// Stale reports whether any line was pushed since the last Refresh.
func (s *Store) Stale() bool { return s.stale }

// Refresh clears the stale flag and resets the scroll offset to the top.
func (s *Store) Refresh() {
	s.stale = false
	s.offset = 0
}

// Up scrolls the offset forward (toward older entries) by delta, clamped
// so a full frame of frameSize lines remains visible.
func (s *Store) Up(delta, frameSize int) {
	s.offset += delta
	max := len(s.lines) - frameSize
	if max < 0 {
		max = 0
	}
	if s.offset > max {
		s.offset = max
	}
}

// Down scrolls the offset backward (toward newer entries) by delta,
// clamped at 0.
func (s *Store) Down(delta int) {
	s.offset -= delta
	if s.offset < 0 {
		s.offset = 0
	}
}

// Last jumps the offset to the oldest full frame of frameSize lines.
func (s *Store) Last(frameSize int) {
	max := len(s.lines) - frameSize
	if max < 0 {
		max = 0
	}
	s.offset = max
}

// Clear empties the ring and resets offset and stale.
func (s *Store) Clear() {
	s.lines = nil
	s.offset = 0
	s.stale = false
}

// Len returns the number of lines currently held.
func (s *Store) Len() int { return len(s.lines) }

// Writer streams lines directly to an io.Writer (e.g. os.Stdout), used by
// the script runner in non-interactive mode where there is no viewport to
// browse.
type Writer struct {
	W interface{ Write([]byte) (int, error) }
}

// NewWriter returns a Writer wrapping w.
func NewWriter(w interface{ Write([]byte) (int, error) }) *Writer {
	return &Writer{W: w}
}

// Print writes line followed by a newline, ignoring write errors (matching
// the teacher's fire-and-forget status-line writes — a failed scratch
// write must never abort a command).
func (w *Writer) Print(line string) {
	_, _ = w.W.Write([]byte(line + "\n"))
}
