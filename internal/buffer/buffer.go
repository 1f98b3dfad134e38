// Package buffer implements the editor's line store: a 1-based line buffer
// with a cursor, named marks, and a dirty flag.
package buffer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Buffer is an ordered sequence of lines with a 1-based cursor, a mark
// table, and a dirty flag. The zero value is not usable; use New.
type Buffer struct {
	lines  []string
	cursor int
	marks  map[rune]int
	dirty  bool
}

// New returns an empty Buffer (no lines, cursor 0, clean).
func New() *Buffer {
	return &Buffer{
		marks: make(map[rune]int),
	}
}

// --- Read-only queries ---

// Len returns the number of lines in the buffer.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Cursor returns the current 1-based cursor line (0 for an empty buffer).
func (b *Buffer) Cursor() int {
	return b.cursor
}

// Line returns the text of 1-based line n and true, or ("", false) if n is
// out of range.
func (b *Buffer) Line(n int) (string, bool) {
	if n < 1 || n > len(b.lines) {
		return "", false
	}
	return b.lines[n-1], true
}

// Range returns a copy of the inclusive 1-based slice [lo, hi], or nil and
// false if the range is out of bounds.
func (b *Buffer) Range(lo, hi int) ([]string, bool) {
	if lo < 1 || hi > len(b.lines) || lo > hi {
		return nil, false
	}
	out := make([]string, hi-lo+1)
	copy(out, b.lines[lo-1:hi])
	return out, true
}

// Mark returns the line number bound to mark ch, or (0, false) if unset.
func (b *Buffer) Mark(ch rune) (int, bool) {
	n, ok := b.marks[ch]
	return n, ok
}

// HasMark returns the mark character pointing at line n, if any (reverse
// lookup). When several marks point at the same line, which of them is
// returned is unspecified and may differ between calls.
func (b *Buffer) HasMark(n int) (rune, bool) {
	for ch, ln := range b.marks {
		if ln == n {
			return ch, true
		}
	}
	return 0, false
}

// Window returns up to max consecutive line references starting at offset
// (1-based), short if fewer lines exist. offset = 0 returns (nil, false).
func (b *Buffer) Window(offset, max int) ([]string, bool) {
	if offset <= 0 || offset > len(b.lines) {
		return nil, false
	}
	end := offset + max - 1
	if end > len(b.lines) {
		end = len(b.lines)
	}
	out := make([]string, end-offset+1)
	copy(out, b.lines[offset-1:end])
	return out, true
}

// --- Mutators ---

// Insert places lines before line at, setting the dirty flag. at = 0 is
// accepted only when the buffer is empty (meaning "at the top"); otherwise
// at must be a valid line index. The cursor is left on the last inserted
// line.
func (b *Buffer) Insert(at int, lines []string) error {
	if at == 0 {
		if len(b.lines) != 0 {
			return fmt.Errorf("buffer: insert at 0 requires an empty buffer")
		}
	} else if at < 1 || at > len(b.lines) {
		return fmt.Errorf("buffer: insert position %d out of range (1-%d)", at, len(b.lines))
	}

	idx := at // insert before 1-based line `at` == slice index at-1; at=0 -> idx 0
	if at > 0 {
		idx = at - 1
	}
	b.spliceIn(idx, lines)
	b.cursor = idx + len(lines)
	b.dirty = true
	return nil
}

// Append places lines after line at, setting the dirty flag. at = 0 means
// "at the top"; at must satisfy at <= len. The cursor is left on the last
// appended line.
func (b *Buffer) Append(at int, lines []string) error {
	if at < 0 || at > len(b.lines) {
		return fmt.Errorf("buffer: append position %d out of range (0-%d)", at, len(b.lines))
	}
	b.spliceIn(at, lines)
	b.cursor = at + len(lines)
	b.dirty = true
	return nil
}

// spliceIn inserts lines into the slice at slice index idx (0-based,
// meaning "before the current line at that index").
func (b *Buffer) spliceIn(idx int, lines []string) {
	if len(lines) == 0 {
		return
	}
	grown := make([]string, 0, len(b.lines)+len(lines))
	grown = append(grown, b.lines[:idx]...)
	grown = append(grown, lines...)
	grown = append(grown, b.lines[idx:]...)
	b.lines = grown
	b.shiftMarks(idx, len(lines))
}

// Remove deletes the inclusive range [lo, hi], sets the dirty flag, moves
// the cursor to lo, and returns the removed lines.
func (b *Buffer) Remove(lo, hi int) ([]string, error) {
	if lo < 1 || hi > len(b.lines) || lo > hi {
		return nil, fmt.Errorf("buffer: remove range %d,%d out of range (1-%d)", lo, hi, len(b.lines))
	}
	removed := make([]string, hi-lo+1)
	copy(removed, b.lines[lo-1:hi])

	rest := make([]string, 0, len(b.lines)-(hi-lo+1))
	rest = append(rest, b.lines[:lo-1]...)
	rest = append(rest, b.lines[hi:]...)
	b.lines = rest

	b.dropMarksIn(lo, hi)
	b.shiftMarks(hi, -(hi - lo + 1))

	b.cursor = lo
	if b.cursor > len(b.lines) {
		b.cursor = len(b.lines)
	}
	b.dirty = true
	return removed, nil
}

// ReplaceLine replaces one line, setting the dirty flag, and returns the
// old text.
func (b *Buffer) ReplaceLine(n int, text string) (string, error) {
	if n < 1 || n > len(b.lines) {
		return "", fmt.Errorf("buffer: line %d out of range (1-%d)", n, len(b.lines))
	}
	old := b.lines[n-1]
	b.lines[n-1] = text
	b.dirty = true
	return old, nil
}

// Change replaces the inclusive range [lo, hi] with lines: equivalent to
// Remove(lo, hi) followed by Insert(lo, lines).
func (b *Buffer) Change(lo, hi int, lines []string) error {
	if _, err := b.Remove(lo, hi); err != nil {
		return err
	}
	if lo > len(b.lines)+1 {
		lo = len(b.lines) + 1
	}
	if lo == 0 {
		return b.Insert(0, lines)
	}
	if lo > len(b.lines) {
		return b.Append(len(b.lines), lines)
	}
	return b.Insert(lo, lines)
}

// Load replaces all lines from r, preserving marks, clearing the dirty
// flag, and clamping the cursor to the new length. Lines are split on
// '\n'; a single trailing '\r' before each split point is stripped, and a
// trailing empty line produced by a final '\n' is dropped.
func (b *Buffer) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024*16)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimSuffix(line, "\r")
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("buffer: load: %w", err)
	}
	b.lines = lines
	b.dirty = false
	if b.cursor > len(b.lines) {
		b.cursor = len(b.lines)
	}
	if b.cursor < 0 {
		b.cursor = 0
	}
	return nil
}

// Write emits each line followed by '\n', flushes, clears the dirty flag,
// and returns the number of bytes written.
func (b *Buffer) Write(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	total := 0
	for _, line := range b.lines {
		n, err := bw.WriteString(line)
		if err != nil {
			return total, fmt.Errorf("buffer: write: %w", err)
		}
		total += n
		if err := bw.WriteByte('\n'); err != nil {
			return total, fmt.Errorf("buffer: write: %w", err)
		}
		total++
	}
	if err := bw.Flush(); err != nil {
		return total, fmt.Errorf("buffer: write: flush: %w", err)
	}
	b.dirty = false
	return total, nil
}

// MakeMark binds mark ch to line n.
func (b *Buffer) MakeMark(ch rune, n int) error {
	if n < 1 || n > len(b.lines) {
		return fmt.Errorf("buffer: mark target %d out of range (1-%d)", n, len(b.lines))
	}
	b.marks[ch] = n
	return nil
}

// SetCursor moves the cursor directly.
func (b *Buffer) SetCursor(n int) error {
	if n < 0 || n > len(b.lines) || (n == 0 && len(b.lines) != 0) {
		return fmt.Errorf("buffer: cursor target %d out of range (1-%d)", n, len(b.lines))
	}
	b.cursor = n
	return nil
}

// ScrollForward moves the cursor forward by k lines, saturating at len.
func (b *Buffer) ScrollForward(k int) {
	b.cursor += k
	if b.cursor > len(b.lines) {
		b.cursor = len(b.lines)
	}
}

// ScrollBackward moves the cursor backward by k lines, saturating at 0 (or
// 1 if the buffer is non-empty).
func (b *Buffer) ScrollBackward(k int) {
	b.cursor -= k
	min := 0
	if len(b.lines) > 0 {
		min = 1
	}
	if b.cursor < min {
		b.cursor = min
	}
}

// Dirty reports whether the buffer has unsaved mutations.
func (b *Buffer) Dirty() bool {
	return b.dirty
}

// ClearDirty explicitly clears the dirty flag (used after a successful
// external write that did not go through Write, e.g. a write-hook reload).
func (b *Buffer) ClearDirty() {
	b.dirty = false
}

// --- mark maintenance ---

// shiftMarks applies MarkMod-style "After" shifting to every mark: any mark
// at a line number > pivot moves by delta.
func (b *Buffer) shiftMarks(pivot, delta int) {
	for ch, ln := range b.marks {
		if ln > pivot {
			shifted := ln + delta
			if shifted <= 0 {
				shifted = 0
			}
			b.marks[ch] = shifted
		}
	}
}

// dropMarksIn removes marks whose target fell inside a just-removed range.
func (b *Buffer) dropMarksIn(lo, hi int) {
	for ch, ln := range b.marks {
		if ln >= lo && ln <= hi {
			delete(b.marks, ch)
		}
	}
}

// ShiftMarksRange applies a Range-shaped MarkMod: positions in (start, end]
// move by delta. Nothing in this module calls it.
func (b *Buffer) ShiftMarksRange(start, end, delta int) {
	for ch, ln := range b.marks {
		if ln > start && ln <= end {
			shifted := ln + delta
			if shifted <= 0 {
				shifted = 0
			}
			b.marks[ch] = shifted
		}
	}
}

// ShiftCursorAfter applies an After-shaped MarkMod to the cursor.
func (b *Buffer) ShiftCursorAfter(pivot, delta int) {
	if b.cursor > pivot {
		b.cursor += delta
	}
	b.clampCursor()
}

// ShiftCursorRange applies a Range-shaped MarkMod to the cursor.
func (b *Buffer) ShiftCursorRange(start, end, delta int) {
	if b.cursor > start && b.cursor <= end {
		b.cursor += delta
	}
	b.clampCursor()
}

func (b *Buffer) clampCursor() {
	if b.cursor > len(b.lines) {
		b.cursor = len(b.lines)
	}
	if b.cursor < 0 || (b.cursor == 0 && len(b.lines) > 0) {
		if len(b.lines) > 0 {
			b.cursor = 1
		} else {
			b.cursor = 0
		}
	}
}
