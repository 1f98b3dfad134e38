package buffer

import (
	"strings"
	"testing"
)

func newLoaded(t *testing.T, text string) *Buffer {
	t.Helper()
	b := New()
	if err := b.Load(strings.NewReader(text)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return b
}

func TestLoadStripsTrailingNewlineAndCR(t *testing.T) {
	b := newLoaded(t, "hello\r\nworld\r\n")
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	if line, _ := b.Line(1); line != "hello" {
		t.Errorf("Line(1) = %q, want %q", line, "hello")
	}
	if line, _ := b.Line(2); line != "world" {
		t.Errorf("Line(2) = %q, want %q", line, "world")
	}
	if b.Dirty() {
		t.Errorf("buffer dirty after Load")
	}
}

func TestRoundTripIO(t *testing.T) {
	b := newLoaded(t, "hello\nworld\ncode\nhere\n")
	var sb strings.Builder
	if _, err := b.Write(&sb); err != nil {
		t.Fatalf("Write: %v", err)
	}
	b2 := newLoaded(t, sb.String())
	for i := 1; i <= b.Len(); i++ {
		l1, _ := b.Line(i)
		l2, _ := b2.Line(i)
		if l1 != l2 {
			t.Errorf("line %d mismatch: %q vs %q", i, l1, l2)
		}
	}
}

func TestInsertRemoveInverse(t *testing.T) {
	b := newLoaded(t, "hello\nworld\ncode\nhere\n")
	before := make([]string, b.Len())
	for i := range before {
		before[i], _ = b.Line(i + 1)
	}

	if err := b.Insert(2, []string{"foo", "bar"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b.Len() != 6 {
		t.Fatalf("Len() after insert = %d, want 6", b.Len())
	}

	if _, err := b.Remove(2, 3); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	after := make([]string, b.Len())
	for i := range after {
		after[i], _ = b.Line(i + 1)
	}
	if len(after) != len(before) {
		t.Fatalf("length mismatch after insert/remove inverse: %d vs %d", len(after), len(before))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("line %d mismatch: %q vs %q", i, before[i], after[i])
		}
	}
}

func TestDeleteLineS1(t *testing.T) {
	b := newLoaded(t, "hello\nworld\ncode\nhere\n")
	if _, err := b.Remove(2, 2); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	want := []string{"hello", "code", "here"}
	for i, w := range want {
		got, _ := b.Line(i + 1)
		if got != w {
			t.Errorf("line %d = %q, want %q", i+1, got, w)
		}
	}
	if b.Cursor() != 2 {
		t.Errorf("Cursor() = %d, want 2", b.Cursor())
	}
}

func TestMarkStabilityUnderDeleteAbove(t *testing.T) {
	b := newLoaded(t, "a\nb\nc\nd\ne\n")
	if err := b.MakeMark('x', 4); err != nil {
		t.Fatalf("MakeMark: %v", err)
	}
	// Delete strictly above the mark's line (lines 1-1).
	if _, err := b.Remove(1, 1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if n, _ := b.Mark('x'); n != 3 {
		t.Errorf("mark after delete above = %d, want 3", n)
	}
}

func TestInsertAtZeroOnlyWhenEmpty(t *testing.T) {
	b := New()
	if err := b.Insert(0, []string{"a", "b"}); err != nil {
		t.Fatalf("Insert at 0 on empty buffer: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	if err := b.Insert(0, []string{"c"}); err == nil {
		t.Errorf("expected error inserting at 0 on non-empty buffer")
	}
}

func TestAppendAtZero(t *testing.T) {
	b := newLoaded(t, "a\nb\n")
	if err := b.Append(0, []string{"top"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	first, _ := b.Line(1)
	if first != "top" {
		t.Errorf("Line(1) = %q, want %q", first, "top")
	}
	if b.Cursor() != 1 {
		t.Errorf("Cursor() = %d, want 1", b.Cursor())
	}
}

func TestWindow(t *testing.T) {
	b := newLoaded(t, "a\nb\nc\n")
	lines, ok := b.Window(2, 5)
	if !ok {
		t.Fatalf("Window(2,5) not ok")
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Errorf("Window(2,5) = %v, want [b c]", lines)
	}
	if _, ok := b.Window(0, 1); ok {
		t.Errorf("Window(0, 1) should be absent")
	}
}

func TestCursorContainment(t *testing.T) {
	b := New()
	if b.Cursor() != 0 {
		t.Errorf("empty buffer cursor = %d, want 0", b.Cursor())
	}
	b.Append(0, []string{"a"})
	if b.Cursor() < 1 {
		t.Errorf("non-empty buffer cursor = %d, want >= 1", b.Cursor())
	}
}
