package script

import (
	"os"
	"path/filepath"
	"testing"
)

type fakePad struct {
	lines []string
}

func (p *fakePad) Print(line string) { p.lines = append(p.lines, line) }

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunnerWritesBackDirtyBuffer(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "hello\nworld\n")

	cmds, err := Parse("1d\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := New(cmds, &fakePad{})
	if err := r.Run([]string{path}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "world\n" {
		t.Errorf("content = %q, want %q", got, "world\n")
	}
}

func TestRunnerFlushesDirtyBufferEvenAfterQuit(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "hello\nworld\n")

	// A lone "q" on a dirty buffer only arms the confirmation guard; the
	// script keeps running, and since nothing else quits, the dirty
	// buffer is still flushed at the end (there is no quit-without-save
	// escape hatch in batch mode).
	cmds, err := Parse("1d\nq\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := New(cmds, &fakePad{})
	if err := r.Run([]string{path}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "world\n" {
		t.Errorf("content = %q, want %q", got, "world\n")
	}
}

func TestRunnerSecondConsecutiveQuitStopsEarly(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "hello\nworld\n")

	// Two consecutive q's confirm the quit; the buffer is still dirty at
	// that point and gets flushed once the command loop breaks.
	cmds, err := Parse("1d\nq\nq\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := New(cmds, &fakePad{})
	if err := r.Run([]string{path}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "world\n" {
		t.Errorf("content = %q, want %q", got, "world\n")
	}
}

func TestRunnerRunsAcrossMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.txt", "one\ntwo\n")
	b := writeTemp(t, dir, "b.txt", "three\nfour\n")

	cmds, err := Parse("$d\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := New(cmds, &fakePad{})
	if err := r.Run([]string{a, b}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	gotA, _ := os.ReadFile(a)
	gotB, _ := os.ReadFile(b)
	if string(gotA) != "one\n" {
		t.Errorf("a content = %q, want %q", gotA, "one\n")
	}
	if string(gotB) != "three\n" {
		t.Errorf("b content = %q, want %q", gotB, "three\n")
	}
}

func TestRunnerContinuesAfterOneFileFails(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.txt", "only one line\n")
	b := writeTemp(t, dir, "b.txt", "one\ntwo\nthree\n")

	cmds, err := Parse("5d\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := New(cmds, &fakePad{})
	err = r.Run([]string{a, b})
	if err == nil {
		t.Fatalf("Run: expected an error from the first file's out-of-range delete")
	}

	gotB, _ := os.ReadFile(b)
	if string(gotB) != "one\ntwo\nthree\n" {
		t.Errorf("b content = %q, want unchanged (5d resolves but is out of range on both)", gotB)
	}
}

func TestRunnerInplaceBackup(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "a.txt", "hello\nworld\n")

	cmds, err := Parse("1d\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := New(cmds, &fakePad{})
	r.InplaceExt = "bak"
	if err := r.Run([]string{path}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("ReadFile backup: %v", err)
	}
	if string(backup) != "hello\nworld\n" {
		t.Errorf("backup content = %q, want original", backup)
	}
}

func TestRunnerNoFilesRunsOnceAgainstEmptyBuffer(t *testing.T) {
	cmds, err := Parse("0a\nhello\n.\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	pad := &fakePad{}
	r := New(cmds, pad)
	if err := r.Run(nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
