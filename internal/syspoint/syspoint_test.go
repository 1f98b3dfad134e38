package syspoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReplaceFilenameExpandsPercent(t *testing.T) {
	c := Cmd{Kind: System, Expr: "wc -l %"}
	got, ok := c.ReplaceFilename("foo.txt", "")
	if !ok {
		t.Fatalf("ReplaceFilename not ok")
	}
	if got != "wc -l foo.txt" {
		t.Errorf("ReplaceFilename = %q, want %q", got, "wc -l foo.txt")
	}
}

func TestReplaceFilenameEscapes(t *testing.T) {
	c := Cmd{Kind: System, Expr: `echo \% \\ \x`}
	got, ok := c.ReplaceFilename("foo.txt", "")
	if !ok {
		t.Fatalf("ReplaceFilename not ok")
	}
	if got != `echo % \ \x` {
		t.Errorf("ReplaceFilename = %q, want %q", got, `echo % \ \x`)
	}
}

func TestReplaceFilenameRepeatRequiresPrev(t *testing.T) {
	c := Cmd{Kind: Repeat}
	_, ok := c.ReplaceFilename("foo.txt", "")
	if ok {
		t.Errorf("Repeat with no previous command should fail")
	}
	got, ok := c.ReplaceFilename("foo.txt", "wc -l %")
	if !ok || got != "wc -l foo.txt" {
		t.Errorf("ReplaceFilename = %q,%v want %q,true", got, ok, "wc -l foo.txt")
	}
}

func TestSinkFileThenSourceFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	sp := File(path)

	lines := []string{"hello", "world"}
	if err := sp.Sink("", "", lines); err != nil {
		t.Fatalf("Sink: %v", err)
	}

	got, err := sp.Source("", "")
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if len(got) != 2 || got[0] != "hello" || got[1] != "world" {
		t.Errorf("Source = %v, want %v", got, lines)
	}
}

func TestFilenameKindRequiresFilename(t *testing.T) {
	sp := Filename()
	if _, err := sp.Source("", ""); err == nil {
		t.Errorf("expected error sourcing Filename with no filename set")
	}
	if err := sp.Sink("", "", nil); err == nil {
		t.Errorf("expected error sinking Filename with no filename set")
	}
}

func TestCommandSourceAndSink(t *testing.T) {
	sp := Command(Cmd{Kind: System, Expr: "printf 'a\\nb\\n'"})
	lines, err := sp.Source("", "")
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("Source = %v, want [a b]", lines)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	sink := Command(Cmd{Kind: System, Expr: "cat > " + path})
	if err := sink.Sink("", "", []string{"x", "y"}); err != nil {
		t.Fatalf("Sink: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "x\ny\n" {
		t.Errorf("sink content = %q, want %q", content, "x\ny\n")
	}
}

func TestApplyWriteHookAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(target, []byte("old\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := ApplyWriteHook("tr a-z A-Z", target, []string{"hello"})
	if err != nil {
		t.Fatalf("ApplyWriteHook: %v", err)
	}
	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "HELLO\n" {
		t.Errorf("content = %q, want %q", content, "HELLO\n")
	}
}

func TestApplyWriteHookFailureLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(target, []byte("old\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := ApplyWriteHook("exit 1", target, []string{"hello"})
	if err == nil {
		t.Fatalf("expected error from failing hook")
	}
	content, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(content) != "old\n" {
		t.Errorf("target was modified despite hook failure: %q", content)
	}
}
