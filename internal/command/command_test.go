package command

import (
	"testing"

	"github.com/bethropolis/ered/internal/addr"
)

func TestParseNopDefaultsToCurrent(t *testing.T) {
	c, err := ParseCommand("")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Nop {
		t.Fatalf("Op = %v, want Nop", c.Op)
	}
	if c.Offset.Point.Kind != addr.Current || c.Offset.Delta != 0 {
		t.Errorf("Offset = %+v, want Nil(Current)", c.Offset)
	}
}

func TestParseAbsLineNop(t *testing.T) {
	c, err := ParseCommand("5")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Nop || c.Offset.Point.Kind != addr.Abs || c.Offset.Point.N != 5 {
		t.Errorf("got %+v", c)
	}
}

func TestParsePrintRange(t *testing.T) {
	c, err := ParseCommand("1,3p")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Print || !c.Addr.Range {
		t.Fatalf("got %+v", c)
	}
	if c.Addr.Start.Point.N != 1 || c.Addr.End.Point.N != 3 {
		t.Errorf("range = %+v", c.Addr)
	}
}

func TestParseFullRangeShorthand(t *testing.T) {
	c, err := ParseCommand("%d")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Delete || c.Addr.Start.Point.N != 1 || c.Addr.End.Point.Kind != addr.Last {
		t.Errorf("got %+v", c)
	}
}

func TestParseAppendWithInlineText(t *testing.T) {
	c, err := ParseCommand(`2a 'foo\nbar'`)
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Append || c.Offset.Point.N != 2 {
		t.Fatalf("got %+v", c)
	}
	if len(c.Text) != 2 || c.Text[0] != "foo" || c.Text[1] != "bar" {
		t.Errorf("Text = %v", c.Text)
	}
}

func TestParseAppendNoTextNeedsInjection(t *testing.T) {
	c, err := ParseCommand("2a")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if !c.NeedsText() {
		t.Errorf("expected NeedsText true")
	}
	injected := c.WithText([]string{"x", "y"})
	if injected.NeedsText() {
		t.Errorf("expected NeedsText false after injection")
	}
}

func TestParseMoveWithTarget(t *testing.T) {
	c, err := ParseCommand("1,3m5")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Move || c.Offset.Point.N != 5 {
		t.Errorf("got %+v", c)
	}
}

func TestParseSubstFull(t *testing.T) {
	c, err := ParseCommand("1,$s/o/O/g")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Subst || c.Re == nil || !c.Addr.Range {
		t.Fatalf("got %+v", c)
	}
	if c.Re.String() != "o" {
		t.Errorf("Re = %v", c.Re)
	}
	if c.Pat == nil || c.Pat.Expand([]string{"o"}) != "O" {
		t.Errorf("Pat = %+v", c.Pat)
	}
	if c.Flags == nil || c.Flags.Occurrences != 0 {
		t.Errorf("Flags = %+v", c.Flags)
	}
}

func TestParseSubstBareReusesEverything(t *testing.T) {
	c, err := ParseCommand("s")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Subst || c.Re != nil || c.Pat != nil || c.Flags != nil {
		t.Errorf("got %+v", c)
	}
}

func TestParseSubstEmptyReReusesRegex(t *testing.T) {
	c, err := ParseCommand("s//x/")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Re != nil {
		t.Errorf("expected nil Re for reuse, got %v", c.Re)
	}
	if c.Pat == nil || c.Pat.Expand(nil) != "x" {
		t.Errorf("Pat = %+v", c.Pat)
	}
}

func TestParseSubstFlagsBeforeAndAfterCount(t *testing.T) {
	c, err := ParseCommand("s/a/b/p3")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Flags.Occurrences != 3 || !c.Flags.Print {
		t.Errorf("Flags = %+v", c.Flags)
	}

	c2, err := ParseCommand("s/a/b/3p")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c2.Flags.Occurrences != 3 || !c2.Flags.Print {
		t.Errorf("Flags = %+v", c2.Flags)
	}
}

func TestParseGlobal(t *testing.T) {
	c, err := ParseCommand("g/foo/m$")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Global || c.Re.String() != "foo" || len(c.Cmds) != 1 {
		t.Fatalf("got %+v", c)
	}
	if c.Cmds[0].Op != Move || c.Cmds[0].Offset.Point.Kind != addr.Last {
		t.Errorf("sub-command = %+v", c.Cmds[0])
	}
}

func TestParseVoidMultiCommand(t *testing.T) {
	c, err := ParseCommand("v/x/\\\nd\\\np")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Void || len(c.Cmds) != 2 {
		t.Fatalf("got %+v", c)
	}
	if c.Cmds[0].Op != Delete || c.Cmds[1].Op != Print {
		t.Errorf("sub-commands = %+v", c.Cmds)
	}
}

func TestParseWriteQuit(t *testing.T) {
	c, err := ParseCommand("wq out.txt")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Write || !c.WriteQuit {
		t.Fatalf("got %+v", c)
	}
}

func TestParseRunShell(t *testing.T) {
	c, err := ParseCommand("!echo hi")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Run || c.ShellCmd.Expr != "echo hi" {
		t.Fatalf("got %+v", c)
	}
}

func TestParseBufferSwitch(t *testing.T) {
	c, err := ParseCommand(">")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != NextBuffer {
		t.Fatalf("got %+v", c)
	}
	c2, err := ParseCommand("<")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c2.Op != PrevBuffer {
		t.Fatalf("got %+v", c2)
	}
}

func TestParseMarkCommand(t *testing.T) {
	c, err := ParseCommand("3ka")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Mark || c.MarkCh != 'a' || c.Offset.Point.N != 3 {
		t.Fatalf("got %+v", c)
	}
}

func TestParseMarkInvalidChar(t *testing.T) {
	if _, err := ParseCommand("3k!"); err == nil {
		t.Errorf("expected error for invalid mark char")
	}
}

func TestParseAppendRangeAddressRejected(t *testing.T) {
	if _, err := ParseCommand("1,3a"); err == nil {
		t.Errorf("expected error: a does not accept a range address")
	}
}

func TestParseScrollWithCount(t *testing.T) {
	c, err := ParseCommand("5z10")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Scroll || c.Offset.Point.N != 5 || c.Count == nil || *c.Count != 10 {
		t.Fatalf("got %+v", c)
	}
}

func TestParseEditFilename(t *testing.T) {
	c, err := ParseCommand("e foo.txt")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Edit || c.EditSrc.Path != "foo.txt" {
		t.Fatalf("got %+v", c)
	}
}

func TestParseTrailingGarbageIsError(t *testing.T) {
	if _, err := ParseCommand("pq"); err == nil {
		t.Errorf("expected trailing-input error")
	}
}

func TestParseCommentLine(t *testing.T) {
	c, err := ParseCommand("  # not a command")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Comment {
		t.Errorf("Op = %v, want Comment", c.Op)
	}
}

func TestParseSetFilenameQueryAndSet(t *testing.T) {
	c, err := ParseCommand("f")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != SetFilename || c.HasFilenameArg {
		t.Fatalf("got %+v", c)
	}

	c2, err := ParseCommand("f new.txt")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c2.Op != SetFilename || !c2.HasFilenameArg || c2.FilenameArg != "new.txt" {
		t.Fatalf("got %+v", c2)
	}
}

func TestParsePrintLineNumber(t *testing.T) {
	c, err := ParseCommand("/foo/=")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != PrintLineNum || c.Addr.Start.Point.Kind != addr.Ref {
		t.Fatalf("got %+v", c)
	}
}

func TestParseUndo(t *testing.T) {
	c, err := ParseCommand("u")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != Undo {
		t.Errorf("Op = %v, want Undo", c.Op)
	}
}

func TestParseWriteAppend(t *testing.T) {
	c, err := ParseCommand("W out.txt")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if c.Op != WriteAppend || c.WriteSink.Path != "out.txt" {
		t.Fatalf("got %+v", c)
	}
}
