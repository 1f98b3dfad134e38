package interp

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/bethropolis/ered/internal/addr"
	"github.com/bethropolis/ered/internal/buffer"
	"github.com/bethropolis/ered/internal/command"
	"github.com/bethropolis/ered/internal/pattern"
)

type fakePad struct {
	lines []string
}

func (p *fakePad) Print(line string) { p.lines = append(p.lines, line) }

func newTestInterp(t *testing.T, text string) (*Interp, *fakePad) {
	t.Helper()
	b := buffer.New()
	if err := b.Load(strings.NewReader(text)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	pad := &fakePad{}
	return New(b, NewEnvironment(), pad), pad
}

func bufferContent(b *buffer.Buffer) string {
	var sb strings.Builder
	for i := 1; i <= b.Len(); i++ {
		l, _ := b.Line(i)
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

const fourLines = "hello\nworld\ncode\nhere\n"

func TestScenarioS1Delete(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, err := command.ParseCommand("2d")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "hello\ncode\nhere\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
	if ip.Buf.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", ip.Buf.Cursor())
	}
}

func TestScenarioS2Join(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, err := command.ParseCommand("1,3j")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "hello world code\nhere\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
	if ip.Buf.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", ip.Buf.Cursor())
	}
}

func TestScenarioS3Append(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, err := command.ParseCommand(`2a 'foo\nbar'`)
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "hello\nworld\nfoo\nbar\ncode\nhere\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
	if ip.Buf.Cursor() != 4 {
		t.Errorf("cursor = %d, want 4", ip.Buf.Cursor())
	}
}

func TestScenarioS4Subst(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, err := command.ParseCommand("1,$s/o/O/g")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "hellO\nwOrld\ncOde\nhere\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
}

func TestScenarioS5Move(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, err := command.ParseCommand("/code/m0")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "code\nhello\nworld\nhere\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
	if ip.Buf.Cursor() != 1 {
		t.Errorf("cursor = %d, want 1", ip.Buf.Cursor())
	}
}

func TestScenarioS6GlobalMove(t *testing.T) {
	ip, _ := newTestInterp(t, "foobar\nbar\nbarfoo\n")
	cmd, err := command.ParseCommand("g/foo/m$")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "bar\nfoobar\nbarfoo\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
	if ip.Buf.Cursor() != 3 {
		t.Errorf("cursor = %d, want 3", ip.Buf.Cursor())
	}
}

func TestMoveIntoOwnRangeRejected(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, err := command.ParseCommand("1,3m2")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if _, _, err := ip.Exec(cmd); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("err = %v, want ErrInvalidTarget", err)
	}
}

func TestSubstReusesLastRegexAndPattern(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	if err := ip.Buf.SetCursor(1); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}
	first, _ := command.ParseCommand("s/o/O/")
	if _, _, err := ip.Exec(first); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	// Bare "s" on the next line should reuse regex, pattern, and flags.
	if err := ip.Buf.SetCursor(2); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}
	second, _ := command.ParseCommand("s")
	if _, _, err := ip.Exec(second); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "hellO\nwOrld\ncode\nhere\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
}

func TestSubstNoPriorRegexFails(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, _ := command.ParseCommand("s")
	if _, _, err := ip.Exec(cmd); !errors.Is(err, ErrMissingPattern) {
		t.Fatalf("err = %v, want ErrMissingPattern", err)
	}
}

func TestSubstNoMatchFails(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	if err := ip.Buf.SetCursor(1); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}
	cmd, _ := command.ParseCommand("s/zzz/Z/")
	if _, _, err := ip.Exec(cmd); !errors.Is(err, ErrDidNotReplace) {
		t.Fatalf("err = %v, want ErrDidNotReplace", err)
	}
}

func TestSubstOccurrenceCap(t *testing.T) {
	ip, _ := newTestInterp(t, "aaaa\n")
	if err := ip.Buf.SetCursor(1); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}
	cmd, _ := command.ParseCommand("s/a/b/2")
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "bbaa\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
}

func TestAppendWithoutTextRefused(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd := command.Command{Op: command.Append, Offset: addr.Nil(addr.CurrentPoint())}
	if _, _, err := ip.Exec(cmd); !errors.Is(err, ErrMissingText) {
		t.Fatalf("err = %v, want ErrMissingText", err)
	}
}

func TestYankAndPaste(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	yank, _ := command.ParseCommand("1,2y")
	if _, _, err := ip.Exec(yank); err != nil {
		t.Fatalf("Exec yank: %v", err)
	}
	paste, _ := command.ParseCommand("$x")
	if _, _, err := ip.Exec(paste); err != nil {
		t.Fatalf("Exec paste: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "hello\nworld\ncode\nhere\nhello\nworld\n"; got != want {
		t.Errorf("buffer = %q, want %q", got, want)
	}
}

func TestUndoReversesLastMutation(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	del, _ := command.ParseCommand("2d")
	if _, _, err := ip.Exec(del); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	undo, _ := command.ParseCommand("u")
	if _, _, err := ip.Exec(undo); err != nil {
		t.Fatalf("Exec undo: %v", err)
	}
	if got, want := bufferContent(ip.Buf), fourLines; got != want {
		t.Errorf("buffer after undo = %q, want %q", got, want)
	}
	// A second consecutive undo reverses the undo itself.
	if _, _, err := ip.Exec(undo); err != nil {
		t.Fatalf("Exec second undo: %v", err)
	}
	if got, want := bufferContent(ip.Buf), "hello\ncode\nhere\n"; got != want {
		t.Errorf("buffer after second undo = %q, want %q", got, want)
	}
}

func TestUndoWithNothingToUndoFails(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, _ := command.ParseCommand("u")
	if _, _, err := ip.Exec(cmd); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("err = %v, want ErrNothingToUndo", err)
	}
}

func TestQuitOnDirtyBufferRequiresConfirmation(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	del, _ := command.ParseCommand("1d")
	if _, _, err := ip.Exec(del); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	quit, _ := command.ParseCommand("q")
	cont, _, err := ip.Exec(quit)
	if !errors.Is(err, ErrDirtyBuffer) {
		t.Fatalf("first q: err = %v, want ErrDirtyBuffer", err)
	}
	if !cont {
		t.Errorf("first q on dirty buffer should not stop the loop")
	}
	cont2, _, err2 := ip.Exec(quit)
	if err2 != nil {
		t.Fatalf("second q: %v", err2)
	}
	if cont2 {
		t.Errorf("second consecutive q should stop the loop")
	}
}

func TestQuitOnCleanBufferNeedsNoConfirmation(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	cmd, _ := command.ParseCommand("q")
	cont, _, err := ip.Exec(cmd)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if cont {
		t.Errorf("q on clean buffer should stop the loop immediately")
	}
}

func TestMarkFollowsLineAcrossDeleteAbove(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	mark, _ := command.ParseCommand("3ka")
	if _, _, err := ip.Exec(mark); err != nil {
		t.Fatalf("Exec mark: %v", err)
	}
	del, _ := command.ParseCommand("1d")
	if _, _, err := ip.Exec(del); err != nil {
		t.Fatalf("Exec delete: %v", err)
	}
	if n, ok := ip.Buf.Mark('a'); !ok || n != 2 {
		t.Errorf("mark a = (%d,%v), want (2,true)", n, ok)
	}
}

func TestPrintWritesResolvedRangeToScratch(t *testing.T) {
	ip, pad := newTestInterp(t, fourLines)
	cmd, _ := command.ParseCommand("1,2p")
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(pad.lines) != 2 || pad.lines[0] != "hello" || pad.lines[1] != "world" {
		t.Errorf("scratch = %v", pad.lines)
	}
}

func TestPrintLineNumberDoesNotMoveCursor(t *testing.T) {
	ip, pad := newTestInterp(t, fourLines)
	if err := ip.Buf.SetCursor(1); err != nil {
		t.Fatalf("SetCursor: %v", err)
	}
	cmd, _ := command.ParseCommand("/code/=")
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(pad.lines) != 1 || pad.lines[0] != "3" {
		t.Errorf("scratch = %v, want [3]", pad.lines)
	}
	if ip.Buf.Cursor() != 1 {
		t.Errorf("cursor = %d, want unchanged 1", ip.Buf.Cursor())
	}
}

func TestSetFilenameQueryAndSet(t *testing.T) {
	ip, pad := newTestInterp(t, fourLines)
	query, _ := command.ParseCommand("f")
	if _, _, err := ip.Exec(query); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(pad.lines) != 1 || pad.lines[0] != "" {
		t.Errorf("scratch = %v, want [\"\"]", pad.lines)
	}
	set, _ := command.ParseCommand("f out.txt")
	if _, _, err := ip.Exec(set); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if ip.Env.Filename != "out.txt" {
		t.Errorf("Filename = %q, want out.txt", ip.Env.Filename)
	}
}

func TestGlobalWithVoidInverts(t *testing.T) {
	ip, pad := newTestInterp(t, fourLines)
	cmd, _ := command.ParseCommand("v/o/p")
	if _, _, err := ip.Exec(cmd); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(pad.lines) != 1 || pad.lines[0] != "here" {
		t.Errorf("scratch = %v, want [here]", pad.lines)
	}
}

func TestCommentIsNoOp(t *testing.T) {
	ip, pad := newTestInterp(t, fourLines)
	cmd, _ := command.ParseCommand("  # does nothing")
	cont, mm, err := ip.Exec(cmd)
	if err != nil || !cont {
		t.Fatalf("Exec: cont=%v err=%v", cont, err)
	}
	if mm.Kind != MarkModNil {
		t.Errorf("MarkMod = %+v, want Nil", mm)
	}
	if len(pad.lines) != 0 {
		t.Errorf("scratch = %v, want empty", pad.lines)
	}
	if got := bufferContent(ip.Buf); got != fourLines {
		t.Errorf("buffer mutated by comment: %q", got)
	}
}

func TestSubstCompatibilityGuardsCaptureOverrun(t *testing.T) {
	ip, _ := newTestInterp(t, fourLines)
	re := regexp.MustCompile("o")
	cmd := command.Command{
		Op:   command.Subst,
		Addr: addr.Line(addr.Nil(addr.CurrentPoint())),
		Re:   re,
		Pat:  patPtr(t, `\1`),
	}
	if _, _, err := ip.Exec(cmd); !errors.Is(err, ErrDidNotReplace) {
		t.Fatalf("err = %v, want ErrDidNotReplace", err)
	}
}

func patPtr(t *testing.T, s string) *pattern.Pat {
	t.Helper()
	p, err := pattern.Parse(s)
	if err != nil {
		t.Fatalf("pattern.Parse: %v", err)
	}
	return &p
}
