package interp

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/bethropolis/ered/internal/buffer"
	"github.com/bethropolis/ered/internal/command"
	"github.com/bethropolis/ered/internal/logger"
	"github.com/bethropolis/ered/internal/pattern"
	"github.com/bethropolis/ered/internal/resolve"
	"github.com/bethropolis/ered/internal/scratch"
	"github.com/bethropolis/ered/internal/syspoint"
)

// undoSnapshot is the inverse state recorded before a mutating command, so
// that a single "u" can restore it (and, since undo is its own inverse, a
// second "u" restores the state the first one replaced).
type undoSnapshot struct {
	lines  []string
	cursor int
}

// Interp is the command interpreter: a Buffer, its Environment, the
// ordered file argument list (for NextBuffer/PrevBuffer) with a current
// position, and the Scratch Pad commands print to.
type Interp struct {
	Buf *buffer.Buffer
	Env *Environment
	Out scratch.Pad

	FileList []string
	FilePos  int

	quitConfirmed bool
}

// New returns an Interp over buf/env, printing to out.
func New(buf *buffer.Buffer, env *Environment, out scratch.Pad) *Interp {
	return &Interp{Buf: buf, Env: env, Out: out}
}

// mutatingOps is the set of operations undo can reverse: anything that
// changes buffer line content. Buffer-switching (NextBuffer/PrevBuffer) and
// memory-only ops (Mark, Yank, SetFilename, Write) are excluded.
func mutatingOp(op command.Op) bool {
	switch op {
	case command.Delete, command.Append, command.Insert, command.Change,
		command.Join, command.Move, command.Transfer, command.Paste,
		command.Read, command.Subst, command.Edit, command.Global, command.Void:
		return true
	}
	return false
}

// Exec runs cmd against the interpreter's buffer and environment. It
// returns whether the caller's loop should continue (false means a
// successful Quit), the resulting MarkMod, and any error.
func (ip *Interp) Exec(cmd command.Command) (bool, MarkMod, error) {
	if cmd.Op != command.Quit {
		ip.quitConfirmed = false
	}

	if cmd.Op == command.Undo {
		return ip.undo()
	}

	if !mutatingOp(cmd.Op) {
		return ip.doExec(cmd)
	}

	snap := ip.snapshot()
	cont, mm, err := ip.doExec(cmd)
	if err == nil {
		ip.Env.undo = &snap
	}
	return cont, mm, err
}

func (ip *Interp) snapshot() undoSnapshot {
	lines := make([]string, 0, ip.Buf.Len())
	for i := 1; i <= ip.Buf.Len(); i++ {
		l, _ := ip.Buf.Line(i)
		lines = append(lines, l)
	}
	return undoSnapshot{lines: lines, cursor: ip.Buf.Cursor()}
}

func (ip *Interp) restore(snap undoSnapshot) {
	_ = ip.Buf.Load(strings.NewReader(strings.Join(snap.lines, "\n") + terminatorFor(snap.lines)))
	if snap.cursor > 0 {
		_ = ip.Buf.SetCursor(snap.cursor)
	}
}

func terminatorFor(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return "\n"
}

// undo restores the last mutation's pre-image, then stashes the state it
// just replaced so the next "u" reverses this one.
func (ip *Interp) undo() (bool, MarkMod, error) {
	if ip.Env.undo == nil {
		return true, NilMod(), ErrNothingToUndo
	}
	current := ip.snapshot()
	ip.restore(*ip.Env.undo)
	ip.Env.undo = &current
	return true, NilMod(), nil
}

// doExec is the shared dispatcher: invoked directly for the top-level
// command, and recursively (bypassing undo bookkeeping) for Global/Void
// sub-commands.
func (ip *Interp) doExec(cmd command.Command) (bool, MarkMod, error) {
	buf := ip.Buf
	env := ip.Env

	switch cmd.Op {
	case command.Comment:
		return true, NilMod(), nil

	case command.Nop:
		n, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if err := buf.SetCursor(n); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrAddressNonResolvable, err)
		}
		return true, NilMod(), nil

	case command.Print:
		lo, hi, ok := resolve.Range(cmd.Addr, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		for i := lo; i <= hi; i++ {
			if l, ok := buf.Line(i); ok {
				ip.Out.Print(l)
			}
		}
		return true, NilMod(), nil

	case command.PrintLineNum:
		_, hi, ok := resolve.Range(cmd.Addr, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		ip.Out.Print(strconv.Itoa(hi))
		return true, NilMod(), nil

	case command.Scroll:
		line, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		num := env.WindowSize
		if cmd.Count != nil {
			num = *cmd.Count
		}
		pad := len(strconv.Itoa(buf.Len()))
		if pad < 1 {
			pad = 1
		}
		for pos := line; pos < line+num; pos++ {
			l, ok := buf.Line(pos)
			if !ok {
				break
			}
			ip.Out.Print(fmt.Sprintf("%*d %s", pad, pos, l))
			_ = buf.SetCursor(pos)
		}
		return true, NilMod(), nil

	case command.Delete:
		lo, hi, ok := resolve.Range(cmd.Addr, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if _, err := buf.Remove(lo, hi); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrAddressNonResolvable, err)
		}
		return true, AfterMod(lo, -(hi - lo + 1)), nil

	case command.Mark:
		line, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if err := buf.MakeMark(cmd.MarkCh, line); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrAddressNonResolvable, err)
		}
		return true, NilMod(), nil

	case command.Join:
		lo, hi, ok := resolve.Range(cmd.Addr, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		lines, ok := buf.Range(lo, hi)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		joined := lines[0]
		for _, l := range lines[1:] {
			joined += " " + strings.TrimLeft(l, " \t")
		}
		if err := buf.Change(lo, hi, []string{joined}); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrAddressNonResolvable, err)
		}
		return true, AfterMod(lo, 1-(hi-lo+1)), nil

	case command.Move:
		lo, hi, ok := resolve.Range(cmd.Addr, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		target, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if lo <= target && target <= hi {
			return true, NilMod(), ErrInvalidTarget
		}
		to := target
		if target > hi {
			to = target - (hi - lo + 1)
		}
		lines, err := buf.Remove(lo, hi)
		if err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrAddressNonResolvable, err)
		}
		if err := buf.Append(to, lines); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrInvalidInsertion, err)
		}
		var delta int
		if lo < to {
			delta = -(1 + (hi - lo))
		} else {
			delta = 1 + (hi - lo)
		}
		start := to + 1
		if lo < start {
			start = lo
		}
		end := hi
		if to+1 > end {
			end = to + 1
		}
		return true, RangeMod(start, end, delta), nil

	case command.Transfer:
		lo, hi, ok := resolve.Range(cmd.Addr, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		to, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		lines, ok := buf.Range(lo, hi)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if err := buf.Append(to, lines); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrInvalidInsertion, err)
		}
		return true, AfterMod(to, 1+(hi-lo)), nil

	case command.Yank:
		lo, hi, ok := resolve.Range(cmd.Addr, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		lines, ok := buf.Range(lo, hi)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		cut := make([]string, len(lines))
		copy(cut, lines)
		env.CutRegister = cut
		return true, NilMod(), nil

	case command.Paste:
		line, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if err := buf.Append(line, env.CutRegister); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrInvalidInsertion, err)
		}
		return true, AfterMod(line, len(env.CutRegister)), nil

	case command.Append:
		if cmd.NeedsText() {
			return true, NilMod(), ErrMissingText
		}
		line, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if err := buf.Append(line, cmd.Text); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrInvalidInsertion, err)
		}
		return true, AfterMod(line, len(cmd.Text)), nil

	case command.Insert:
		if cmd.NeedsText() {
			return true, NilMod(), ErrMissingText
		}
		line, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if err := buf.Insert(line, cmd.Text); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrInvalidInsertion, err)
		}
		start := line - 1
		if start < 0 {
			start = 0
		}
		return true, AfterMod(start, len(cmd.Text)), nil

	case command.Change:
		if cmd.NeedsText() {
			return true, NilMod(), ErrMissingText
		}
		lo, hi, ok := resolve.Range(cmd.Addr, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		if err := buf.Change(lo, hi, cmd.Text); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrInvalidInsertion, err)
		}
		return true, AfterMod(lo, len(cmd.Text)-(hi-lo+1)), nil

	case command.Write, command.WriteAppend:
		return ip.execWrite(cmd)

	case command.Read:
		line, ok := resolve.OffsetLine(cmd.Offset, buf)
		if !ok {
			return true, NilMod(), ErrAddressNonResolvable
		}
		lines, err := cmd.ReadSrc.Source(env.Filename, env.LastReadCmd)
		if err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, err)
		}
		if err := buf.Append(line, lines); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrInvalidInsertion, err)
		}
		if cmd.ReadSrc.Kind == syspoint.CommandKind && cmd.ReadSrc.Cmd.Kind == syspoint.System {
			env.LastReadCmd = cmd.ReadSrc.Cmd.Expr
		}
		return true, AfterMod(line, len(lines)), nil

	case command.Subst:
		return ip.execSubst(cmd)

	case command.Global, command.Void:
		return ip.execGlobal(cmd)

	case command.Quit:
		if buf.Dirty() && !ip.quitConfirmed {
			ip.quitConfirmed = true
			return true, NilMod(), fmt.Errorf("%w: repeat q to quit anyway", ErrDirtyBuffer)
		}
		return false, NilMod(), nil

	case command.Edit:
		return ip.execEdit(cmd)

	case command.Run:
		lines, ok, err := syspoint.Run(cmd.ShellCmd, env.Filename, env.LastRunCmd)
		if !ok {
			return true, NilMod(), fmt.Errorf("%w: no previous command to repeat", ErrFailedCommand)
		}
		if err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrFailedCommand, err)
		}
		for _, l := range lines {
			ip.Out.Print(l)
		}
		if cmd.ShellCmd.Kind == syspoint.System {
			env.LastRunCmd = cmd.ShellCmd.Expr
		}
		return true, NilMod(), nil

	case command.NextBuffer:
		return ip.switchBuffer(ip.FilePos + 1)

	case command.PrevBuffer:
		return ip.switchBuffer(ip.FilePos - 1)

	case command.SetFilename:
		if !cmd.HasFilenameArg {
			ip.Out.Print(env.Filename)
			return true, NilMod(), nil
		}
		env.Filename = cmd.FilenameArg
		return true, NilMod(), nil
	}

	panic(fmt.Sprintf("interp: unhandled op %v", cmd.Op))
}

func (ip *Interp) switchBuffer(pos int) (bool, MarkMod, error) {
	if pos < 0 || pos >= len(ip.FileList) {
		return true, NilMod(), ErrArgFetch
	}
	filename := ip.FileList[pos]
	f, err := os.Open(filename)
	switch {
	case err == nil:
		defer f.Close()
		if loadErr := ip.Buf.Load(f); loadErr != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, loadErr)
		}
	case os.IsNotExist(err):
		ip.Buf = buffer.New()
	default:
		return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, err)
	}
	ip.Env.Filename = filename
	ip.FilePos = pos
	return true, NilMod(), nil
}

func (ip *Interp) execEdit(cmd command.Command) (bool, MarkMod, error) {
	buf := ip.Buf
	env := ip.Env
	switch cmd.EditSrc.Kind {
	case syspoint.FilenameKind:
		if env.Filename == "" {
			return true, NilMod(), ErrMissingFilename
		}
		f, err := os.Open(env.Filename)
		if err != nil {
			logger.Errorf("interp: edit %q: %v", env.Filename, err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, err)
		}
		defer f.Close()
		if err := buf.Load(f); err != nil {
			logger.Errorf("interp: edit %q: %v", env.Filename, err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, err)
		}
	case syspoint.FileKind:
		f, err := os.Open(cmd.EditSrc.Path)
		if err != nil {
			logger.Errorf("interp: edit %q: %v", cmd.EditSrc.Path, err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, err)
		}
		defer f.Close()
		if err := buf.Load(f); err != nil {
			logger.Errorf("interp: edit %q: %v", cmd.EditSrc.Path, err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, err)
		}
		env.Filename = cmd.EditSrc.Path
	case syspoint.CommandKind:
		lines, err := cmd.EditSrc.Source(env.Filename, "")
		if err != nil {
			logger.Errorf("interp: edit command source: %v", err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, err)
		}
		if err := buf.Load(strings.NewReader(strings.Join(lines, "\n") + terminatorFor(lines))); err != nil {
			logger.Errorf("interp: edit command source: %v", err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrUnableToSource, err)
		}
		env.Filename = ""
	}
	return true, NilMod(), nil
}

func (ip *Interp) execWrite(cmd command.Command) (bool, MarkMod, error) {
	buf := ip.Buf
	env := ip.Env
	lo, hi, ok := resolve.Range(cmd.Addr, buf)
	if !ok {
		return true, NilMod(), ErrAddressNonResolvable
	}
	lines, ok := buf.Range(lo, hi)
	if !ok {
		return true, NilMod(), ErrAddressNonResolvable
	}

	targetPath := ""
	switch cmd.WriteSink.Kind {
	case syspoint.FilenameKind:
		targetPath = env.Filename
	case syspoint.FileKind:
		targetPath = cmd.WriteSink.Path
	}

	fullBuffer := lo == 1 && hi == buf.Len()

	if env.WriteHook != "" && targetPath != "" {
		if err := syspoint.ApplyWriteHook(env.WriteHook, targetPath, lines); err != nil {
			logger.Errorf("interp: write hook %q on %q: %v", env.WriteHook, targetPath, err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrFailedCommand, err)
		}
		f, err := os.Open(targetPath)
		if err != nil {
			logger.Errorf("interp: reload after write hook %q: %v", targetPath, err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrFailedCommand, err)
		}
		loadErr := buf.Load(f)
		f.Close()
		if loadErr != nil {
			logger.Errorf("interp: reload after write hook %q: %v", targetPath, loadErr)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrFailedCommand, loadErr)
		}
	} else if cmd.Op == command.WriteAppend {
		if err := cmd.WriteSink.SinkAppend(env.Filename, env.LastWriteCmd, lines); err != nil {
			logger.Errorf("interp: write append %q: %v", targetPath, err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrFailedCommand, err)
		}
	} else {
		if err := cmd.WriteSink.Sink(env.Filename, env.LastWriteCmd, lines); err != nil {
			logger.Errorf("interp: write %q: %v", targetPath, err)
			return true, NilMod(), fmt.Errorf("%w: %v", ErrFailedCommand, err)
		}
	}

	if fullBuffer {
		buf.ClearDirty()
	}
	if cmd.WriteSink.Kind == syspoint.CommandKind && cmd.WriteSink.Cmd.Kind == syspoint.System {
		env.LastWriteCmd = cmd.WriteSink.Cmd.Expr
	}
	return !cmd.WriteQuit, NilMod(), nil
}

func (ip *Interp) execSubst(cmd command.Command) (bool, MarkMod, error) {
	buf := ip.Buf
	env := ip.Env
	lo, hi, ok := resolve.Range(cmd.Addr, buf)
	if !ok {
		return true, NilMod(), ErrAddressNonResolvable
	}
	re, ok := env.effectiveRegex(cmd.Re)
	if !ok {
		return true, NilMod(), ErrMissingPattern
	}
	pat, ok := env.effectivePat(cmd.Pat)
	if !ok {
		return true, NilMod(), ErrMissingPattern
	}
	flags := env.effectiveFlags(cmd.Flags)

	if !pat.Compatible(re) {
		return true, NilMod(), ErrDidNotReplace
	}

	replacedAny := false
	for i := lo; i <= hi; i++ {
		line, ok := buf.Line(i)
		if !ok {
			continue
		}
		newLine, did := substLine(re, pat, line, flags.Occurrences)
		if !did {
			continue
		}
		replacedAny = true
		if flags.Print {
			ip.Out.Print(newLine)
		}
		if _, err := buf.ReplaceLine(i, newLine); err != nil {
			return true, NilMod(), fmt.Errorf("%w: %v", ErrAddressNonResolvable, err)
		}
	}
	if !replacedAny {
		return true, NilMod(), ErrDidNotReplace
	}

	env.LastRegex = re
	env.LastPat = &pat
	env.LastFlags = &flags
	return true, NilMod(), nil
}

func (ip *Interp) execGlobal(cmd command.Command) (bool, MarkMod, error) {
	buf := ip.Buf
	env := ip.Env
	lo, hi, ok := resolve.Range(cmd.Addr, buf)
	if !ok {
		return true, NilMod(), ErrAddressNonResolvable
	}
	re, ok := env.effectiveRegex(cmd.Re)
	if !ok {
		return true, NilMod(), ErrMissingPattern
	}

	var marked []int
	for pos := lo; pos <= hi; pos++ {
		line, ok := buf.Line(pos)
		if !ok {
			continue
		}
		matches := re.MatchString(line)
		if (cmd.Op == command.Global) == matches {
			marked = append(marked, pos)
		}
	}

	for idx := 0; idx < len(marked); idx++ {
		pos := marked[idx]
		if pos <= 0 || pos > buf.Len() {
			continue
		}
		if err := buf.SetCursor(pos); err != nil {
			continue
		}
		for _, sub := range cmd.Cmds {
			cont, mm, err := ip.doExec(sub)
			if err != nil {
				return true, NilMod(), err
			}
			if !cont {
				return false, NilMod(), nil
			}
			mm.ModifyAll(marked)
		}
	}
	return true, NilMod(), nil
}

// substLine replaces up to max non-overlapping matches of re in line with
// pat's expansion (max <= 0 means unlimited), returning the new line and
// whether any replacement occurred.
func substLine(re *regexp.Regexp, pat pattern.Pat, line string, max int) (string, bool) {
	locs := re.FindAllStringSubmatchIndex(line, -1)
	if len(locs) == 0 {
		return line, false
	}
	limit := max
	if limit <= 0 || limit > len(locs) {
		limit = len(locs)
	}
	var buf strings.Builder
	last := 0
	for i := 0; i < limit; i++ {
		loc := locs[i]
		buf.WriteString(line[last:loc[0]])
		captures := make([]string, len(loc)/2)
		for g := 0; g < len(loc)/2; g++ {
			s, e := loc[2*g], loc[2*g+1]
			if s < 0 {
				captures[g] = ""
			} else {
				captures[g] = line[s:e]
			}
		}
		buf.WriteString(pat.Expand(captures))
		last = loc[1]
	}
	buf.WriteString(line[last:])
	return buf.String(), true
}
