// Package tui implements the modal input state machine, vi-style motions
// over the command line, the window-lock viewport rule, and a concrete
// tcell renderer for the buffer/command-line/scratch pad.
package tui

import (
	"strings"

	"github.com/bethropolis/ered/internal/buffer"
	"github.com/bethropolis/ered/internal/command"
	"github.com/bethropolis/ered/internal/event"
	"github.com/bethropolis/ered/internal/interp"
	"github.com/bethropolis/ered/internal/motion"
	"github.com/bethropolis/ered/internal/scratch"
	"github.com/bethropolis/ered/internal/statusbar"
)

// Mode is one state of the input state machine (spec.md §4.7).
type Mode int

const (
	ModeCmd Mode = iota
	ModeLineEdit
	ModeLineInsert
	ModeText
	ModeScratch
)

func (m Mode) String() string {
	switch m {
	case ModeCmd:
		return "CMD"
	case ModeLineEdit:
		return "NORMAL"
	case ModeLineInsert:
		return "INSERT"
	case ModeText:
		return "TEXT"
	case ModeScratch:
		return "SCRATCH"
	default:
		return "?"
	}
}

// Machine is the modal input state machine. It owns the command line's
// edit buffer and dispatches decoded key events to per-mode handlers,
// driving the interpreter and reporting back whether a redraw is needed.
type Machine struct {
	Buf     *buffer.Buffer
	Env     *interp.Environment
	Interp  *interp.Interp
	Scratch *scratch.Store
	Events  *event.Manager
	Status  *statusbar.StatusBar

	mode    Mode
	cmdline []rune
	cursor  int // rune index into cmdline, meaningful in LineEdit/LineInsert

	lock       WindowLock
	height     int
	pendingOp  rune // 'd', 'c', or 'r'; 0 = no operator pending
	count      int  // accumulated [count] prefix; 0 means "not given" (acts as 1)
	lastFind   rune // 'f','F','t','T'
	lastFindCh rune

	textCmd   command.Command
	textLines []string
	textLine  []rune

	LastErr       error
	QuitRequested bool
}

// NewMachine wires a Machine over an already-constructed buffer,
// environment, interpreter, and scratch store.
func NewMachine(buf *buffer.Buffer, env *interp.Environment, ip *interp.Interp, sc *scratch.Store) *Machine {
	return &Machine{
		Buf:     buf,
		Env:     env,
		Interp:  ip,
		Scratch: sc,
		height:  24,
	}
}

// Mode reports the machine's current state.
func (m *Machine) Mode() Mode { return m.mode }

// CmdLine returns the command line's current text and rune-index cursor.
func (m *Machine) CmdLine() (string, int) { return string(m.cmdline), m.cursor }

// SetHeight records the viewport height used to size half/full-screen
// scrolls and the window-lock calculation.
func (m *Machine) SetHeight(h int) {
	if h > 0 {
		m.height = h
	}
}

// ViewTop returns the topmost buffer line (1-based) the renderer should
// start drawing from, applying the current window lock against the
// cursor's line.
func (m *Machine) ViewTop() int {
	cur := m.Buf.Cursor()
	if cur <= 0 {
		return 1
	}
	pos, neg := m.lock.FindPos(m.height, cur-1)
	if neg > 0 {
		return 1
	}
	return pos + 1
}

func (m *Machine) setMode(mode Mode) {
	m.mode = mode
	if m.Status != nil {
		m.Status.SetMode(mode.String())
	}
	if m.Events != nil {
		m.Events.Dispatch(event.TypeModeChanged, event.ModeChangedData{Mode: int(mode)})
	}
}

func (m *Machine) resetToCmd() {
	m.cmdline = nil
	m.cursor = 0
	m.pendingOp = 0
	m.count = 0
	m.setMode(ModeCmd)
}

func (m *Machine) reportError(err error) {
	m.LastErr = err
	if m.Status != nil {
		m.Status.SetTemporaryMessage("%v", err)
	}
}

func (m *Machine) bufferChanged() {
	if m.Events != nil {
		m.Events.Dispatch(event.TypeBufferChanged, event.BufferChangedData{Filename: m.Env.Filename})
	}
}

// HandleKey decodes and dispatches one key event, returning whether the
// screen should be redrawn.
func (m *Machine) HandleKey(k Key) bool {
	if k.Special == KeyCtrlC {
		m.resetToCmd()
		return true
	}
	switch m.mode {
	case ModeCmd:
		return m.handleCmd(k)
	case ModeLineEdit:
		return m.handleLineEdit(k)
	case ModeLineInsert:
		return m.handleLineInsert(k)
	case ModeText:
		return m.handleText(k)
	case ModeScratch:
		return m.handleScratch(k)
	default:
		return false
	}
}

func (m *Machine) handleViewportKeys(k Key) bool {
	switch k.Special {
	case KeyCtrlD:
		m.Buf.ScrollForward(m.height / 2)
		return true
	case KeyCtrlU:
		m.Buf.ScrollBackward(m.height / 2)
		return true
	case KeyCtrlF:
		m.Buf.ScrollForward(m.height)
		return true
	case KeyCtrlB:
		m.Buf.ScrollBackward(m.height)
		return true
	case KeyCtrlL:
		m.lock = m.lock.Next()
		return true
	case KeyCtrlO:
		m.lock = m.lock.Prev()
		return true
	}
	return false
}

func (m *Machine) handleCmd(k Key) bool {
	if m.handleViewportKeys(k) {
		return true
	}
	switch k.Special {
	case KeyEscape:
		m.cursor = len(m.cmdline)
		m.setMode(ModeLineEdit)
		return true
	case KeyTab:
		if m.Scratch != nil {
			m.Scratch.Refresh()
		}
		m.setMode(ModeScratch)
		return true
	case KeyEnter:
		return m.execute()
	case KeyBackspace:
		if len(m.cmdline) > 0 {
			m.cmdline = m.cmdline[:len(m.cmdline)-1]
		}
		return true
	case KeyNone:
		if k.Rune != 0 {
			m.cmdline = append(m.cmdline, k.Rune)
			return true
		}
	}
	return false
}

func (m *Machine) handleLineInsert(k Key) bool {
	if m.handleViewportKeys(k) {
		return true
	}
	switch k.Special {
	case KeyEscape:
		if m.cursor > 0 {
			m.cursor--
		}
		m.setMode(ModeLineEdit)
		return true
	case KeyEnter:
		return m.execute()
	case KeyBackspace:
		if m.cursor > 0 {
			m.cmdline = append(m.cmdline[:m.cursor-1], m.cmdline[m.cursor:]...)
			m.cursor--
		}
		return true
	case KeyNone:
		if k.Rune != 0 {
			m.insertRune(k.Rune)
			return true
		}
	}
	return false
}

func (m *Machine) insertRune(r rune) {
	m.cmdline = append(m.cmdline, 0)
	copy(m.cmdline[m.cursor+1:], m.cmdline[m.cursor:])
	m.cmdline[m.cursor] = r
	m.cursor++
}

func (m *Machine) clampLineEditCursor() {
	if len(m.cmdline) == 0 {
		m.cursor = 0
		return
	}
	if m.cursor > len(m.cmdline)-1 {
		m.cursor = len(m.cmdline) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// handleLineEdit implements the vi-style normal mode over the command
// line: motions, the d/c/r operators (with their doubled-letter whole-
// line forms), and ; / , search repeat.
func (m *Machine) handleLineEdit(k Key) bool {
	if m.handleViewportKeys(k) {
		return true
	}
	switch k.Special {
	case KeyEnter:
		return m.execute()
	case KeyBackspace:
		m.cursor = motion.Left(m.cmdline, m.cursor)
		return true
	}
	if k.Special != KeyNone || k.Rune == 0 {
		return false
	}
	r := k.Rune

	if m.pendingOp == 'r' {
		if m.cursor < len(m.cmdline) {
			m.cmdline[m.cursor] = r
		}
		m.pendingOp = 0
		return true
	}

	// [count] prefix: a leading 1-9 starts it, further 0-9 digits (0
	// included) extend it; a bare leading '0' is the line-start motion.
	if (r >= '1' && r <= '9') || (r == '0' && m.count != 0) {
		m.count = m.count*10 + int(r-'0')
		return true
	}

	switch r {
	case 'i':
		m.count = 0
		m.setMode(ModeLineInsert)
		return true
	case 'I':
		m.count = 0
		m.cursor = motion.First(m.cmdline, m.cursor)
		m.setMode(ModeLineInsert)
		return true
	case 'a':
		m.count = 0
		m.cursor = min(len(m.cmdline), m.cursor+1)
		m.setMode(ModeLineInsert)
		return true
	case 'A':
		m.count = 0
		m.cursor = len(m.cmdline)
		m.setMode(ModeCmd)
		return true
	case 'x':
		newPos := m.runMotionN(m.takeCount(), motion.Right)
		m.deleteSpan(m.cursor, newPos)
		return true
	case 'X':
		newPos := m.runMotionN(m.takeCount(), motion.Left)
		m.deleteSpan(m.cursor, newPos)
		return true
	case 'D':
		m.takeCount()
		m.deleteSpan(m.cursor, motion.Last(m.cmdline, m.cursor))
		return true
	case 'C':
		m.takeCount()
		m.deleteSpan(m.cursor, motion.Last(m.cmdline, m.cursor))
		m.setMode(ModeLineInsert)
		return true
	case 'd':
		if m.pendingOp == 'd' {
			m.cmdline = nil
			m.cursor = 0
			m.pendingOp = 0
			m.count = 0
			return true
		}
		m.pendingOp = 'd'
		return true
	case 'c':
		if m.pendingOp == 'c' {
			m.cmdline = nil
			m.cursor = 0
			m.pendingOp = 0
			m.count = 0
			m.setMode(ModeLineInsert)
			return true
		}
		m.pendingOp = 'c'
		return true
	case 'r':
		m.count = 0
		m.pendingOp = 'r'
		return true
	case ';':
		m.count = 0
		m.repeatFind(false)
		return true
	case ',':
		m.count = 0
		m.repeatFind(true)
		return true
	}

	if newPos, ok := m.resolveMotion(r); ok {
		m.applyMotion(newPos)
		return true
	}
	m.pendingOp = 0
	m.count = 0
	return false
}

// takeCount returns the accumulated [count] prefix (1 if none was given)
// and resets it; every action that consumes a count — a motion, or a
// standalone x/X/D/C — takes it exactly once.
func (m *Machine) takeCount() int {
	n := m.count
	m.count = 0
	if n == 0 {
		return 1
	}
	return n
}

// runMotionN applies a non-idempotent relative/class motion step n times,
// chaining from each intermediate cursor position.
func (m *Machine) runMotionN(n int, step func([]rune, int) int) int {
	cur := m.cursor
	for i := 0; i < n; i++ {
		cur = step(m.cmdline, cur)
	}
	return cur
}

// resolveMotion evaluates a single-key motion. f/F/t/T are not handled
// here: they take an argument character, and only FindChar runs them.
// '0' and '$' are
// idempotent absolute jumps and ignore any pending count; the rest are
// relative/class motions and repeat the count's number of times.
func (m *Machine) resolveMotion(r rune) (int, bool) {
	switch r {
	case '0':
		m.takeCount()
		return motion.First(m.cmdline, m.cursor), true
	case '$':
		m.takeCount()
		return motion.Last(m.cmdline, m.cursor), true
	case 'h':
		return m.runMotionN(m.takeCount(), motion.Left), true
	case 'l':
		return m.runMotionN(m.takeCount(), motion.Right), true
	case 'w':
		return m.runMotionN(m.takeCount(), motion.ForwardWord), true
	case 'b':
		return m.runMotionN(m.takeCount(), motion.BackwardWord), true
	case 'W':
		return m.runMotionN(m.takeCount(), motion.ForwardBlank), true
	case 'B':
		return m.runMotionN(m.takeCount(), motion.BackwardBlank), true
	}
	return 0, false
}

// FindChar runs the f/F/t/T search kind for ch from the cursor (applying
// any pending operator) and records it for ; and , to repeat.
// handleLineEdit does not bind f, F, t or T, and nothing in this module
// calls FindChar, so typing those letters in LineEdit mode is not a motion.
func (m *Machine) FindChar(kind rune, ch rune) {
	var newPos int
	var ok bool
	switch kind {
	case 'f':
		newPos, ok = motion.ForwardFind(m.cmdline, m.cursor, ch)
	case 'F':
		newPos, ok = motion.BackwardFind(m.cmdline, m.cursor, ch)
	case 't':
		newPos, ok = motion.ForwardTo(m.cmdline, m.cursor, ch)
	case 'T':
		newPos, ok = motion.BackwardTo(m.cmdline, m.cursor, ch)
	}
	if !ok {
		m.pendingOp = 0
		return
	}
	m.lastFind = kind
	m.lastFindCh = ch
	m.applyMotion(newPos)
}

func (m *Machine) repeatFind(reverse bool) {
	if m.lastFind == 0 {
		return
	}
	kind := m.lastFind
	if reverse {
		switch kind {
		case 'f':
			kind = 'F'
		case 'F':
			kind = 'f'
		case 't':
			kind = 'T'
		case 'T':
			kind = 't'
		}
	}
	var newPos int
	var ok bool
	switch kind {
	case 'f':
		newPos, ok = motion.ForwardFind(m.cmdline, m.cursor, m.lastFindCh)
	case 'F':
		newPos, ok = motion.BackwardFind(m.cmdline, m.cursor, m.lastFindCh)
	case 't':
		newPos, ok = motion.ForwardTo(m.cmdline, m.cursor, m.lastFindCh)
	case 'T':
		newPos, ok = motion.BackwardTo(m.cmdline, m.cursor, m.lastFindCh)
	}
	if ok {
		m.applyMotion(newPos)
	}
}

// applyMotion moves the cursor to newPos directly, or — if an operator
// is pending — deletes the span between the old and new positions and
// leaves the cursor at the span's start; 'c' additionally enters insert.
func (m *Machine) applyMotion(newPos int) {
	op := m.pendingOp
	m.pendingOp = 0
	if op == 0 {
		m.cursor = newPos
		return
	}
	m.deleteSpan(m.cursor, newPos)
	if op == 'c' {
		m.setMode(ModeLineInsert)
	}
}

// deleteSpan removes the half-open range between a and b (in either
// order) from the command line — a literal drain(min..max), with no
// adjustment to include the upper endpoint — and leaves the cursor at
// the lower bound.
func (m *Machine) deleteSpan(a, b int) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(m.cmdline) {
		hi = len(m.cmdline)
	}
	m.cmdline = append(m.cmdline[:lo], m.cmdline[hi:]...)
	m.cursor = lo
	m.clampLineEditCursor()
}

func (m *Machine) handleScratch(k Key) bool {
	switch k.Special {
	case KeyTab:
		m.setMode(ModeCmd)
		return true
	case KeyCtrlD:
		m.Scratch.Down(m.height / 2)
		return true
	case KeyCtrlU:
		m.Scratch.Up(m.height/2, m.height)
		return true
	case KeyCtrlF:
		m.Scratch.Down(m.height)
		return true
	case KeyCtrlB:
		m.Scratch.Up(m.height, m.height)
		return true
	case KeyNone:
		if k.Rune == 'G' {
			m.Scratch.Last(m.height)
			return true
		}
	}
	return false
}

// handleText accumulates the multi-line a/i/c text block, terminated by
// a lone "." line, then injects it into the pending command and executes.
func (m *Machine) handleText(k Key) bool {
	switch k.Special {
	case KeyBackspace:
		if len(m.textLine) > 0 {
			m.textLine = m.textLine[:len(m.textLine)-1]
		}
		return true
	case KeyEnter:
		line := string(m.textLine)
		m.textLine = nil
		if line == "." {
			cmd := m.textCmd.WithText(m.textLines)
			m.textLines = nil
			return m.runCommand(cmd)
		}
		m.textLines = append(m.textLines, line)
		return true
	case KeyNone:
		if k.Rune != 0 {
			m.textLine = append(m.textLine, k.Rune)
			return true
		}
	}
	return false
}

// execute parses the command line and either runs it immediately or, if
// it needs a text payload, switches to Text mode to collect it.
func (m *Machine) execute() bool {
	line := strings.TrimRight(string(m.cmdline), "\n")
	if strings.TrimSpace(line) == "" {
		m.resetToCmd()
		return true
	}
	cmd, err := command.ParseCommand(line)
	if err != nil {
		m.reportError(err)
		m.resetToCmd()
		return true
	}
	if cmd.NeedsText() {
		m.textCmd = cmd
		m.textLines = nil
		m.textLine = nil
		m.cmdline = nil
		m.cursor = 0
		m.setMode(ModeText)
		return true
	}
	return m.runCommand(cmd)
}

func (m *Machine) runCommand(cmd command.Command) bool {
	cont, _, err := m.Interp.Exec(cmd)
	if err != nil {
		m.reportError(err)
	} else {
		m.bufferChanged()
	}
	if !cont {
		m.QuitRequested = true
	}
	m.resetToCmd()
	return true
}
