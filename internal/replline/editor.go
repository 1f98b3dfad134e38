// Package replline implements the non-TUI interactive prompt's line
// editor: an Insert-mode-by-default reader over a raw terminal, with an
// Escape-triggered vi Normal mode (reusing the same motions and d/c/r
// operators as the full-screen TUI), arrow-key and in-memory history
// navigation, and submit-on-Enter.
package replline

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/bethropolis/ered/internal/motion"
)

// Mode is the editor's own two-state machine: Insert (the default, every
// printable rune is typed directly) and Normal (Escape-entered, vi
// motions and operators over the line).
type Mode int

const (
	ModeInsert Mode = iota
	ModeNormal
)

// Editor is a single-line vi-modal editor with in-memory history,
// reusing internal/motion for its Normal-mode motions.
type Editor struct {
	prompt string
	buf    []rune
	cur    int
	mode   Mode

	hist   []string
	hIndex int // -1 means "not browsing history"

	pendingOp  rune
	count      int // accumulated [count] prefix; 0 means "not given" (acts as 1)
	lastFind   rune
	lastFindCh rune
}

// NewEditor returns an Editor that prints prompt before each line and
// starts history browsing from the given past entries (oldest first).
func NewEditor(prompt string, history []string) *Editor {
	return &Editor{
		prompt: prompt,
		hist:   append([]string{}, history...),
		hIndex: -1,
	}
}

// History returns the editor's accumulated history, oldest first.
func (e *Editor) History() []string { return e.hist }

// ReadLine reads one line from r, rendering to w as it goes. It returns
// the submitted text; aborted is true if the line was cancelled with
// Ctrl-C; eof is true if the stream ended (Ctrl-D on an empty line, or a
// read error).
func (e *Editor) ReadLine(r *bufio.Reader, w io.Writer) (line string, aborted bool, eof bool) {
	e.buf = e.buf[:0]
	e.cur = 0
	e.mode = ModeInsert
	e.hIndex = -1
	e.pendingOp = 0
	e.count = 0
	e.render(w)

	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", false, true
		}
		switch {
		case b == '\r' || b == '\n':
			fmt.Fprint(w, "\r\n")
			text := string(e.buf)
			if strings.TrimSpace(text) != "" {
				e.hist = append(e.hist, text)
			}
			return text, false, false
		case b == 0x03: // Ctrl-C
			fmt.Fprint(w, "\r\n")
			return "", true, false
		case b == 0x04 && len(e.buf) == 0: // Ctrl-D on empty line
			return "", false, true
		case b == 0x1b:
			e.handleEscape(r)
		default:
			e.handleByte(b, r)
		}
		e.render(w)
	}
}

func (e *Editor) handleByte(b byte, r *bufio.Reader) {
	if e.mode == ModeNormal {
		e.handleNormalByte(b)
		return
	}
	switch b {
	case 0x7f, 0x08: // Backspace
		if e.cur > 0 {
			e.buf = append(e.buf[:e.cur-1], e.buf[e.cur:]...)
			e.cur--
		}
	default:
		e.insertByte(b, r)
	}
}

func (e *Editor) insertByte(b byte, r *bufio.Reader) {
	switch {
	case b < 0x80 && (b == ' ' || b >= 0x21):
		e.insertRune(rune(b))
	case b&0xE0 == 0xC0:
		e.insertRune(decodeUTF8Tail(b, r, 1))
	case b&0xF0 == 0xE0:
		e.insertRune(decodeUTF8Tail(b, r, 2))
	case b&0xF8 == 0xF0:
		e.insertRune(decodeUTF8Tail(b, r, 3))
	}
}

func decodeUTF8Tail(first byte, r *bufio.Reader, tailLen int) rune {
	rest := make([]byte, tailLen)
	io.ReadFull(r, rest)
	full := append([]byte{first}, rest...)
	switch len(full) {
	case 2:
		return rune(full[0]&0x1F)<<6 | rune(full[1]&0x3F)
	case 3:
		return rune(full[0]&0x0F)<<12 | rune(full[1]&0x3F)<<6 | rune(full[2]&0x3F)
	case 4:
		return rune(full[0]&0x07)<<18 | rune(full[1]&0x3F)<<12 | rune(full[2]&0x3F)<<6 | rune(full[3]&0x3F)
	default:
		return rune(first)
	}
}

func (e *Editor) insertRune(rn rune) {
	e.buf = append(e.buf, 0)
	copy(e.buf[e.cur+1:], e.buf[e.cur:])
	e.buf[e.cur] = rn
	e.cur++
}

func (e *Editor) handleEscape(r *bufio.Reader) {
	// A lone Escape (nothing buffered yet, or the next byte isn't the '['
	// that starts a CSI sequence) is the Insert->Normal mode switch; a
	// real terminal emits the rest of an arrow-key sequence immediately
	// behind the Escape byte, so peeking one byte is enough to tell them
	// apart without a timeout.
	seq, _ := r.Peek(1)
	if len(seq) == 0 || seq[0] != '[' {
		if e.mode == ModeInsert {
			if e.cur > 0 {
				e.cur--
			}
			e.mode = ModeNormal
		}
		return
	}
	r.ReadByte()
	var param []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			e.handleCSI(b, string(param))
			return
		}
		param = append(param, b)
		if len(param) > 8 {
			return
		}
	}
}

func (e *Editor) handleCSI(cmd byte, _ string) {
	switch cmd {
	case 'A':
		e.historyPrev()
	case 'B':
		e.historyNext()
	case 'C':
		if e.cur < len(e.buf) {
			e.cur++
		}
	case 'D':
		if e.cur > 0 {
			e.cur--
		}
	case 'H':
		e.cur = 0
	case 'F':
		e.cur = len(e.buf)
	}
}

func (e *Editor) historyPrev() {
	if len(e.hist) == 0 {
		return
	}
	if e.hIndex == -1 {
		e.hIndex = len(e.hist) - 1
	} else if e.hIndex > 0 {
		e.hIndex--
	}
	e.buf = []rune(e.hist[e.hIndex])
	e.cur = len(e.buf)
}

func (e *Editor) historyNext() {
	if e.hIndex == -1 {
		return
	}
	if e.hIndex < len(e.hist)-1 {
		e.hIndex++
		e.buf = []rune(e.hist[e.hIndex])
		e.cur = len(e.buf)
		return
	}
	e.hIndex = -1
	e.buf = e.buf[:0]
	e.cur = 0
}

// handleNormalByte implements the same vi motions and d/c/r operators as
// the TUI's LineEdit mode (mode.go), over this editor's own buffer.
func (e *Editor) handleNormalByte(b byte) {
	if b == 0x7f || b == 0x08 {
		e.cur = motion.Left(e.buf, e.cur)
		return
	}
	r := rune(b)

	if e.pendingOp == 'r' {
		if e.cur < len(e.buf) {
			e.buf[e.cur] = r
		}
		e.pendingOp = 0
		return
	}

	// [count] prefix: a leading 1-9 starts it, further 0-9 digits (0
	// included) extend it; a bare leading '0' is the line-start motion.
	if (r >= '1' && r <= '9') || (r == '0' && e.count != 0) {
		e.count = e.count*10 + int(r-'0')
		return
	}

	switch r {
	case 'i':
		e.count = 0
		e.mode = ModeInsert
		return
	case 'I':
		e.count = 0
		e.cur = motion.First(e.buf, e.cur)
		e.mode = ModeInsert
		return
	case 'a':
		e.count = 0
		e.cur = min(len(e.buf), e.cur+1)
		e.mode = ModeInsert
		return
	case 'A':
		e.count = 0
		e.cur = len(e.buf)
		e.mode = ModeInsert
		return
	case 'x':
		newPos := e.runMotionN(e.takeCount(), motion.Right)
		e.deleteSpan(e.cur, newPos)
		return
	case 'X':
		newPos := e.runMotionN(e.takeCount(), motion.Left)
		e.deleteSpan(e.cur, newPos)
		return
	case 'D':
		e.takeCount()
		e.deleteSpan(e.cur, motion.Last(e.buf, e.cur))
		return
	case 'C':
		e.takeCount()
		e.deleteSpan(e.cur, motion.Last(e.buf, e.cur))
		e.mode = ModeInsert
		return
	case 'd':
		if e.pendingOp == 'd' {
			e.buf = nil
			e.cur = 0
			e.pendingOp = 0
			e.count = 0
			return
		}
		e.pendingOp = 'd'
		return
	case 'c':
		if e.pendingOp == 'c' {
			e.buf = nil
			e.cur = 0
			e.pendingOp = 0
			e.count = 0
			e.mode = ModeInsert
			return
		}
		e.pendingOp = 'c'
		return
	case 'r':
		e.count = 0
		e.pendingOp = 'r'
		return
	case ';':
		e.count = 0
		e.repeatFind(false)
		return
	case ',':
		e.count = 0
		e.repeatFind(true)
		return
	}

	if newPos, ok := e.resolveMotion(r); ok {
		e.applyMotion(newPos)
		return
	}
	e.pendingOp = 0
	e.count = 0
}

// takeCount returns the accumulated [count] prefix (1 if none was given)
// and resets it.
func (e *Editor) takeCount() int {
	n := e.count
	e.count = 0
	if n == 0 {
		return 1
	}
	return n
}

// runMotionN applies a non-idempotent relative/class motion step n
// times, chaining from each intermediate cursor position.
func (e *Editor) runMotionN(n int, step func([]rune, int) int) int {
	cur := e.cur
	for i := 0; i < n; i++ {
		cur = step(e.buf, cur)
	}
	return cur
}

// resolveMotion evaluates a single-key motion. '0' and '$' are
// idempotent absolute jumps and ignore any pending count; the rest are
// relative/class motions and repeat the count's number of times.
func (e *Editor) resolveMotion(r rune) (int, bool) {
	switch r {
	case '0':
		e.takeCount()
		return motion.First(e.buf, e.cur), true
	case '$':
		e.takeCount()
		return motion.Last(e.buf, e.cur), true
	case 'h':
		return e.runMotionN(e.takeCount(), motion.Left), true
	case 'l':
		return e.runMotionN(e.takeCount(), motion.Right), true
	case 'w':
		return e.runMotionN(e.takeCount(), motion.ForwardWord), true
	case 'b':
		return e.runMotionN(e.takeCount(), motion.BackwardWord), true
	case 'W':
		return e.runMotionN(e.takeCount(), motion.ForwardBlank), true
	case 'B':
		return e.runMotionN(e.takeCount(), motion.BackwardBlank), true
	}
	return 0, false
}

func (e *Editor) repeatFind(reverse bool) {
	if e.lastFind == 0 {
		return
	}
	kind := e.lastFind
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
	if newPos, ok := e.runFind(kind, e.lastFindCh); ok {
		e.applyMotion(newPos)
	}
}

func (e *Editor) runFind(kind, ch rune) (int, bool) {
	switch kind {
	case 'f':
		return motion.ForwardFind(e.buf, e.cur, ch)
	case 'F':
		return motion.BackwardFind(e.buf, e.cur, ch)
	case 't':
		return motion.ForwardTo(e.buf, e.cur, ch)
	case 'T':
		return motion.BackwardTo(e.buf, e.cur, ch)
	}
	return 0, false
}

func (e *Editor) applyMotion(newPos int) {
	op := e.pendingOp
	e.pendingOp = 0
	if op == 0 {
		e.cur = newPos
		return
	}
	e.deleteSpan(e.cur, newPos)
	if op == 'c' {
		e.mode = ModeInsert
	}
}

// deleteSpan removes the half-open range between a and b (in either
// order) from the line — a literal drain(min..max), with no adjustment
// to include the upper endpoint — and leaves the cursor at the lower
// bound.
func (e *Editor) deleteSpan(a, b int) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(e.buf) {
		hi = len(e.buf)
	}
	e.buf = append(e.buf[:lo], e.buf[hi:]...)
	e.cur = lo
	if e.cur > len(e.buf) {
		e.cur = len(e.buf)
	}
}

func (e *Editor) render(w io.Writer) {
	fmt.Fprint(w, "\r\x1b[2K")
	fmt.Fprint(w, e.prompt)
	fmt.Fprint(w, string(e.buf))
	if back := len(e.buf) - e.cur; back > 0 {
		fmt.Fprintf(w, "\x1b[%dD", back)
	}
}
