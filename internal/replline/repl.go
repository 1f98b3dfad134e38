package replline

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/bethropolis/ered/internal/buffer"
	"github.com/bethropolis/ered/internal/command"
	"github.com/bethropolis/ered/internal/interp"
	"github.com/bethropolis/ered/internal/logger"
	"github.com/bethropolis/ered/internal/scratch"
	"golang.org/x/term"
)

// Repl drives the non-TUI interactive prompt: a vi-modal Editor reading
// command lines (and, for a/i/c, the heredoc text that follows) against
// one buffer, interpreter, and environment, until q confirms a quit or
// the input stream ends.
type Repl struct {
	Buf    *buffer.Buffer
	Env    *interp.Environment
	Interp *interp.Interp
	Out    scratch.Pad

	editor *Editor
	in     io.Reader
	out    io.Writer
	raw    bool // true once stdin is in raw mode (Enter arrives as '\r', no local echo)
}

// New builds a Repl over an already-loaded buffer/environment, printing
// interpreter output to out (stdout if nil).
func New(buf *buffer.Buffer, env *interp.Environment, out scratch.Pad) *Repl {
	if out == nil {
		out = scratch.NewWriter(os.Stdout)
	}
	ip := interp.New(buf, env, out)
	return &Repl{
		Buf:    buf,
		Env:    env,
		Interp: ip,
		Out:    out,
		editor: NewEditor("", nil),
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// Run reads and executes commands until the user confirms quit or input
// ends. If stdin is a terminal, raw mode is used so the Editor sees every
// keystroke; otherwise lines are read as a plain pipe (no vi editing, no
// history, heredoc text still collected the same way).
func (r *Repl) Run() error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return r.runPiped()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("replline: enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)
	r.raw = true

	br := bufio.NewReader(r.in)
	for {
		line, aborted, eof := r.editor.ReadLine(br, r.out)
		if eof {
			return nil
		}
		if aborted {
			continue
		}
		if !r.execLine(br, line) {
			return nil
		}
	}
}

func (r *Repl) runPiped() error {
	br := bufio.NewReader(r.in)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			line = trimNewline(line)
			if !r.execLine(br, line) {
				return nil
			}
		}
		if err != nil {
			return nil
		}
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// execLine parses and runs one command line, collecting a text payload
// first if the command needs one. It returns false when the interpreter
// signals a clean quit.
func (r *Repl) execLine(br *bufio.Reader, line string) bool {
	if line == "" {
		return true
	}
	cmd, err := command.ParseCommand(line)
	if err != nil {
		fmt.Fprintf(r.out, "? %v\r\n", err)
		return true
	}
	if cmd.NeedsText() {
		text := r.readTextBlock(br)
		cmd = cmd.WithText(text)
	}
	cont, _, err := r.Interp.Exec(cmd)
	if err != nil {
		logger.Warnf("replline: %v", err)
		fmt.Fprintf(r.out, "? %v\r\n", err)
	}
	return cont
}

// readTextBlock reads plain lines (bypassing the vi-modal Editor, exactly
// like the TUI's Text mode) until a lone "." terminates the block. In raw
// mode the terminal performs no line buffering or echo of its own, so
// each line is read and echoed byte-by-byte; a piped, non-terminal stdin
// is already line-buffered by the OS and is read directly.
func (r *Repl) readTextBlock(br *bufio.Reader) []string {
	var lines []string
	for {
		var text string
		var eof bool
		if r.raw {
			text, eof = r.readRawLine(br)
		} else {
			raw, err := br.ReadString('\n')
			text, eof = trimNewline(raw), err != nil
		}
		if text == "." {
			return lines
		}
		lines = append(lines, text)
		if eof {
			return lines
		}
	}
}

// readRawLine reads one line byte-by-byte from a raw terminal, echoing
// each typed byte back (the terminal does none of this itself in raw
// mode) and honoring backspace; Enter arrives as '\r'.
func (r *Repl) readRawLine(br *bufio.Reader) (string, bool) {
	var buf []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return string(buf), true
		}
		switch b {
		case '\r', '\n':
			fmt.Fprint(r.out, "\r\n")
			return string(buf), false
		case 0x7f, 0x08:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				fmt.Fprint(r.out, "\b \b")
			}
		default:
			buf = append(buf, b)
			r.out.Write([]byte{b})
		}
	}
}
