// Package command defines the Command AST — a closed sum type over every
// operation the line grammar recognizes — and the parser that turns one
// input line into a Command.
package command

import (
	"regexp"

	"github.com/bethropolis/ered/internal/addr"
	"github.com/bethropolis/ered/internal/pattern"
	"github.com/bethropolis/ered/internal/syspoint"
)

// ValidMarks is the recognized set of mark characters: ASCII letters plus
// '<', '>', '_'.
const ValidMarks = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ<>_"

// Op discriminates the variants of Command.
type Op int

const (
	Nop Op = iota
	Print
	Delete
	Append
	Insert
	Change
	Mark
	Join
	Move
	Transfer
	Yank
	Paste
	Write
	Read
	Subst
	Global
	Void
	Quit
	Scroll
	Edit
	Run
	NextBuffer
	PrevBuffer

	// Comment, SetFilename, PrintLineNum, Undo, and WriteAppend extend the
	// base grammar per SPEC_FULL's supplemented features: a no-op comment
	// line, "f" (get/set the environment's filename), "=" (print a
	// resolved line's number without moving the cursor), "u" (undo the
	// last mutating command), and "W" (write in append mode).
	Comment
	SetFilename
	PrintLineNum
	Undo
	WriteAppend
)

// SubstFlags is the parsed flags field of a Substitute command.
type SubstFlags struct {
	Print       bool
	Occurrences int // 0 means unlimited ("g"); default 1
}

// Command is a single parsed command line. Only the fields relevant to
// Op are meaningful; see the per-op comments below.
type Command struct {
	Op Op

	Addr   addr.Address // Print, Delete, Join, Move/Transfer (source), Yank, Write/WriteAppend, Change, Subst, Global, Void, PrintLineNum
	Offset addr.Offset  // Nop, Append, Insert, Mark, Move/Transfer (target), Paste, Read, Scroll

	Text     []string // Append/Insert/Change text payload; nil until injected (§6)
	MarkCh   rune     // Mark
	WriteSink syspoint.SysPoint // Write
	WriteQuit bool              // Write with trailing "q" ("wq")
	ReadSrc   syspoint.SysPoint // Read
	EditSrc   syspoint.SysPoint // Edit

	Re      *regexp.Regexp // Subst/Global/Void; nil means "reuse last regex"
	Pat     *pattern.Pat   // Subst; nil means absent (no pattern field was given at all)
	Flags   *SubstFlags    // Subst; nil means "reuse last flags"
	Count   *int           // Scroll; nil means default count
	Cmds    []Command      // Global/Void sub-command list
	ShellCmd syspoint.Cmd  // Run

	FilenameArg    string // SetFilename
	HasFilenameArg bool   // SetFilename: false means "query", not "set to empty"
}

// NeedsText reports whether the command was parsed without its text
// payload and must have one injected before it can execute.
func (c Command) NeedsText() bool {
	return (c.Op == Append || c.Op == Insert || c.Op == Change) && c.Text == nil
}

// WithText returns a copy of c with its text payload set.
func (c Command) WithText(lines []string) Command {
	c.Text = lines
	return c
}
