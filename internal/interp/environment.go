// Package interp implements the command interpreter (component G): the
// Environment that carries per-buffer memory of last-used values, the
// MarkMod delta algebra that describes how line positions shift after a
// mutation, and Interp.Exec which runs a parsed command.Command against a
// buffer.Buffer and an Environment.
package interp

import (
	"regexp"

	"github.com/bethropolis/ered/internal/command"
	"github.com/bethropolis/ered/internal/pattern"
)

// DefaultWindowSize is the scroll window used by z when no count is given
// and no config has overridden it.
const DefaultWindowSize = 22

// Environment is per-interpreter memory that outlives any single command:
// the cut register, the current filename, the default scroll window size,
// the last regex/pattern/flags used by Substitute, the three independent
// "last shell command" slots, and an optional write hook.
type Environment struct {
	CutRegister []string
	Filename    string
	WindowSize  int

	LastRegex *regexp.Regexp
	LastPat   *pattern.Pat
	LastFlags *command.SubstFlags

	LastRunCmd  string // "!" Run
	LastReadCmd string // "r" with a Command SysPoint
	LastWriteCmd string // "w"/"W" with a Command SysPoint

	WriteHook string // empty means no hook; see syspoint.ApplyWriteHook

	undo *undoSnapshot
}

// NewEnvironment returns an Environment with no filename, an empty cut
// register, and the default window size.
func NewEnvironment() *Environment {
	return &Environment{WindowSize: DefaultWindowSize}
}

// effectiveRegex resolves a Subst command's Re field against last-used
// memory: a non-nil Re is used (and becomes the new last regex on
// success); a nil Re means "reuse", which requires a previously stashed
// regex.
func (e *Environment) effectiveRegex(re *regexp.Regexp) (*regexp.Regexp, bool) {
	if re != nil {
		return re, true
	}
	if e.LastRegex != nil {
		return e.LastRegex, true
	}
	return nil, false
}

// effectivePat resolves a Subst command's Pat field: absent (nil) means
// "reuse last flags as well" territory handled by the caller; Replay means
// reuse the last pattern; otherwise the given pattern is used directly.
func (e *Environment) effectivePat(p *pattern.Pat) (pattern.Pat, bool) {
	if p == nil {
		if e.LastPat != nil {
			return *e.LastPat, true
		}
		return pattern.Pat{}, false
	}
	if p.Replay {
		if e.LastPat != nil {
			return *e.LastPat, true
		}
		return pattern.Pat{}, false
	}
	return *p, true
}

// effectiveFlags resolves a Subst command's Flags field: nil means reuse
// the last stashed flags (default Occurrences=1 if none stashed yet).
func (e *Environment) effectiveFlags(f *command.SubstFlags) command.SubstFlags {
	if f != nil {
		return *f
	}
	if e.LastFlags != nil {
		return *e.LastFlags
	}
	return command.SubstFlags{Occurrences: 1}
}
