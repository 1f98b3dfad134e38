package interp

import "errors"

// Sentinel errors surfaced by Exec, matching the error kinds named in the
// specification's error-handling design. Callers distinguish them with
// errors.Is.
var (
	ErrAddressNonResolvable = errors.New("interp: address did not resolve")
	ErrMissingPattern       = errors.New("interp: substitute has no regex or pattern to use")
	ErrDidNotReplace        = errors.New("interp: substitute matched nothing")
	ErrInvalidTarget        = errors.New("interp: move target falls inside its own source")
	ErrInvalidInsertion     = errors.New("interp: buffer rejected the insertion position")
	ErrUnableToSource       = errors.New("interp: could not read from source")
	ErrFailedCommand        = errors.New("interp: external command failed")
	ErrMissingFilename      = errors.New("interp: no filename set")
	ErrArgFetch             = errors.New("interp: no such file in the argument list")
	ErrMissingText          = errors.New("interp: command has no text payload injected")
	ErrNothingToUndo        = errors.New("interp: nothing to undo")
	ErrDirtyBuffer          = errors.New("interp: buffer has unsaved changes")
)
