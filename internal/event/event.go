// Package event implements a small synchronous pub/sub bus used to
// signal the TUI to redraw after an interpreter exec and to report mode
// changes.
package event

// Type identifies the kind of event carried on the bus.
type Type int

const (
	TypeUnknown Type = iota
	// TypeBufferChanged fires after any mutating command changes the
	// current buffer's content or cursor.
	TypeBufferChanged
	// TypeScratchPushed names a line printed to the scratch pad; nothing
	// in this module dispatches it.
	TypeScratchPushed
	// TypeModeChanged fires when the TUI mode machine transitions.
	TypeModeChanged
)

// Event is the structure passed through the bus.
type Event struct {
	Type Type
	Data interface{}
}

// BufferChangedData names the buffer's current filename, for status lines.
type BufferChangedData struct {
	Filename string
}

// ScratchPushedData carries the line just printed to the scratch pad.
type ScratchPushedData struct {
	Line string
}

// ModeChangedData carries the mode the machine just entered.
type ModeChangedData struct {
	Mode int
}
