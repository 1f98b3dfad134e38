// internal/tui/tui.go
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// DefaultStyle is the screen's base background/foreground, applied to
// every cell not otherwise styled by drawing code.
var DefaultStyle = tcell.StyleDefault

// TUI manages the terminal screen using tcell.
type TUI struct {
	screen tcell.Screen
}

// New creates and initializes a new TUI instance.
func New() (*TUI, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("tui: create screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("tui: init screen: %w", err)
	}
	s.SetStyle(DefaultStyle)
	return &TUI{screen: s}, nil
}

// Close finalizes the tcell screen.
func (t *TUI) Close() {
	if t.screen != nil {
		t.screen.Fini()
	}
}

// PollEvent retrieves the next event.
func (t *TUI) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// Clear fills the entire screen with the default style.
func (t *TUI) Clear() {
	width, height := t.screen.Size()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t.screen.SetContent(x, y, ' ', nil, DefaultStyle)
		}
	}
}

// Show makes the changes visible.
func (t *TUI) Show() {
	t.screen.Show()
}

// Size returns the width and height of the terminal screen.
func (t *TUI) Size() (int, int) {
	return t.screen.Size()
}

// Screen provides direct access to the underlying tcell.Screen for
// drawing code that needs it (use with care).
func (t *TUI) Screen() tcell.Screen {
	return t.screen
}
