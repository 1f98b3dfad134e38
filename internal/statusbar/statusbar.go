// internal/statusbar/statusbar.go
package statusbar

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Config defines the appearance and behavior of the status bar.
type Config struct {
	StyleDefault   tcell.Style
	StyleMessage   tcell.Style
	MessageTimeout time.Duration
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		StyleDefault:   tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorBlue),
		StyleMessage:   tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlue).Bold(true),
		MessageTimeout: 4 * time.Second,
	}
}

// StatusBar is the TUI's error/status line, drawn on the screen's last
// row: filename, dirty flag, the current mode name, and the cursor's
// current line.
type StatusBar struct {
	config Config
	mu     sync.RWMutex

	filename   string
	dirty      bool
	modeName   string
	cursorLine int
	lineCount  int

	tempMessage     string
	tempMessageTime time.Time
}

// New creates a new StatusBar with the given configuration.
func New(config Config) *StatusBar {
	return &StatusBar{config: config}
}

// SetBufferInfo updates the filename/dirty-flag/cursor-line/line-count fields.
func (sb *StatusBar) SetBufferInfo(filename string, dirty bool, cursorLine, lineCount int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.filename = filename
	sb.dirty = dirty
	sb.cursorLine = cursorLine
	sb.lineCount = lineCount
}

// SetMode updates the displayed mode name.
func (sb *StatusBar) SetMode(name string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.modeName = name
}

// SetTemporaryMessage displays a message for a configured duration,
// typically an error surfaced from a failed Exec.
func (sb *StatusBar) SetTemporaryMessage(format string, args ...interface{}) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = fmt.Sprintf(format, args...)
	sb.tempMessageTime = time.Now()
}

func (sb *StatusBar) defaultText() string {
	name := sb.filename
	if name == "" {
		name = "[No Name]"
	}
	modified := ""
	if sb.dirty {
		modified = " [Modified]"
	}
	mode := ""
	if sb.modeName != "" {
		mode = fmt.Sprintf(" [%s]", sb.modeName)
	}
	return fmt.Sprintf("%s%s%s -- Line: %d/%d", name, modified, mode, sb.cursorLine, sb.lineCount)
}

// Draw renders the status bar onto the last row of screen.
func (sb *StatusBar) Draw(screen tcell.Screen, width, height int) {
	if height <= 0 || width <= 0 {
		return
	}
	y := height - 1

	sb.mu.Lock()
	active := !sb.tempMessageTime.IsZero() && time.Since(sb.tempMessageTime) <= sb.config.MessageTimeout
	if !sb.tempMessageTime.IsZero() && !active {
		sb.tempMessage = ""
		sb.tempMessageTime = time.Time{}
	}
	var style tcell.Style
	var text string
	if active {
		style = sb.config.StyleMessage
		text = sb.tempMessage
	} else {
		text = sb.defaultText()
		style = sb.config.StyleDefault
	}
	sb.mu.Unlock()

	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, style)
	}

	gr := uniseg.NewGraphemes(text)
	currentX := 0
	for gr.Next() {
		clusterWidth := gr.Width()
		if currentX+clusterWidth > width {
			break
		}
		runes := gr.Runes()
		if len(runes) > 0 {
			var combining []rune
			if len(runes) > 1 {
				combining = runes[1:]
			}
			screen.SetContent(currentX, y, runes[0], combining, style)
		}
		currentX += clusterWidth
	}
}
