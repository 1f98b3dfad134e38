// internal/tui/drawing.go
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"
)

// Draw renders one frame: the buffer viewport (or the scratch pad, while
// in Scratch mode) over the top of the screen, the command line on the
// second-to-last row, and the status bar on the last row.
func Draw(t *TUI, m *Machine) {
	width, height := t.Size()
	if height < 3 || width <= 0 {
		return
	}
	m.SetHeight(height - 2)
	screen := t.Screen()
	t.Clear()

	contentHeight := height - 2
	gutterStyle := DefaultStyle.Foreground(tcell.ColorGray)

	if m.Mode() == ModeScratch {
		drawScratch(screen, m, width, contentHeight)
	} else {
		drawBuffer(screen, m, width, contentHeight, gutterStyle)
	}

	drawCmdLine(screen, m, width, height-2)

	if m.Status != nil {
		m.Status.Draw(screen, width, height)
	}

	positionCursor(screen, m, width, height)
	t.Show()
}

// drawBuffer renders the buffer's lines from m.ViewTop() through
// contentHeight rows, with a right-aligned line-number gutter.
func drawBuffer(screen tcell.Screen, m *Machine, width, contentHeight int, gutterStyle tcell.Style) {
	lineCount := m.Buf.Len()
	gw := gutterWidth(lineCount)
	if gw >= width {
		gw = 0
	}
	top := m.ViewTop()
	cursorLine := m.Buf.Cursor()

	for row := 0; row < contentHeight; row++ {
		lineNo := top + row
		if gw > 0 {
			style := gutterStyle
			numStr := ""
			if lineNo >= 1 && lineNo <= lineCount {
				numStr = fmt.Sprintf("%*d", gw-1, lineNo)
				if lineNo == cursorLine {
					style = style.Bold(true)
				}
			}
			drawText(screen, 0, row, gw-1, numStr, style)
		}
		text, ok := m.Buf.Line(lineNo)
		if !ok {
			continue
		}
		drawText(screen, gw, row, width-gw, text, DefaultStyle)
	}
}

// drawScratch renders the tail of the scratch pad's output, bottom-anchored
// within contentHeight rows so the most recent lines stay visible.
func drawScratch(screen tcell.Screen, m *Machine, width, contentHeight int) {
	if m.Scratch == nil {
		return
	}
	lines := m.Scratch.BufferLines(contentHeight)
	start := contentHeight - len(lines)
	if start < 0 {
		start = 0
	}
	for i, line := range lines {
		row := start + i
		if row >= contentHeight {
			break
		}
		drawText(screen, 0, row, width, line, DefaultStyle)
	}
}

// drawCmdLine renders the in-progress command, or — in Text mode — the
// heredoc line currently being typed.
func drawCmdLine(screen tcell.Screen, m *Machine, width, row int) {
	for x := 0; x < width; x++ {
		screen.SetContent(x, row, ' ', nil, DefaultStyle)
	}
	var text string
	if m.Mode() == ModeText {
		text = string(m.textLine)
	} else {
		line, _ := m.CmdLine()
		text = line
	}
	drawText(screen, 0, row, width, text, DefaultStyle)
}

func positionCursor(screen tcell.Screen, m *Machine, width, height int) {
	row := height - 2
	if row < 0 {
		screen.HideCursor()
		return
	}
	var line string
	var cur int
	switch m.Mode() {
	case ModeCmd:
		line, _ = m.CmdLine()
		cur = len([]rune(line))
	case ModeLineEdit, ModeLineInsert:
		line, cur = m.CmdLine()
	case ModeText:
		line = string(m.textLine)
		cur = len(m.textLine)
	default:
		screen.HideCursor()
		return
	}
	col := visualColumn(line, cur)
	if col < 0 || col >= width {
		screen.HideCursor()
		return
	}
	screen.ShowCursor(col, row)
}

func gutterWidth(lineCount int) int {
	if lineCount < 1 {
		lineCount = 1
	}
	digits := 1
	for lineCount >= 10 {
		lineCount /= 10
		digits++
	}
	return digits + 1
}

// drawText draws text starting at (x, y), clipped to maxWidth display
// columns, grapheme-cluster aware so combining marks and wide runes land
// on the right cell.
func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	if maxWidth <= 0 {
		return
	}
	gr := uniseg.NewGraphemes(text)
	cx := 0
	for gr.Next() {
		w := gr.Width()
		if cx+w > maxWidth {
			break
		}
		runes := gr.Runes()
		if len(runes) == 0 {
			continue
		}
		var combining []rune
		if len(runes) > 1 {
			combining = runes[1:]
		}
		screen.SetContent(x+cx, y, runes[0], combining, style)
		cx += w
	}
}

// visualColumn returns the display-column width of the first runeCount
// runes of s, accounting for multi-rune grapheme clusters and wide runes.
func visualColumn(s string, runeCount int) int {
	if runeCount <= 0 {
		return 0
	}
	gr := uniseg.NewGraphemes(s)
	width := 0
	seen := 0
	for gr.Next() {
		if seen >= runeCount {
			break
		}
		width += gr.Width()
		seen += len(gr.Runes())
	}
	return width
}
