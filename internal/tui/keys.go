package tui

import "github.com/gdamore/tcell/v2"

// SpecialKey names the non-printable keys the mode machine cares about;
// everything else arrives as a plain rune.
type SpecialKey int

const (
	KeyNone SpecialKey = iota
	KeyEscape
	KeyEnter
	KeyBackspace
	KeyTab
	KeyCtrlC
	KeyCtrlD
	KeyCtrlU
	KeyCtrlF
	KeyCtrlB
	KeyCtrlL
	KeyCtrlO
)

// Key is the mode machine's decoded input event, translated once from a
// raw tcell key so the machine's dispatch logic never imports tcell and
// can be driven directly in tests.
type Key struct {
	Special SpecialKey
	Rune    rune
}

// KeyFromTcell decodes a tcell key event into a Key.
func KeyFromTcell(ev *tcell.EventKey) Key {
	switch ev.Key() {
	case tcell.KeyEscape:
		return Key{Special: KeyEscape}
	case tcell.KeyEnter:
		return Key{Special: KeyEnter}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return Key{Special: KeyBackspace}
	case tcell.KeyTab:
		return Key{Special: KeyTab}
	case tcell.KeyCtrlC:
		return Key{Special: KeyCtrlC}
	case tcell.KeyCtrlD:
		return Key{Special: KeyCtrlD}
	case tcell.KeyCtrlU:
		return Key{Special: KeyCtrlU}
	case tcell.KeyCtrlF:
		return Key{Special: KeyCtrlF}
	case tcell.KeyCtrlB:
		return Key{Special: KeyCtrlB}
	case tcell.KeyCtrlL:
		return Key{Special: KeyCtrlL}
	case tcell.KeyCtrlO:
		return Key{Special: KeyCtrlO}
	case tcell.KeyRune:
		return Key{Rune: ev.Rune()}
	default:
		return Key{}
	}
}
