// internal/app/app.go
package app

import (
	"fmt"

	"github.com/bethropolis/ered/internal/buffer"
	"github.com/bethropolis/ered/internal/event"
	"github.com/bethropolis/ered/internal/interp"
	"github.com/bethropolis/ered/internal/logger"
	"github.com/bethropolis/ered/internal/scratch"
	"github.com/bethropolis/ered/internal/statusbar"
	"github.com/bethropolis/ered/internal/tui"
	"github.com/gdamore/tcell/v2"
)

// App wires the tcell screen, the mode machine, and the interpreter
// together and drives the full-screen editor's main loop.
type App struct {
	screen  *tui.TUI
	machine *tui.Machine
	events  *event.Manager
}

// New builds an App over an already-loaded buffer and environment,
// initializing the tcell screen.
func New(buf *buffer.Buffer, env *interp.Environment, filename string) (*App, error) {
	screen, err := tui.New()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	sc := scratch.NewStore(scratch.DefaultCapacity)
	ip := interp.New(buf, env, sc)
	events := event.NewManager()
	status := statusbar.New(statusbar.DefaultConfig())

	machine := tui.NewMachine(buf, env, ip, sc)
	machine.Events = events
	machine.Status = status
	status.SetMode(machine.Mode().String())
	status.SetBufferInfo(filename, buf.Dirty(), buf.Cursor(), buf.Len())

	a := &App{screen: screen, machine: machine, events: events}

	events.Subscribe(event.TypeBufferChanged, func(event.Event) bool {
		status.SetBufferInfo(env.Filename, buf.Dirty(), buf.Cursor(), buf.Len())
		return true
	})
	events.Subscribe(event.TypeModeChanged, func(event.Event) bool {
		status.SetMode(machine.Mode().String())
		return true
	})

	_, height := screen.Size()
	machine.SetHeight(height - 2)

	return a, nil
}

// Run polls terminal events and redraws until the mode machine requests
// a quit.
func (a *App) Run() error {
	defer a.screen.Close()

	tui.Draw(a.screen, a.machine)
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch e := ev.(type) {
		case *tcell.EventResize:
			a.screen.Screen().Sync()
		case *tcell.EventKey:
			a.machine.HandleKey(tui.KeyFromTcell(e))
			if a.machine.LastErr != nil {
				logger.Warnf("app: %v", a.machine.LastErr)
				a.machine.LastErr = nil
			}
			if a.machine.QuitRequested {
				return nil
			}
		}
		tui.Draw(a.screen, a.machine)
	}
}
