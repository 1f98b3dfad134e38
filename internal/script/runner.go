package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bethropolis/ered/internal/buffer"
	"github.com/bethropolis/ered/internal/command"
	"github.com/bethropolis/ered/internal/interp"
	"github.com/bethropolis/ered/internal/logger"
	"github.com/bethropolis/ered/internal/scratch"
)

// Runner replays a parsed command list against one or more files, each
// with its own fresh Buffer and Environment.
type Runner struct {
	Commands []command.Command

	// Out receives Print/PrintLineNum/Run output. Defaults to a
	// scratch.Writer over os.Stdout when nil.
	Out scratch.Pad

	// WindowSize seeds Environment.WindowSize for every file's interpreter.
	WindowSize int

	// WriteHook, if set, is installed into every file's Environment.
	WriteHook string

	// InplaceExt, when non-empty, makes Run copy each file to
	// "<file>.<InplaceExt>" before executing commands against it,
	// mirroring the CLI's -i/--inplace flag (spec.md §6.1).
	InplaceExt string
}

// New returns a Runner over cmds, printing to out (a scratch.Writer over
// os.Stdout if out is nil).
func New(cmds []command.Command, out scratch.Pad) *Runner {
	if out == nil {
		out = scratch.NewWriter(os.Stdout)
	}
	return &Runner{Commands: cmds, Out: out}
}

// Run executes the runner's commands against each file in files in turn.
// A failing command aborts only that file's run (logged via
// logger.Errorf) and moves to the next file; the first such failure is
// returned to the caller once every file has been attempted, so the CLI
// can set a non-zero exit code. With no files, the commands run once
// against an empty, unnamed buffer.
func (r *Runner) Run(files []string) error {
	if len(files) == 0 {
		return r.runOne("")
	}
	var firstErr error
	for _, f := range files {
		if err := r.runOne(f); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Runner) runOne(filename string) error {
	if filename != "" && r.InplaceExt != "" {
		if err := backupFile(filename, r.InplaceExt); err != nil {
			logger.Errorf("script: %v", err)
			return err
		}
	}

	buf := buffer.New()
	if filename != "" {
		if f, err := os.Open(filename); err == nil {
			loadErr := buf.Load(f)
			f.Close()
			if loadErr != nil {
				logger.Errorf("script: loading %q: %v", filename, loadErr)
				return loadErr
			}
		} else if !os.IsNotExist(err) {
			logger.Errorf("script: opening %q: %v", filename, err)
			return err
		}
	}

	env := interp.NewEnvironment()
	if r.WindowSize > 0 {
		env.WindowSize = r.WindowSize
	}
	env.WriteHook = r.WriteHook
	env.Filename = filename

	ip := interp.New(buf, env, r.Out)

	for _, cmd := range r.Commands {
		cont, _, err := ip.Exec(cmd)
		if err != nil {
			// A dirty-buffer quit guard is a request for confirmation, not a
			// hard failure: let the script keep running (a second "q" then
			// confirms), matching how the same guard is satisfiable by a
			// human typing q twice at a REPL.
			if errors.Is(err, interp.ErrDirtyBuffer) {
				logger.Warnf("script: %q: %v", filename, err)
				continue
			}
			logger.Errorf("script: exec on %q failed: %v", filename, err)
			return fmt.Errorf("script: exec on %q: %w", filename, err)
		}
		if !cont {
			break
		}
	}

	if filename != "" && buf.Dirty() {
		f, err := os.Create(filename)
		if err != nil {
			logger.Errorf("script: writing back %q: %v", filename, err)
			return err
		}
		_, writeErr := buf.Write(f)
		closeErr := f.Close()
		if writeErr != nil {
			return writeErr
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

func backupFile(filename, ext string) error {
	src, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("script: backup: open %q: %w", filename, err)
	}
	defer src.Close()

	dst, err := os.Create(filename + "." + strings.TrimPrefix(ext, "."))
	if err != nil {
		return fmt.Errorf("script: backup: create: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("script: backup: copy: %w", err)
	}
	return nil
}
