// cmd/ered/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bethropolis/ered/internal/app"
	"github.com/bethropolis/ered/internal/buffer"
	"github.com/bethropolis/ered/internal/command"
	"github.com/bethropolis/ered/internal/config"
	"github.com/bethropolis/ered/internal/interp"
	"github.com/bethropolis/ered/internal/logger"
	"github.com/bethropolis/ered/internal/replline"
	"github.com/bethropolis/ered/internal/script"
	"golang.org/x/term"
)

type exprList []string

func (e *exprList) String() string { return strings.Join(*e, ";") }
func (e *exprList) Set(v string) error {
	*e = append(*e, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := &config.Flags{}
	flags.DefineFlags()

	var scriptFile string
	flag.StringVar(&scriptFile, "f", "", "script file to execute (one command per line)")
	flag.StringVar(&scriptFile, "file", "", "script file to execute (one command per line)")

	var exprs exprList
	flag.Var(&exprs, "e", "inline command expression (may be repeated); mutually exclusive with -f")
	flag.Var(&exprs, "expr", "inline command expression (may be repeated); mutually exclusive with -f")

	var inplaceExt string
	flag.StringVar(&inplaceExt, "i", "", "backup extension: copy each file to FILE.EXT before editing it")
	flag.StringVar(&inplaceExt, "inplace", "", "backup extension: copy each file to FILE.EXT before editing it")

	flag.Parse()
	files := flag.Args()
	logger.EnableFilterDebug(*flags.DebugLog)

	if scriptFile != "" && len(exprs) > 0 {
		fmt.Fprintln(os.Stderr, "ered: -f/--file and -e/--expr are mutually exclusive")
		return 1
	}

	cfg, err := config.LoadConfig(*flags.ConfigFilePath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ered: loading config: %v\n", err)
	}
	logger.Init(cfg.Logger)

	if inplaceExt == "" {
		inplaceExt = cfg.Editor.InplaceExt
	}
	writeHook := cfg.Editor.WriteHook
	if hook := os.Getenv("ER_WRITE_HOOK"); hook != "" {
		writeHook = hook
	}

	if scriptFile != "" || len(exprs) > 0 {
		return runScript(scriptFile, exprs, files, inplaceExt, writeHook, cfg.Editor.WindowSize)
	}
	return runInteractive(files, writeHook, cfg)
}

func runScript(scriptFile string, exprs []string, files []string, inplaceExt, writeHook string, windowSize int) int {
	var cmds []command.Command
	var err error
	if scriptFile != "" {
		content, readErr := os.ReadFile(scriptFile)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "ered: reading script %q: %v\n", scriptFile, readErr)
			return 1
		}
		cmds, err = script.Parse(string(content))
	} else {
		cmds, err = script.ParseExprs(exprs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ered: %v\n", err)
		return 1
	}

	runner := script.New(cmds, nil)
	runner.WindowSize = windowSize
	runner.WriteHook = writeHook
	runner.InplaceExt = inplaceExt

	if err := runner.Run(files); err != nil {
		fmt.Fprintf(os.Stderr, "ered: %v\n", err)
		return 1
	}
	return 0
}

func runInteractive(files []string, writeHook string, cfg *config.Config) int {
	visual := cfg.Editor.Visual
	if v := os.Getenv("ER_VISUAL"); v == "1" && flag.Lookup("T").Value.String() != "true" {
		visual = true
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "ered: prompt used noninteractively")
		return 1
	}

	var filename string
	if len(files) > 0 {
		filename = files[0]
	}

	buf := buffer.New()
	if filename != "" {
		if f, openErr := os.Open(filename); openErr == nil {
			loadErr := buf.Load(f)
			f.Close()
			if loadErr != nil {
				fmt.Fprintf(os.Stderr, "ered: loading %q: %v\n", filename, loadErr)
				return 1
			}
		} else if !os.IsNotExist(openErr) {
			fmt.Fprintf(os.Stderr, "ered: opening %q: %v\n", filename, openErr)
			return 1
		}
	}

	env := interp.NewEnvironment()
	if cfg.Editor.WindowSize > 0 {
		env.WindowSize = cfg.Editor.WindowSize
	}
	env.WriteHook = writeHook
	env.Filename = filename

	if visual {
		a, err := app.New(buf, env, filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ered: %v\n", err)
			return 1
		}
		if err := a.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "ered: %v\n", err)
			return 1
		}
		return 0
	}

	repl := replline.New(buf, env, nil)
	if err := repl.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ered: %v\n", err)
		return 1
	}
	return 0
}
