// Package script implements the script runner (component I): parsing a
// batch of command lines — from a script file (-f) or a set of inline
// expressions (-e) — into a command.Command list once, then replaying that
// same list against each file in the argument list with a fresh
// interpreter per file.
package script

import (
	"fmt"
	"strings"

	"github.com/bethropolis/ered/internal/command"
)

// Parse reads script content into a Command list. Empty lines are
// skipped; "#"-prefixed lines parse as Comment (a no-op) via
// command.ParseCommand itself. An a/i/c command without an inline quoted
// literal consumes subsequent lines as its text payload up to a lone ".".
func Parse(content string) ([]command.Command, error) {
	lines := splitLines(content)
	var cmds []command.Command
	i := 0
	for i < len(lines) {
		lineNo := i + 1
		line := lines[i]
		i++
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd, err := command.ParseCommand(line)
		if err != nil {
			return nil, fmt.Errorf("script: line %d: %w", lineNo, err)
		}
		if cmd.NeedsText() {
			var text []string
			for i < len(lines) && lines[i] != "." {
				text = append(text, lines[i])
				i++
			}
			if i >= len(lines) {
				return nil, fmt.Errorf("script: line %d: unterminated text block: missing a lone \".\"", lineNo)
			}
			i++ // consume the terminating "."
			cmd = cmd.WithText(text)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// ParseExprs parses one or more -e command-line expressions as a single
// script, joined by newlines so a later expression may still supply a
// heredoc terminator opened by an earlier one.
func ParseExprs(exprs []string) ([]command.Command, error) {
	return Parse(strings.Join(exprs, "\n"))
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.Split(content, "\n")
}
