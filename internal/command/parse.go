package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bethropolis/ered/internal/addr"
	"github.com/bethropolis/ered/internal/pattern"
	"github.com/bethropolis/ered/internal/syspoint"
)

const freEscapes = "\\.+*?()|[]{}^$?\"/dDwWsS"
const bdEscapes = "\\.+*?()|[]{}^$?\"dDwWsS"

// opLetters is the recognized set of single-letter operations. "z" and "e"
// extend the grammar beyond the base address/offset/point syntax to cover
// Scroll and Edit, named directly by §4.5's op table; "f", "=", "u", and
// "W" are the supplemented ops (get/set filename, print line number,
// undo, write-append).
const opLetters = "pdacikjqmtyxswrgvzefu=W"

// ParseCommand parses a single command line. For a/i/c, an inline quoted
// text literal (as in `a 'text'`) is parsed here and populates cmd.Text
// directly; callers should still check NeedsText, since a bare a/i/c with
// no inline literal leaves Text empty and expects a following heredoc
// block. A line whose first non-blank character is "#" parses as a no-op
// Comment regardless of what follows.
func ParseCommand(line string) (Command, error) {
	s := []rune(line)

	if j := skipSpace(s, 0); j < len(s) && s[j] == '#' {
		return Command{Op: Comment}, nil
	}

	i := 0
	a, i2, gotAddr, err := parseAddress(s, 0)
	if err != nil {
		return Command{}, err
	}
	if gotAddr {
		i = i2
	}

	if !gotAddr {
		if i < len(s) && s[i] == '!' {
			cmd, next, err := parseShellCmd(s, i)
			if err != nil {
				return Command{}, err
			}
			if err := requireConsumed(s, next); err != nil {
				return Command{}, err
			}
			return Command{Op: Run, ShellCmd: cmd}, nil
		}
		if i < len(s) && (s[i] == '>' || s[i] == '<') {
			op := NextBuffer
			if s[i] == '<' {
				op = PrevBuffer
			}
			if err := requireConsumed(s, i+1); err != nil {
				return Command{}, err
			}
			return Command{Op: op}, nil
		}
	}

	var op rune
	hasOp := false
	if i < len(s) && strings.ContainsRune(opLetters, s[i]) {
		op = s[i]
		hasOp = true
		i++
	}

	if !hasOp {
		offset, ok := toOffset(a, gotAddr)
		if !ok {
			return Command{}, fmt.Errorf("command: address range not valid here")
		}
		if err := requireConsumed(s, i); err != nil {
			return Command{}, err
		}
		return Command{Op: Nop, Offset: offset}, nil
	}

	switch op {
	case 'p':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		return finish(Command{Op: Print, Addr: addrOut}, s, i)

	case 'd':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		return finish(Command{Op: Delete, Addr: addrOut}, s, i)

	case 'j':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Span(addr.Nil(addr.CurrentPoint()), addr.Relf(addr.CurrentPoint(), 1))
		}
		return finish(Command{Op: Join, Addr: addrOut}, s, i)

	case 'y':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		return finish(Command{Op: Yank, Addr: addrOut}, s, i)

	case 'q':
		return finish(Command{Op: Quit}, s, i)

	case 'w':
		quit := false
		if i < len(s) && s[i] == 'q' {
			quit = true
			i++
		}
		i = skipSpace(s, i)
		sink, next, err := parseSysPoint(s, i)
		if err != nil {
			return Command{}, err
		}
		addrOut := a
		if !gotAddr {
			addrOut = addr.Span(addr.Nil(addr.AbsPoint(1)), addr.Nil(addr.LastPoint()))
		}
		return finish(Command{Op: Write, Addr: addrOut, WriteSink: sink, WriteQuit: quit}, s, next)

	case 'W':
		i = skipSpace(s, i)
		sink, next, err := parseSysPoint(s, i)
		if err != nil {
			return Command{}, err
		}
		addrOut := a
		if !gotAddr {
			addrOut = addr.Span(addr.Nil(addr.AbsPoint(1)), addr.Nil(addr.LastPoint()))
		}
		return finish(Command{Op: WriteAppend, Addr: addrOut, WriteSink: sink}, s, next)

	case 'f':
		j := skipSpace(s, i)
		rest := strings.TrimSpace(string(s[j:]))
		if rest == "" {
			return Command{Op: SetFilename}, nil
		}
		return Command{Op: SetFilename, FilenameArg: rest, HasFilenameArg: true}, nil

	case '=':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		return finish(Command{Op: PrintLineNum, Addr: addrOut}, s, i)

	case 'u':
		return finish(Command{Op: Undo}, s, i)

	case 'r':
		i = skipSpace(s, i)
		src, next, err := parseSysPoint(s, i)
		if err != nil {
			return Command{}, err
		}
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.LastPoint()))
		}
		offset, ok := toOffset(addrOut, true)
		if !ok {
			return Command{}, fmt.Errorf("command: address range not valid for r")
		}
		return finish(Command{Op: Read, Offset: offset, ReadSrc: src}, s, next)

	case 'k':
		if i >= len(s) || !strings.ContainsRune(ValidMarks, s[i]) {
			return Command{}, fmt.Errorf("command: expected mark character after k")
		}
		mark := s[i]
		i++
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		offset, ok := toOffset(addrOut, true)
		if !ok {
			return Command{}, fmt.Errorf("command: address range not valid for k")
		}
		return finish(Command{Op: Mark, Offset: offset, MarkCh: mark}, s, i)

	case 'm':
		target, next, gotTarget, err := parseOffset(s, i)
		if err != nil {
			return Command{}, err
		}
		if !gotTarget {
			target = addr.Nil(addr.CurrentPoint())
			next = i
		}
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		return finish(Command{Op: Move, Addr: addrOut, Offset: target}, s, next)

	case 't':
		target, next, gotTarget, err := parseOffset(s, i)
		if err != nil {
			return Command{}, err
		}
		if !gotTarget {
			target = addr.Nil(addr.CurrentPoint())
			next = i
		}
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		return finish(Command{Op: Transfer, Addr: addrOut, Offset: target}, s, next)

	case 'c':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		j := skipSpace(s, i)
		text, next, hasText, err := tryParseStrLit(s, j)
		if err != nil {
			return Command{}, err
		}
		cmd := Command{Op: Change, Addr: addrOut}
		if hasText {
			cmd.Text = text
			i = next
		}
		return finish(cmd, s, i)

	case 'i':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		offset, ok := toOffset(addrOut, true)
		if !ok {
			return Command{}, fmt.Errorf("command: address range not valid for i")
		}
		j := skipSpace(s, i)
		text, next, hasText, err := tryParseStrLit(s, j)
		if err != nil {
			return Command{}, err
		}
		cmd := Command{Op: Insert, Offset: offset}
		if hasText {
			cmd.Text = text
			i = next
		}
		return finish(cmd, s, i)

	case 'a':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		offset, ok := toOffset(addrOut, true)
		if !ok {
			return Command{}, fmt.Errorf("command: address range not valid for a")
		}
		j := skipSpace(s, i)
		text, next, hasText, err := tryParseStrLit(s, j)
		if err != nil {
			return Command{}, err
		}
		cmd := Command{Op: Append, Offset: offset}
		if hasText {
			cmd.Text = text
			i = next
		}
		return finish(cmd, s, i)

	case 'x':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		offset, ok := toOffset(addrOut, true)
		if !ok {
			return Command{}, fmt.Errorf("command: address range not valid for x")
		}
		return finish(Command{Op: Paste, Offset: offset}, s, i)

	case 'z':
		addrOut := a
		if !gotAddr {
			addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
		}
		offset, ok := toOffset(addrOut, true)
		if !ok {
			return Command{}, fmt.Errorf("command: address range not valid for z")
		}
		j := skipSpace(s, i)
		start := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		cmd := Command{Op: Scroll, Offset: offset}
		if j > start {
			n, _ := strconv.Atoi(string(s[start:j]))
			cmd.Count = &n
			i = j
		}
		return finish(cmd, s, i)

	case 'e':
		i = skipSpace(s, i)
		src, next, err := parseSysPoint(s, i)
		if err != nil {
			return Command{}, err
		}
		return finish(Command{Op: Edit, EditSrc: src}, s, next)

	case 's':
		return parseSubst(s, i, a, gotAddr)

	case 'g', 'v':
		return parseGlobal(s, i, a, gotAddr, op == 'v')
	}

	return Command{}, fmt.Errorf("command: unhandled op %q", op)
}

func finish(cmd Command, s []rune, i int) (Command, error) {
	if err := requireConsumed(s, i); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

func requireConsumed(s []rune, i int) error {
	for i < len(s) {
		if s[i] != ' ' && s[i] != '\t' {
			return fmt.Errorf("command: unexpected trailing input %q", string(s[i:]))
		}
		i++
	}
	return nil
}

func toOffset(a addr.Address, present bool) (addr.Offset, bool) {
	if !present {
		return addr.Nil(addr.CurrentPoint()), true
	}
	if a.Range {
		return addr.Offset{}, false
	}
	return a.Start, true
}

func skipSpace(s []rune, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// parsePoint parses one Point. ok is false (with no error) when the input
// at i does not begin a Point at all.
func parsePoint(s []rune, i int) (addr.Point, int, bool, error) {
	if i >= len(s) {
		return addr.Point{}, i, false, nil
	}
	switch {
	case s[i] == '.':
		return addr.CurrentPoint(), i + 1, true, nil
	case s[i] == '$':
		return addr.LastPoint(), i + 1, true, nil
	case isDigit(s[i]):
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		n, _ := strconv.Atoi(string(s[i:j]))
		return addr.AbsPoint(n), j, true, nil
	case s[i] == '\'':
		if i+1 >= len(s) || !strings.ContainsRune(ValidMarks, s[i+1]) {
			return addr.Point{}, i, false, fmt.Errorf("command: expected mark character after '")
		}
		return addr.MarkPoint(s[i+1]), i + 2, true, nil
	case s[i] == '?':
		raw, next, err := scanDelimited(s, i+1, '?')
		if err != nil {
			return addr.Point{}, i, false, err
		}
		re, err := regexp.Compile(raw)
		if err != nil {
			return addr.Point{}, i, false, fmt.Errorf("command: bad regex %q: %w", raw, err)
		}
		return addr.RebPoint(re), next, true, nil
	case s[i] == '/':
		raw, next, err := scanDelimited(s, i+1, '/')
		if err != nil {
			return addr.Point{}, i, false, err
		}
		re, err := regexp.Compile(raw)
		if err != nil {
			return addr.Point{}, i, false, fmt.Errorf("command: bad regex %q: %w", raw, err)
		}
		return addr.RefPoint(re), next, true, nil
	default:
		return addr.Point{}, i, false, nil
	}
}

// scanDelimited reads runes from i up to (and consuming) the next
// unescaped delim, unescaping only "\<delim>" to a literal delim and
// passing every other backslash sequence through untouched so regexp
// escapes keep working. It never consumes `freEscapes`/`bdEscapes` as a
// validation set (regexp.Compile validates instead) — those tables exist
// in the original grammar purely to gate which chars may follow a
// backslash, which regexp.Compile already enforces indirectly.
func scanDelimited(s []rune, i int, delim rune) (string, int, error) {
	var buf strings.Builder
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			next := s[i+1]
			if next == delim {
				buf.WriteRune(delim)
			} else {
				buf.WriteRune('\\')
				buf.WriteRune(next)
			}
			i += 2
			continue
		}
		if c == delim {
			return buf.String(), i + 1, nil
		}
		buf.WriteRune(c)
		i++
	}
	return "", i, fmt.Errorf("command: unterminated %q-delimited regex", string(delim))
}

// parseOffset parses a Point optionally followed by a sign+digits pair,
// defaulting the point to Current when only the sign is present. ok is
// false when neither is present.
func parseOffset(s []rune, i int) (addr.Offset, int, bool, error) {
	p, next, gotPoint, err := parsePoint(s, i)
	if err != nil {
		return addr.Offset{}, i, false, err
	}
	if !gotPoint {
		next = i
	}

	signIdx := next
	hasSign := false
	var sign rune
	if signIdx < len(s) && (s[signIdx] == '+' || s[signIdx] == '-') {
		sign = s[signIdx]
		hasSign = true
		signIdx++
	}

	if !gotPoint && !hasSign {
		return addr.Offset{}, i, false, nil
	}

	point := p
	if !gotPoint {
		point = addr.CurrentPoint()
	}

	if !hasSign {
		return addr.Nil(point), next, true, nil
	}

	digStart := signIdx
	for signIdx < len(s) && isDigit(s[signIdx]) {
		signIdx++
	}
	mag := 1
	if signIdx > digStart {
		mag, _ = strconv.Atoi(string(s[digStart:signIdx]))
	}
	if sign == '+' {
		return addr.Relf(point, mag), signIdx, true, nil
	}
	return addr.Relb(point, mag), signIdx, true, nil
}

// parseAddress parses "%" (shorthand for 1,$), a single Offset, or two
// Offsets joined by "," (missing ends default to 1 and $) or ";" (missing
// start defaults to current, missing end to $).
func parseAddress(s []rune, i int) (addr.Address, int, bool, error) {
	if i < len(s) && s[i] == '%' {
		return addr.Span(addr.Nil(addr.AbsPoint(1)), addr.Nil(addr.LastPoint())), i + 1, true, nil
	}

	start, next, gotStart, err := parseOffset(s, i)
	if err != nil {
		return addr.Address{}, i, false, err
	}
	if !gotStart {
		next = i
	}

	if next >= len(s) || (s[next] != ',' && s[next] != ';') {
		if !gotStart {
			return addr.Address{}, i, false, nil
		}
		return addr.Line(start), next, true, nil
	}

	sep := s[next]
	next++
	end, next2, gotEnd, err := parseOffset(s, next)
	if err != nil {
		return addr.Address{}, i, false, err
	}
	if !gotEnd {
		next2 = next
	}

	defaultStart := addr.Nil(addr.AbsPoint(1))
	if sep == ';' {
		defaultStart = addr.Nil(addr.CurrentPoint())
	}
	st := start
	if !gotStart {
		st = defaultStart
	}
	en := end
	if !gotEnd {
		en = addr.Nil(addr.LastPoint())
	}
	return addr.Span(st, en), next2, true, nil
}

// parseShellCmd parses a leading "!" (bare Run / System) or "!!" (Repeat).
// It consumes to the end of the line, matching the grammar's Cmd::parse.
func parseShellCmd(s []rune, i int) (syspoint.Cmd, int, error) {
	if i >= len(s) || s[i] != '!' {
		return syspoint.Cmd{}, i, fmt.Errorf("command: expected !")
	}
	i++
	if i < len(s) && s[i] == '!' {
		return syspoint.Cmd{Kind: syspoint.Repeat}, i + 1, nil
	}
	expr := strings.TrimSpace(string(s[i:]))
	return syspoint.Cmd{Kind: syspoint.System, Expr: expr}, len(s), nil
}

// parseSysPoint parses a SysPoint: a shell command ("!..."), or — taking
// the rest of the line — an explicit path, or (if only blank remains) the
// Filename variant.
func parseSysPoint(s []rune, i int) (syspoint.SysPoint, int, error) {
	if i < len(s) && s[i] == '!' {
		cmd, next, err := parseShellCmd(s, i)
		if err != nil {
			return syspoint.SysPoint{}, i, err
		}
		return syspoint.Command(cmd), next, nil
	}
	rest := string(s[i:])
	if strings.TrimSpace(rest) == "" {
		return syspoint.Filename(), len(s), nil
	}
	return syspoint.File(rest), len(s), nil
}

// tryParseStrLit parses an optional quoted text literal: "…" or '…', with
// \n splitting the result into multiple lines, \\ as a literal backslash,
// and \<quote> as a literal quote character. hasText is false (no error)
// when i does not point at a quote character.
func tryParseStrLit(s []rune, i int) ([]string, int, bool, error) {
	if i >= len(s) || (s[i] != '"' && s[i] != '\'') {
		return nil, i, false, nil
	}
	end := s[i]
	i++
	var raw strings.Builder
	var lines []string
	for i < len(s) {
		c := s[i]
		if c == '\\' {
			if i+1 >= len(s) {
				return nil, i, false, fmt.Errorf("command: unterminated escape in text literal")
			}
			next := s[i+1]
			if next == 'n' {
				lines = append(lines, raw.String())
				raw.Reset()
				i += 2
				continue
			}
			if next == '\\' || next == end {
				raw.WriteRune(next)
				i += 2
				continue
			}
			return nil, i, false, fmt.Errorf("command: invalid escape \\%c in text literal", next)
		}
		if c == end {
			i++
			return append(lines, raw.String()), i, true, nil
		}
		raw.WriteRune(c)
		i++
	}
	return nil, i, false, fmt.Errorf("command: unterminated text literal")
}

// parseSubstFlags parses an order-independent combination of an optional
// leading "p", an optional occurrence spec ("g" for unlimited or a digit
// run for a cap; default 1 if absent), and an optional trailing "p".
func parseSubstFlags(s []rune, i int) (SubstFlags, int) {
	print1 := false
	if i < len(s) && s[i] == 'p' {
		print1 = true
		i++
	}

	occurrences := 1
	if i < len(s) && s[i] == 'g' {
		occurrences = 0
		i++
	} else {
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i > start {
			occurrences, _ = strconv.Atoi(string(s[start:i]))
		}
	}

	print2 := false
	if i < len(s) && s[i] == 'p' {
		print2 = true
		i++
	}

	return SubstFlags{Print: print1 || print2, Occurrences: occurrences}, i
}

// scanUntilSep scans like scanDelimited but the terminating sep is
// optional: if absent, it scans to end of input and reports found=false.
// When found, next points AT the sep (not past it) so the caller decides
// whether to consume it as a field separator.
func scanUntilSep(s []rune, i int, sep rune) (string, int, bool) {
	var buf strings.Builder
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			next := s[i+1]
			if next == sep {
				buf.WriteRune(sep)
			} else {
				buf.WriteRune('\\')
				buf.WriteRune(next)
			}
			i += 2
			continue
		}
		if c == sep {
			return buf.String(), i, true
		}
		buf.WriteRune(c)
		i++
	}
	return buf.String(), i, false
}

// parseSubst parses the "s" op's sep-RE-sep-PAT-sep-FLAGS grammar. A bare
// "s" with nothing following means "reuse regex, pattern, and flags". Each
// of the RE/PAT/FLAGS fields is itself optional: the command is still
// valid with only a RE given, or only a RE and PAT.
func parseSubst(s []rune, i int, a addr.Address, gotAddr bool) (Command, error) {
	addrOut := a
	if !gotAddr {
		addrOut = addr.Line(addr.Nil(addr.CurrentPoint()))
	}

	if i >= len(s) {
		return Command{Op: Subst, Addr: addrOut}, nil
	}

	sep := s[i]
	if !strings.ContainsRune("/^:?", sep) {
		return Command{}, fmt.Errorf("command: invalid substitute separator %q", sep)
	}
	i++

	reRaw, next, _ := scanUntilSep(s, i, sep)
	i = next

	var re *regexp.Regexp
	var err error
	if reRaw != "" {
		re, err = regexp.Compile(reRaw)
		if err != nil {
			return Command{}, fmt.Errorf("command: bad regex %q: %w", reRaw, err)
		}
	}

	var pat *pattern.Pat
	if i < len(s) && s[i] == sep {
		i++
		patRaw, next2, _ := scanUntilSep(s, i, sep)
		i = next2
		p, err := pattern.Parse(patRaw)
		if err != nil {
			return Command{}, err
		}
		pat = &p
	}

	var flags *SubstFlags
	if i < len(s) && s[i] == sep {
		i++
		f, next3 := parseSubstFlags(s, i)
		i = next3
		flags = &f
	}

	if err := requireConsumed(s, i); err != nil {
		return Command{}, err
	}
	return Command{Op: Subst, Addr: addrOut, Re: re, Pat: pat, Flags: flags}, nil
}

// parseGlobal parses the "g"/"v" op's /RE/ cmd-list grammar: a forward
// regex literal followed by one or more sub-commands separated by
// "\<newline>" (surrounding blanks ignored; blank parts are skipped).
func parseGlobal(s []rune, i int, a addr.Address, gotAddr bool, void bool) (Command, error) {
	if i >= len(s) || s[i] != '/' {
		return Command{}, fmt.Errorf("command: expected /RE/ after g or v")
	}
	reRaw, next, err := scanDelimited(s, i+1, '/')
	if err != nil {
		return Command{}, err
	}
	re, err := regexp.Compile(reRaw)
	if err != nil {
		return Command{}, fmt.Errorf("command: bad regex %q: %w", reRaw, err)
	}

	rest := string(s[next:])
	parts := splitCmdList(rest)
	cmds := make([]Command, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sub, err := ParseCommand(strings.TrimSpace(part))
		if err != nil {
			return Command{}, err
		}
		cmds = append(cmds, sub)
	}
	if len(cmds) == 0 {
		return Command{}, fmt.Errorf("command: %s requires at least one sub-command", opName(void))
	}

	addrOut := a
	if !gotAddr {
		addrOut = addr.Span(addr.Nil(addr.AbsPoint(1)), addr.Nil(addr.LastPoint()))
	}

	op := Global
	if void {
		op = Void
	}
	return Command{Op: op, Addr: addrOut, Re: re, Cmds: cmds}, nil
}

func opName(void bool) string {
	if void {
		return "v"
	}
	return "g"
}

// splitCmdList splits on a backslash immediately followed by a newline.
// Parts are returned untrimmed; parseGlobal trims and skips blank ones.
func splitCmdList(s string) []string {
	var parts []string
	for {
		idx := strings.Index(s, "\\\n")
		if idx < 0 {
			parts = append(parts, s)
			return parts
		}
		parts = append(parts, s[:idx])
		s = s[idx+2:]
	}
}
