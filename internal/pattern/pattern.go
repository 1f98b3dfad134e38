// Package pattern implements the substitute replacement grammar: a Pat is
// either the Replay marker (reuse the last successful pattern) or a
// sequence of expansion atoms (literal text, whole match, positional
// capture).
package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ExpansionKind discriminates the variants of Expansion.
type ExpansionKind int

const (
	// Lit is literal text, copied verbatim.
	Lit ExpansionKind = iota
	// Whole expands to the entire match (capture group 0).
	Whole
	// Pos expands to a specific numbered capture group (1-9).
	Pos
)

// Expansion is one atom of a non-replay Pat.
type Expansion struct {
	Kind ExpansionKind
	Lit  string // valid when Kind == Lit
	N    int    // valid when Kind == Pos
}

// Pat is either the replay marker or a sequence of expansion atoms. Replay
// is a terminal value; it never combines with atoms.
type Pat struct {
	Replay bool
	Atoms  []Expansion
}

// ReplayPat returns the replay marker.
func ReplayPat() Pat { return Pat{Replay: true} }

// Parse reads a pattern string into a Pat following the grammar: "%" alone
// is Replay; otherwise a sequence over literal text, "&" (Whole), "\d" for
// d in 0-9 (Pos(d), though only 1-9 appear in practice), "\\" (literal
// backslash), "\%" (literal percent), "\&" (literal ampersand), and any
// other character is literal.
func Parse(s string) (Pat, error) {
	if s == "%" {
		return ReplayPat(), nil
	}

	var atoms []Expansion
	var lit strings.Builder
	flushLit := func() {
		if lit.Len() > 0 {
			atoms = append(atoms, Expansion{Kind: Lit, Lit: lit.String()})
			lit.Reset()
		}
	}

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '&':
			flushLit()
			atoms = append(atoms, Expansion{Kind: Whole})
		case '\\':
			if i+1 >= len(runes) {
				return Pat{}, fmt.Errorf("pattern: dangling backslash at end of %q", s)
			}
			next := runes[i+1]
			i++
			switch {
			case next >= '0' && next <= '9':
				n, _ := strconv.Atoi(string(next))
				flushLit()
				atoms = append(atoms, Expansion{Kind: Pos, N: n})
			case next == '\\':
				lit.WriteRune('\\')
			case next == '%':
				lit.WriteRune('%')
			case next == '&':
				lit.WriteRune('&')
			default:
				return Pat{}, fmt.Errorf("pattern: unrecognized escape \\%c in %q", next, s)
			}
		default:
			lit.WriteRune(c)
		}
	}
	flushLit()
	return Pat{Atoms: atoms}, nil
}

// Expand concatenates the pattern's atoms using the match's captures.
// captures[0] is the whole match; captures[i] is group i. Expand panics if
// called on a Replay pattern or if Compatible(regex) does not hold for the
// regex that produced captures — callers must check Compatible first.
func (p Pat) Expand(captures []string) string {
	if p.Replay {
		panic("pattern: Expand called on a Replay pattern")
	}
	var buf strings.Builder
	for _, atom := range p.Atoms {
		switch atom.Kind {
		case Lit:
			buf.WriteString(atom.Lit)
		case Whole:
			buf.WriteString(captures[0])
		case Pos:
			buf.WriteString(captures[atom.N])
		}
	}
	return buf.String()
}

// Compatible reports whether Expand is safe to call against matches
// produced by re: false iff any Pos(i) atom in the pattern exceeds the
// regex's capture count.
func (p Pat) Compatible(re *regexp.Regexp) bool {
	if p.Replay {
		return true
	}
	maxPos := 0
	for _, atom := range p.Atoms {
		if atom.Kind == Pos && atom.N > maxPos {
			maxPos = atom.N
		}
	}
	return re.NumSubexp() >= maxPos
}
