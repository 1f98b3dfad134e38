package pattern

import (
	"regexp"
	"testing"
)

func TestParseReplay(t *testing.T) {
	p, err := Parse("%")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.Replay {
		t.Errorf("Parse(%%) should be Replay")
	}
}

func TestParseLiteralPercentIsNotReplay(t *testing.T) {
	p, err := Parse("a%b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Replay {
		t.Errorf("a%%b should not be Replay")
	}
	if got := p.Expand([]string{"a%b"}); got != "a%b" {
		t.Errorf("Expand = %q, want %q", got, "a%b")
	}
}

func TestExpandWholeAndPos(t *testing.T) {
	p, err := Parse(`[&]-\1`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := p.Expand([]string{"foobar", "foo"})
	if got != "[foobar]-foo" {
		t.Errorf("Expand = %q, want %q", got, "[foobar]-foo")
	}
}

func TestExpandEscapes(t *testing.T) {
	p, err := Parse(`\\\%\&`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := p.Expand([]string{"x"}); got != `\%&` {
		t.Errorf("Expand = %q, want %q", got, `\%&`)
	}
}

func TestCompatible(t *testing.T) {
	re := regexp.MustCompile(`(a)(b)`)
	p, err := Parse(`\1\2`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.Compatible(re) {
		t.Errorf("expected compatible")
	}

	p2, err := Parse(`\3`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p2.Compatible(re) {
		t.Errorf("expected incompatible for over-indexed capture")
	}
}

func TestReplayCompatibleAlwaysTrue(t *testing.T) {
	re := regexp.MustCompile(`a`)
	if !ReplayPat().Compatible(re) {
		t.Errorf("Replay should always be Compatible")
	}
}
