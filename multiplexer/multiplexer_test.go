package multiplexer_test

import (
	"testing"

	"github.com/FollowTheProcess/tapharness/linestream"
	"github.com/FollowTheProcess/tapharness/multiplexer"
	"github.com/FollowTheProcess/tapharness/parser"
)

func linesFor(name string) []string {
	return []string{
		"1..2",
		"ok 1 - " + name + " first",
		"ok 2 - " + name + " second",
	}
}

// TestPerParserOrderPreserved checks an invariant of fan-in execution:
// across any execution, the sequence of Results from a single parser
// equals the sequence that parser would produce in isolation.
func TestPerParserOrderPreserved(t *testing.T) {
	names := []string{"alpha", "bravo", "charlie"}

	want := make(map[string][]string)
	for _, name := range names {
		p := parser.New(linestream.FromSlice(linesFor(name)))
		var seq []string
		for {
			r, ok := p.Next()
			if !ok {
				break
			}
			seq = append(seq, r.Token.Raw())
		}
		want[name] = seq
	}

	m := multiplexer.New()
	parsers := make(map[*parser.Parser]string)
	for _, name := range names {
		p := parser.New(linestream.FromSlice(linesFor(name)))
		parsers[p] = name
		m.Add(p, name)
	}

	got := make(map[string][]string)
	for {
		ev, ok := m.Next()
		if !ok {
			break
		}
		name := ev.Stash.(string)
		if ev.Done {
			continue
		}
		got[name] = append(got[name], ev.Result.Token.Raw())
	}

	for _, name := range names {
		if len(got[name]) != len(want[name]) {
			t.Fatalf("%s: got %v, want %v", name, got[name], want[name])
		}
		for i := range want[name] {
			if got[name][i] != want[name][i] {
				t.Errorf("%s[%d] = %q, want %q", name, i, got[name][i], want[name][i])
			}
		}
	}
}

func TestMultiplexerRemovesFinishedParsers(t *testing.T) {
	m := multiplexer.New()
	p := parser.New(linestream.FromSlice([]string{"1..1", "ok 1"}))
	m.Add(p, "only")

	if m.Parsers() != 1 {
		t.Fatalf("Parsers() = %d, want 1", m.Parsers())
	}

	sawDone := false
	for {
		ev, ok := m.Next()
		if !ok {
			break
		}
		if ev.Done {
			sawDone = true
		}
	}
	if !sawDone {
		t.Error("expected a Done event once the parser's stream ended")
	}
	if m.Parsers() != 0 {
		t.Errorf("Parsers() after end = %d, want 0", m.Parsers())
	}
}

func TestMultiplexerEmpty(t *testing.T) {
	m := multiplexer.New()
	if _, ok := m.Next(); ok {
		t.Error("Next() on an empty multiplexer should return end")
	}
}
