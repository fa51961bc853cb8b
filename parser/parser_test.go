package parser_test

import (
	"testing"

	"github.com/FollowTheProcess/tapharness/linestream"
	"github.com/FollowTheProcess/tapharness/parser"
	"github.com/FollowTheProcess/tapharness/token"
)

func drain(t *testing.T, p *parser.Parser) []parser.Result {
	t.Helper()
	var results []parser.Result
	for {
		r, ok := p.Next()
		if !ok {
			break
		}
		results = append(results, r)
	}
	return results
}

// S1 — simple pass.
func TestS1SimplePass(t *testing.T) {
	src := linestream.FromSlice([]string{"1..1", "ok 1 - first"})
	p := parser.New(src)
	drain(t, p)

	if p.TestsRun() != 1 || p.Passed() != 1 || p.Failed() != 0 {
		t.Fatalf("got tests_run=%d passed=%d failed=%d", p.TestsRun(), p.Passed(), p.Failed())
	}
	if p.Exit() != 0 {
		t.Errorf("Exit() = %d, want 0", p.Exit())
	}
	if !p.IsGoodPlan() {
		t.Error("IsGoodPlan() = false, want true")
	}
	if p.HasProblems() {
		t.Error("HasProblems() = true, want false")
	}
}

// S2 — todo and skip.
func TestS2TodoAndSkip(t *testing.T) {
	src := linestream.FromSlice([]string{
		"1..3",
		"ok 1",
		"not ok 2 - broken # TODO needs fix",
		"ok 3 # SKIP no platform",
	})
	p := parser.New(src)
	drain(t, p)

	if p.Passed() != 3 {
		t.Errorf("Passed() = %d, want 3", p.Passed())
	}
	if p.Todo() != 1 {
		t.Errorf("Todo() = %d, want 1", p.Todo())
	}
	if p.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", p.Skipped())
	}
	if p.TodoPassed() != 0 {
		t.Errorf("TodoPassed() = %d, want 0", p.TodoPassed())
	}
	if p.Failed() != 0 {
		t.Errorf("Failed() = %d, want 0", p.Failed())
	}
}

// S3 — out of order with trailing plan.
func TestS3OutOfOrderTrailingPlan(t *testing.T) {
	src := linestream.FromSlice([]string{"ok 1", "ok 3", "1..2"})
	p := parser.New(src)
	drain(t, p)

	found := false
	for _, err := range p.ParseErrors() {
		if err.Error() == "tests out of sequence: expected 2, got 3" {
			found = true
		}
	}
	if !found {
		t.Errorf("ParseErrors() = %v, want an out-of-sequence error", p.ParseErrors())
	}
	if !p.IsGoodPlan() {
		t.Error("IsGoodPlan() = false, want true (counts agree)")
	}
	if !p.HasProblems() {
		t.Error("HasProblems() = false, want true (parse errors present)")
	}
}

// S4 — bail out mid-run.
func TestS4BailoutMidRun(t *testing.T) {
	src := linestream.FromSlice([]string{"1..5", "ok 1", "Bail out! database down", "ok 2"})
	p := parser.New(src)
	results := drain(t, p)

	last := results[len(results)-1]
	bailout, ok := last.Token.(token.Bailout)
	if !ok {
		t.Fatalf("last result token = %T, want token.Bailout", last.Token)
	}
	if bailout.Reason != "database down" {
		t.Errorf("Reason = %q, want %q", bailout.Reason, "database down")
	}
	if p.TestsRun() != 1 {
		t.Errorf("TestsRun() = %d, want 1", p.TestsRun())
	}
	if _, ok := p.Next(); ok {
		t.Error("Next() after bailout should return end")
	}
	if !p.Bailed() {
		t.Error("Bailed() = false, want true")
	}
	if !p.HasProblems() {
		t.Error("HasProblems() = false, want true (a bailed-out stream is always a problem)")
	}
	if p.IsGoodPlan() {
		t.Error("IsGoodPlan() = true, want false (planned 5, ran 1 before bailing)")
	}
}

// S5 — bonus TODO.
func TestS5BonusTodo(t *testing.T) {
	src := linestream.FromSlice([]string{"1..1", "ok 1 - works now # TODO fix race"})
	p := parser.New(src)
	drain(t, p)

	if p.Passed() != 1 || p.Todo() != 1 || p.TodoPassed() != 1 {
		t.Errorf("got passed=%d todo=%d todo_passed=%d", p.Passed(), p.Todo(), p.TodoPassed())
	}
}

// S6 — duplicate plan.
func TestS6DuplicatePlan(t *testing.T) {
	src := linestream.FromSlice([]string{"1..2", "ok 1", "1..2", "ok 2"})
	p := parser.New(src)
	drain(t, p)

	found := false
	for _, err := range p.ParseErrors() {
		if err.Error() == "More than one plan found in TAP output" {
			found = true
		}
	}
	if !found {
		t.Errorf("ParseErrors() = %v, want duplicate plan error", p.ParseErrors())
	}
	if !p.HasProblems() {
		t.Error("HasProblems() = false, want true")
	}
}

func TestNoPlanFound(t *testing.T) {
	src := linestream.FromSlice([]string{"ok 1"})
	p := parser.New(src)
	drain(t, p)

	found := false
	for _, err := range p.ParseErrors() {
		if err.Error() == "No plan found in TAP output" {
			found = true
		}
	}
	if !found {
		t.Errorf("ParseErrors() = %v, want no-plan error", p.ParseErrors())
	}
}

func TestVersionAfterSignificantTokenIsUnknown(t *testing.T) {
	src := linestream.FromSlice([]string{"ok 1", "TAP version 13"})
	p := parser.New(src)
	results := drain(t, p)

	if _, ok := results[1].Token.(token.Unknown); !ok {
		t.Fatalf("second result = %T, want token.Unknown", results[1].Token)
	}
}

func TestUnexpectedYaml(t *testing.T) {
	src := linestream.FromSlice([]string{
		"TAP version 13",
		"# a comment",
		"  ---",
		"  message: orphaned",
		"  ...",
	})
	p := parser.New(src)
	results := drain(t, p)

	last := results[len(results)-1]
	if last.ParseErr == nil || last.ParseErr.Error() != "Unexpected structured diagnostic" {
		t.Errorf("ParseErr = %v, want unexpected-diagnostic error", last.ParseErr)
	}
}

func TestYamlBlockWithoutExplicitTerminatorDoesNotSwallowNextLine(t *testing.T) {
	src := linestream.FromSlice([]string{
		"TAP version 13",
		"1..2",
		"not ok 1",
		"  ---",
		"  message: diag",
		"ok 2",
	})
	p := parser.New(src)
	results := drain(t, p)

	var tests []token.Test
	for _, r := range results {
		if tt, ok := r.Token.(token.Test); ok {
			tests = append(tests, tt)
		}
	}
	if len(tests) != 2 {
		t.Fatalf("got %d token.Test results, want 2 (yaml block swallowed the second test line)", len(tests))
	}
	if tests[1].Number != 2 || !tests[1].OK {
		t.Errorf("second test = %+v, want ok 2", tests[1])
	}
	if p.TestsRun() != 2 {
		t.Errorf("TestsRun() = %d, want 2", p.TestsRun())
	}
	if !p.IsGoodPlan() {
		t.Errorf("IsGoodPlan() = false, want true (planned 2, ran 2)")
	}
}

func TestCallbackPrecedence(t *testing.T) {
	src := linestream.FromSlice([]string{"1..1", "ok 1"})
	p := parser.New(src)

	var testFired, elseFired, allFired int
	if err := p.On("test", func(parser.Result) { testFired++ }); err != nil {
		t.Fatal(err)
	}
	if err := p.On("ELSE", func(parser.Result) { elseFired++ }); err != nil {
		t.Fatal(err)
	}
	if err := p.On("ALL", func(parser.Result) { allFired++ }); err != nil {
		t.Fatal(err)
	}
	drain(t, p)

	if testFired != 1 {
		t.Errorf("testFired = %d, want 1", testFired)
	}
	if elseFired != 1 {
		// plan has no specific handler registered, so ELSE should catch it
		t.Errorf("elseFired = %d, want 1 (the plan line)", elseFired)
	}
	if allFired != 2 {
		t.Errorf("allFired = %d, want 2 (every line)", allFired)
	}
}

func TestOnRejectsUnknownEvent(t *testing.T) {
	p := parser.New(linestream.FromSlice(nil))
	if err := p.On("bogus", func(parser.Result) {}); err == nil {
		t.Fatal("expected an error registering an unknown event name")
	}
}

func TestSkipAll(t *testing.T) {
	src := linestream.FromSlice([]string{"1..0 # SKIP no network"})
	p := parser.New(src)
	drain(t, p)

	if !p.SkipAll() {
		t.Error("SkipAll() = false, want true")
	}
	if p.SkipAllReason() != "no network" {
		t.Errorf("SkipAllReason() = %q, want %q", p.SkipAllReason(), "no network")
	}
}
