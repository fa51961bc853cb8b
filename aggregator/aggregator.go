// Package aggregator implements a name-keyed store of finished per-test
// summaries, run totals, and a one-line pass/fail/no-tests description.
//
// A simple name-keyed map
// with a deterministic, sorted String() rendering, generalised here from
// "task name → dependency hash" to "test file name → parser summary".
package aggregator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FollowTheProcess/tapharness/parser"
)

// Summary is the finalised statistics for one completed test file, the
// subset of parser.Parser's accessors the aggregator needs to keep once the
// parser itself has nothing left to emit.
type Summary struct {
	TestsRun    int
	Planned     int
	Passed      int
	Failed      int
	Skipped     int
	Todo        int
	TodoPassed  int
	ParseErrors []error
	Exit        int
	Wait        int
	IsGoodPlan  bool
	HasProblems bool
}

// summarize captures p's final state into a Summary.
func summarize(p *parser.Parser) Summary {
	return Summary{
		TestsRun:    p.TestsRun(),
		Planned:     p.PlannedTests(),
		Passed:      p.Passed(),
		Failed:      p.Failed(),
		Skipped:     p.Skipped(),
		Todo:        p.Todo(),
		TodoPassed:  p.TodoPassed(),
		ParseErrors: p.ParseErrors(),
		Exit:        p.Exit(),
		Wait:        p.Wait(),
		IsGoodPlan:  p.IsGoodPlan(),
		HasProblems: p.HasProblems(),
	}
}

// Aggregator collects per-test Summaries keyed by test name across one run.
type Aggregator struct {
	inner   map[string]Summary
	started time.Time
	stopped time.Time
	running bool
}

// New returns an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{inner: make(map[string]Summary)}
}

// Start records the run's wall-clock start time. Calling it twice resets
// the start time; there is no notion of a paused run.
func (a *Aggregator) Start() {
	a.started = now()
	a.running = true
}

// Stop records the run's wall-clock end time.
func (a *Aggregator) Stop() {
	a.stopped = now()
	a.running = false
}

// Elapsed returns the wall-clock duration between Start and Stop. Calling
// it before Stop returns the duration so far.
func (a *Aggregator) Elapsed() time.Duration {
	end := a.stopped
	if a.running {
		end = now()
	}
	return end.Sub(a.started)
}

// now is a seam so tests can avoid depending on real wall-clock time.
var now = time.Now

// StartedAt returns the run's recorded start time (zero value if Start was
// never called).
func (a *Aggregator) StartedAt() time.Time { return a.started }

// StoppedAt returns the run's recorded stop time (zero value if Stop was
// never called).
func (a *Aggregator) StoppedAt() time.Time { return a.stopped }

// Add records name's finished parser, finalising its statistics into a
// Summary. name must not already be present.
func (a *Aggregator) Add(name string, p *parser.Parser) {
	a.inner[name] = summarize(p)
}

// Names returns every recorded test name, sorted for deterministic output.
func (a *Aggregator) Names() []string {
	names := make([]string, 0, len(a.inner))
	for name := range a.inner {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the Summary recorded for name, if any.
func (a *Aggregator) Get(name string) (Summary, bool) {
	s, ok := a.inner[name]
	return s, ok
}

// Totals sums every recorded Summary into one.
func (a *Aggregator) Totals() Summary {
	var total Summary
	for _, s := range a.inner {
		total.TestsRun += s.TestsRun
		total.Planned += s.Planned
		total.Passed += s.Passed
		total.Failed += s.Failed
		total.Skipped += s.Skipped
		total.Todo += s.Todo
		total.TodoPassed += s.TodoPassed
		total.ParseErrors = append(total.ParseErrors, s.ParseErrors...)
		if s.Exit != 0 {
			total.Exit = s.Exit
		}
		if s.Wait != 0 {
			total.Wait = s.Wait
		}
	}
	total.IsGoodPlan = total.Failed == 0 && len(total.ParseErrors) == 0
	total.HasProblems = a.HasProblems()
	return total
}

// HasErrors reports whether any recorded test has parse errors.
func (a *Aggregator) HasErrors() bool {
	for _, s := range a.inner {
		if len(s.ParseErrors) > 0 {
			return true
		}
	}
	return false
}

// HasProblems reports whether any recorded test failed, parse-errored,
// exited non-zero, or terminated with a non-zero wait status.
func (a *Aggregator) HasProblems() bool {
	for _, s := range a.inner {
		if s.HasProblems {
			return true
		}
	}
	return false
}

// Description renders a one-line run summary: "Result: PASS",
// "Result: FAIL", or "Result: NOTESTS" when nothing was recorded.
func (a *Aggregator) Description() string {
	if len(a.inner) == 0 {
		return "Result: NOTESTS"
	}
	if a.HasProblems() {
		return "Result: FAIL"
	}
	return "Result: PASS"
}

// String renders every recorded name and its pass/fail counts, sorted by
// name, a deterministic-dump shape.
func (a *Aggregator) String() string {
	names := a.Names()
	lines := make([]string, 0, len(names))
	for _, name := range names {
		s := a.inner[name]
		lines = append(lines, fmt.Sprintf("%s\t%d/%d passed", name, s.Passed, s.TestsRun))
	}
	return strings.Join(lines, "\n")
}
