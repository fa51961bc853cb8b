package harness

import (
	"github.com/FollowTheProcess/tapharness/aggregator"
	"github.com/FollowTheProcess/tapharness/parser"
)

// Formatter is the pluggable console renderer, specified here only as the
// interface the harness drives: open a Session per test file, feed it
// Results as they arrive, and close it once that test's parser reaches
// end. The actual rendering (colour, verbosity, progress bars) lives
// entirely outside this module.
type Formatter interface {
	// Prepare is called once, before any test runs, with the full list of
	// test names the harness is about to execute.
	Prepare(names []string) error
	// Open returns a Session for name, called once per test immediately
	// before that test's Parser is driven.
	Open(name string) Session
	// Summarize is called once, after every test has finished, with the
	// finished Aggregator so the formatter can render a final report.
	Summarize(agg Summarizer) error
}

// Session is formatter-side state for a single test file's output stream.
type Session interface {
	// Result is called once per Result the test's Parser produces, in
	// source order.
	Result(r parser.Result)
	// Close is called once the test's Parser has reached end.
	Close()
}

// Summarizer is the read-only subset of aggregator.Aggregator a Formatter
// needs to render a final report, kept narrow so Formatter implementations
// don't need to import the aggregator package's mutating methods.
type Summarizer interface {
	Names() []string
	Description() string
	Get(name string) (aggregator.Summary, bool)
	Totals() aggregator.Summary
}

// nullFormatter is used when a Harness is built without one: every
// operation is a no-op, letting the harness run and aggregate silently
// (the common case for embedding tapharness in another program that only
// wants the Aggregator's totals).
type nullFormatter struct{}

func (nullFormatter) Prepare([]string) error     { return nil }
func (nullFormatter) Open(string) Session        { return nullSession{} }
func (nullFormatter) Summarize(Summarizer) error { return nil }

type nullSession struct{}

func (nullSession) Result(parser.Result) {}
func (nullSession) Close()               {}
