// Package parser drives a grammar.Grammar over a line source and emits
// Results, applying the TAP semantic rules (plan/test bookkeeping, bailout
// handling, TODO/SKIP counters, parse-error accumulation) one line at a
// time.
//
// Shaped as a struct wrapping a token source, a Next()-style iteration
// method, and named error types for each distinct malformed-input
// condition (parser/error.go's parseError family).
package parser

import (
	"github.com/FollowTheProcess/tapharness/grammar"
	"github.com/FollowTheProcess/tapharness/token"
)

// lineSource is the minimal capability a Parser needs from its backing
// stream: linestream.Stream and anything duck-type-compatible with it.
// Pushback is required so the grammar's embedded YAML block reader can
// return a line it pulled ahead of the parser back onto the stream.
type lineSource interface {
	Next() (string, bool)
	Pushback(line string)
}

// Result is what Next produces for a single consumed line.
type Result struct {
	Token    token.Token
	ParseErr error // non-nil if this specific line produced a fresh parse error
}

// Parser drives one Grammar over one line source, synchronously and
// single-threaded: a Parser is never safe for concurrent use by more than
// one goroutine.
type Parser struct {
	src     lineSource
	grammar *grammar.Grammar
	cb      *callbacks

	significant bool // true once a Plan, Test, Bailout or Unknown token has been seen

	planned       int
	planSeen      bool
	planSkipped   bool
	planExplain   string
	planAfterRun  bool // plan token arrived after at least one test
	testAfterPlan bool // a further test arrived after a mid-stream plan

	nextExpected int

	testsRun   int
	passed     int
	failed     int
	skipped    int
	todo       int
	todoPassed int

	lastWasTest bool // set by a Test, cleared only by an Unknown line; a Yaml token is legal only while set

	parseErrors []error

	bailoutSeen bool
	bailoutLine string

	exitCode   int
	waitStatus int

	finalized   bool
	isGoodPlan  bool
	hasProblems bool
}

// New builds a Parser reading from src, with a fresh grammar defaulting to
// TAP version 12.
func New(src lineSource) *Parser {
	return &Parser{
		src:          src,
		grammar:      grammar.New(),
		cb:           newCallbacks(),
		nextExpected: 1,
	}
}

// On registers fn for event, validated against the fixed accepted
// event-name set. Registering an unknown name is a registration-time error.
func (p *Parser) On(event string, fn Handler) error {
	return p.cb.register(event, fn)
}

// SetExitStatus records an externally obtained exit code and raw wait
// status for a Parser whose stream is not process-backed. A process-backed
// stream's status is read automatically when the stream reaches end and
// overrides anything set here. HasProblems is computed at end, so a call
// made after that does not change it.
func (p *Parser) SetExitStatus(exitCode, waitStatus int) {
	p.exitCode = exitCode
	p.waitStatus = waitStatus
}

// Next pulls one token, applies semantic rules, fires callbacks, and
// returns the Result. Returns (Result{}, false) once a bailout has been
// emitted or the underlying stream is exhausted.
func (p *Parser) Next() (Result, bool) {
	if p.bailoutSeen || p.finalized {
		// finalize is idempotent; this is the only place a bailed-out
		// stream ever reaches it, since a Bailout short-circuits every
		// later Next() call before the ok-false branch below.
		p.finalize()
		return Result{}, false
	}

	raw, ok := p.src.Next()
	if !ok {
		p.finalize()
		return Result{}, false
	}

	tok := p.grammar.Tokenize(raw, p.src)
	result := p.apply(tok)
	p.dispatch(result)
	return result, true
}

// apply mutates the parser's running state according to tok's kind and
// returns the Result that will be handed to callbacks and the caller.
func (p *Parser) apply(tok token.Token) Result {
	switch t := tok.(type) {
	case token.Version:
		if p.significant {
			// A Version line after any non-trivial token is demoted to
			// Unknown, not treated as a version switch.
			unknown := token.NewUnknown(t.Raw())
			return Result{Token: unknown}
		}
		if err := p.grammar.SetVersion(t.Number); err != nil {
			p.parseErrors = append(p.parseErrors, err)
			return Result{Token: t, ParseErr: err}
		}
		return Result{Token: t}

	case token.Plan:
		p.significant = true
		if p.planSeen {
			err := duplicatePlanError()
			p.parseErrors = append(p.parseErrors, err)
			return Result{Token: t, ParseErr: err}
		}
		p.planSeen = true
		p.planned = t.Planned
		if t.Directive == token.Skip {
			p.planSkipped = true
			p.planExplain = t.Explanation
			// SKIP with a non-zero planned count is accepted as is: no
			// parse error and no warning is recorded for it.
		}
		if p.testsRun > 0 {
			p.planAfterRun = true
		}
		return Result{Token: t}

	case token.Test:
		p.significant = true
		p.lastWasTest = true
		expected := p.nextExpected
		number := expected
		var parseErr error
		if t.HasNumber {
			number = t.Number
			if t.Number != expected {
				parseErr = outOfSequenceError(expected, t.Number)
				p.parseErrors = append(p.parseErrors, parseErr)
			}
		}
		p.nextExpected = number + 1
		p.testsRun++
		if p.planAfterRun {
			p.testAfterPlan = true
		}

		isTodo := t.Directive == token.Todo
		isSkip := t.Directive == token.Skip

		switch {
		case t.OK && !isTodo:
			p.passed++
		case !t.OK && isTodo:
			p.passed++
			p.todo++
		case t.OK && isTodo:
			p.passed++
			p.todo++
			p.todoPassed++
		default: // !t.OK && !isTodo
			p.failed++
		}
		if isSkip {
			p.skipped++
		}

		out := token.NewTest(t.Raw(), t.OK, number, true, t.Description, t.Directive, t.Explanation)
		return Result{Token: out, ParseErr: parseErr}

	case token.Bailout:
		p.significant = true
		p.bailoutSeen = true
		p.bailoutLine = t.Reason
		return Result{Token: t}

	case token.Yaml:
		if !p.lastWasTest {
			err := unexpectedYamlError()
			p.parseErrors = append(p.parseErrors, err)
			return Result{Token: t, ParseErr: err}
		}
		return Result{Token: t}

	case token.Comment:
		return Result{Token: t}

	default: // token.Unknown
		p.significant = true
		p.lastWasTest = false
		return Result{Token: t}
	}
}

// dispatch fires registered callbacks for result by event precedence:
// type-specific handler, then ELSE, then ALL.
func (p *Parser) dispatch(result Result) {
	event := eventName(result.Token.Type())
	p.cb.fire(event, result)
}

func eventName(k token.Kind) string {
	switch k {
	case token.KindVersion:
		return "version"
	case token.KindPlan:
		return "plan"
	case token.KindTest:
		return "test"
	case token.KindComment:
		return "comment"
	case token.KindBailout:
		return "bailout"
	case token.KindYaml:
		return "yaml"
	default:
		return "unknown"
	}
}

// exitStatusSource is implemented by a backing stream that wraps a real
// child process (linestream.FromProcess); finalize uses it to pull the
// process's exit/wait status automatically once the stream reaches end,
// so callers never have to remember to call SetExitStatus themselves in
// the common process-backed case.
type exitStatusSource interface {
	ExitCode() int
	WaitStatus() int
}

// finalize computes the derived state that only becomes knowable once the
// stream reaches EOF: missing/mismatched plan, mid-stream plan, exit status.
func (p *Parser) finalize() {
	if p.finalized {
		return
	}
	p.finalized = true

	if es, ok := p.src.(exitStatusSource); ok {
		p.exitCode = es.ExitCode()
		p.waitStatus = es.WaitStatus()
	}

	if !p.planSeen && p.testsRun > 0 {
		p.parseErrors = append(p.parseErrors, noPlanError())
	}
	if p.planSeen && p.planned != p.testsRun {
		p.parseErrors = append(p.parseErrors, planMismatchError(p.planned, p.testsRun))
	}
	if p.planAfterRun && p.testAfterPlan {
		p.parseErrors = append(p.parseErrors, planInMiddleError())
	}

	p.isGoodPlan = p.planSeen && p.planned == p.testsRun
	p.hasProblems = p.failed > 0 || len(p.parseErrors) > 0 || p.exitCode != 0 || p.waitStatus != 0 || p.bailoutSeen
}

// Accessors expose the running/finalized counters.

func (p *Parser) TestsRun() int       { return p.testsRun }
func (p *Parser) PlannedTests() int   { return p.planned }
func (p *Parser) Passed() int         { return p.passed }
func (p *Parser) Failed() int         { return p.failed }
func (p *Parser) Skipped() int        { return p.skipped }
func (p *Parser) Todo() int           { return p.todo }
func (p *Parser) TodoPassed() int     { return p.todoPassed }
func (p *Parser) ParseErrors() []error {
	return append([]error(nil), p.parseErrors...)
}
func (p *Parser) Exit() int        { return p.exitCode }
func (p *Parser) Wait() int        { return p.waitStatus }
func (p *Parser) Version() int     { return p.grammar.Version() }
func (p *Parser) HasProblems() bool {
	if !p.finalized {
		return p.failed > 0 || len(p.parseErrors) > 0
	}
	return p.hasProblems
}
func (p *Parser) IsGoodPlan() bool {
	if !p.finalized {
		return p.planSeen && p.planned == p.testsRun
	}
	return p.isGoodPlan
}

// SkipAll reports whether this stream declared `1..0` with a SKIP
// directive; callers should treat exit 0 as success in that case
// regardless of tests_run.
func (p *Parser) SkipAll() bool {
	return p.planSeen && p.planned == 0 && p.planSkipped
}

// SkipAllReason is the explanation attached to a skip-all plan, if any.
func (p *Parser) SkipAllReason() string {
	return p.planExplain
}

// BailoutReason returns the reason text from the Bailout that ended this
// parser's stream, or "" if no bailout occurred.
func (p *Parser) BailoutReason() string {
	return p.bailoutLine
}

// Bailed reports whether a Bailout has been seen.
func (p *Parser) Bailed() bool {
	return p.bailoutSeen
}
