package harness

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/FollowTheProcess/tapharness/aggregator"
	"github.com/FollowTheProcess/tapharness/forkpool"
	"github.com/FollowTheProcess/tapharness/linestream"
	"github.com/FollowTheProcess/tapharness/logger"
	"github.com/FollowTheProcess/tapharness/multiplexer"
	"github.com/FollowTheProcess/tapharness/parser"
	"github.com/FollowTheProcess/tapharness/process"
	"github.com/FollowTheProcess/tapharness/spool"
)

// nullLogger discards every call, used when Config.Logger is nil.
type nullLogger struct{}

func (nullLogger) Sync() error          { return nil }
func (nullLogger) Debug(string, ...any) {}

// Harness is the top-level orchestrator.
type Harness struct {
	cfg        Config
	log        logger.Logger
	formatter  Formatter
	cb         *harnessCallbacks
	restoreEnv func()
	spool      *spool.Spool
	stderr     io.Writer
}

// New validates cfg, performs the ambient one-time setup (env vars, .env
// loading, logger construction), and returns a ready-to-run Harness.
// Configuration errors are raised synchronously.
func New(cfg Config) (*Harness, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := loadDotEnv(cfg.DotEnv); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = nullLogger{}
	}

	formatter := cfg.Formatter
	if formatter == nil {
		formatter = nullFormatter{}
	}

	cb := newHarnessCallbacks()
	for event, fn := range cfg.Callbacks {
		if err := cb.On(event, fn); err != nil {
			return nil, newConfigError("%s", err)
		}
	}

	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	h := &Harness{
		cfg:        cfg,
		log:        log,
		formatter:  formatter,
		cb:         cb,
		restoreEnv: setEnv(),
		stderr:     stderr,
	}
	if sp, ok := spool.FromEnv(); ok {
		h.spool = sp
	}
	return h, nil
}

// Close releases the HARNESS_ACTIVE/HARNESS_VERSION environment variables
// set at construction.
func (h *Harness) Close() {
	if h.restoreEnv != nil {
		h.restoreEnv()
		h.restoreEnv = nil
	}
	h.log.Sync()
}

// resolveTests turns cfg.Tests into a concrete, sorted list of test file
// paths, either via glob discovery or explicit-name resolution
// (harness.Discover).
func (h *Harness) resolveTests() ([]string, error) {
	if h.cfg.ExplicitTests {
		return resolveExplicit(h.cfg.Root, h.cfg.Tests)
	}
	return Discover(h.cfg.Root, h.cfg.Tests)
}

// makeParser builds a fresh Parser over testName, spawning its test script
// as a child process and registering every Config.ParserCallbacks handler.
// It returns the Parser and the underlying process.Iterator so the caller
// can read exit/wait status once the Parser reaches end.
func (h *Harness) makeParser(testName string) (*parser.Parser, *process.Iterator, error) {
	path := filepath.Join(h.cfg.Root, testName)
	pcfg := h.cfg.processConfig(h.stderr)
	it, err := process.Spawn(pcfg, path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not spawn %q: %w", testName, err)
	}

	p := parser.New(linestream.FromProcess(it))
	for event, fn := range h.cfg.ParserCallbacks {
		if err := p.On(event, fn); err != nil {
			return nil, nil, newConfigError("%s", err)
		}
	}
	h.cb.fireMadeParser(p)
	return p, it, nil
}

// drive pulls p to end through session, dumping to the spool if
// configured. p's exit/wait status is picked up automatically at EOF from
// its process-backed stream (parser.exitStatusSource); it is unused here
// except to keep the caller's iterator alive for the duration of the drive.
func (h *Harness) drive(testName string, p *parser.Parser, _ *process.Iterator, session Session) {
	var spooled []string
	for {
		result, ok := p.Next()
		if !ok {
			break
		}
		session.Result(result)
		if h.spool != nil {
			spooled = append(spooled, result.Token.Raw())
		}
	}
	session.Close()
	if h.spool != nil {
		if err := h.spool.Dump(testName, spooled); err != nil {
			h.log.Debug("could not write spool file for %s: %v", testName, err)
		}
	}
}

// Run executes every resolved test file using the strategy cfg.Jobs/cfg.Fork
// select, and returns the finished Aggregator. On a Bailout from any
// parser, the running strategy stops (the fork-pool strategy only once
// every job has finished) and Run returns a *bailoutError, after stopping
// the Aggregator, firing after_runtests and summarizing, so the caller can
// exit with code 1.
func (h *Harness) Run() (*aggregator.Aggregator, error) {
	names, err := h.resolveTests()
	if err != nil {
		return nil, err
	}

	if err := h.formatter.Prepare(names); err != nil {
		return nil, err
	}

	agg := aggregator.New()
	h.cb.fireBeforeRuntests(agg)
	agg.Start()

	var runErr error
	switch {
	case h.cfg.Jobs <= 1:
		runErr = h.runSequential(names, agg)
	case h.cfg.Fork:
		runErr = h.runForkPool(names, agg)
	default:
		runErr = h.runMultiplexed(names, agg)
	}

	agg.Stop()
	h.cb.fireAfterRuntests(agg)

	if err := h.formatter.Summarize(agg); err != nil && runErr == nil {
		runErr = err
	}

	return agg, runErr
}

// bailoutError signals the "terminate the entire run with exit code 1
// immediately" rule.
type bailoutError struct {
	testName string
	reason   string
}

func (e *bailoutError) Error() string {
	return fmt.Sprintf("%s: Bail out! %s", e.testName, e.reason)
}

// runSequential implements the jobs=1 strategy: one test at a time, in
// order.
func (h *Harness) runSequential(names []string, agg *aggregator.Aggregator) error {
	for _, name := range names {
		p, it, err := h.makeParser(name)
		if err != nil {
			return err
		}
		session := h.formatter.Open(name)
		h.drive(name, p, it, session)
		agg.Add(name, p)
		if p.Bailed() {
			return &bailoutError{testName: name, reason: p.BailoutReason()}
		}
	}
	return nil
}

// runMultiplexed implements the jobs>1, fork=false strategy: register
// every test's Parser with a multiplexer.Multiplexer and drain its
// fanned-in event stream.
func (h *Harness) runMultiplexed(names []string, agg *aggregator.Aggregator) error {
	mux := multiplexer.New()
	sessions := make(map[*parser.Parser]Session, len(names))
	spooled := make(map[*parser.Parser][]string, len(names))

	for _, name := range names {
		p, _, err := h.makeParser(name)
		if err != nil {
			return err
		}
		sessions[p] = h.formatter.Open(name)
		mux.Add(p, name)
	}

	for {
		ev, ok := mux.Next()
		if !ok {
			break
		}
		name, _ := ev.Stash.(string)
		if ev.Done {
			// ev.Parser's exit/wait status was already picked up
			// automatically at EOF from its process-backed stream.
			sessions[ev.Parser].Close()
			agg.Add(name, ev.Parser)
			if h.spool != nil {
				if err := h.spool.Dump(name, spooled[ev.Parser]); err != nil {
					h.log.Debug("could not write spool file for %s: %v", name, err)
				}
			}
			continue
		}
		sessions[ev.Parser].Result(ev.Result)
		if h.spool != nil {
			spooled[ev.Parser] = append(spooled[ev.Parser], ev.Result.Token.Raw())
		}
		if ev.Parser.Bailed() {
			// On a Bailout Result from any parser, terminate the entire run
			// with exit code 1 immediately: return without waiting for the
			// rest of the multiplexer's live parsers to drain. There is no
			// cancellation machinery in the core beyond this immediate-exit
			// contract.
			return &bailoutError{testName: name, reason: ev.Parser.BailoutReason()}
		}
	}
	return nil
}

// forkSession pairs the session opened for one fork-pool job with the
// Results and stdout lines its worker has collected so far, so all are
// available to the parent once the job's Summary comes back.
type forkSession struct {
	session Session
	results []parser.Result
	spooled []string
}

// runForkPool implements the jobs>1, fork=true strategy via forkpool.Run:
// each worker drives one Parser to completion independently, collecting
// each Result as it's produced, and the parent replays a test's Results to
// its Session, closes it and aggregates, in completion order, with no
// real-time interleaving across tests.
func (h *Harness) runForkPool(names []string, agg *aggregator.Aggregator) error {
	jobs := make([]forkpool.Job, 0, len(names))
	sessions := make(map[string]*forkSession, len(names))

	for _, name := range names {
		name := name
		fs := &forkSession{session: h.formatter.Open(name)}
		sessions[name] = fs
		jobs = append(jobs, forkpool.Job{
			Name: name,
			Build: func() (*parser.Parser, error) {
				p, _, err := h.makeParser(name)
				return p, err
			},
			OnResult: func(r parser.Result) {
				fs.results = append(fs.results, r)
				if h.spool != nil {
					fs.spooled = append(fs.spooled, r.Token.Raw())
				}
			},
		})
	}

	summaries := forkpool.Run(context.Background(), jobs, h.cfg.Jobs)

	var bailout *bailoutError
	for _, s := range summaries {
		fs := sessions[s.Name]
		if s.Err != nil {
			h.log.Debug("job %s failed: %v", s.Name, s.Err)
			continue
		}
		// s.Parser's exit/wait status was already picked up automatically
		// at EOF from its process-backed stream.
		for _, r := range fs.results {
			fs.session.Result(r)
		}
		fs.session.Close()
		agg.Add(s.Name, s.Parser)
		if h.spool != nil {
			if err := h.spool.Dump(s.Name, fs.spooled); err != nil {
				h.log.Debug("could not write spool file for %s: %v", s.Name, err)
			}
		}
		if s.Parser.Bailed() && bailout == nil {
			bailout = &bailoutError{testName: s.Name, reason: s.Parser.BailoutReason()}
		}
	}
	if bailout != nil {
		return bailout
	}
	return nil
}

// ExitCode computes the harness exit code from a finished run: 0 if every
// test passed, 1 if any test failed/bailed/parse-errored, 255 for an
// internal (non-configuration) error.
func ExitCode(agg *aggregator.Aggregator, runErr error) int {
	if runErr != nil {
		if _, ok := runErr.(*bailoutError); ok {
			return 1
		}
		return 255
	}
	if agg.HasProblems() {
		return 1
	}
	return 0
}
