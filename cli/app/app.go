// Package app implements the tapharness CLI's application logic; the cli
// package defers execution to the exported methods here.
//
// A struct holding the output streams and flag options, a one-time setup
// step (logger construction, .env discovery), and a Run entry point that
// dispatches on the parsed flags: discover and run TAP test scripts
// through a Harness.
package app

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/FollowTheProcess/msg"
	"github.com/fatih/color"
	"github.com/juju/ansiterm/tabwriter"

	"github.com/FollowTheProcess/tapharness/aggregator"
	"github.com/FollowTheProcess/tapharness/harness"
	"github.com/FollowTheProcess/tapharness/history"
	"github.com/FollowTheProcess/tapharness/iostream"
	"github.com/FollowTheProcess/tapharness/logger"
	"github.com/FollowTheProcess/tapharness/parser"
	"github.com/FollowTheProcess/tapharness/token"
)

// App represents the tapharness program. Its embedded IOStream provides
// Stdout/Stderr; tests build one with New over bytes.Buffers to capture
// output.
type App struct {
	iostream.IOStream
	Options *Options    // All the CLI flag options
	logger  logger.Logger
	printer msg.Printer // Prints user-facing status/success messages to stdout
}

// Options holds all the flag options for tapharness, at their zero values
// if the corresponding flag was not set.
type Options struct {
	Lib       []string // -I<path> include paths, repeatable
	Switches  []string // extra interpreter switches, repeatable
	Exec      string   // argv prefix; bypasses interpreter heuristics
	Merge     bool     // merge child stderr into stdout
	Jobs      int      // concurrency; 0 means "use default (1)"
	Fork      bool     // jobs>1 with fork uses the fork/worker-pool strategy
	Verbose   bool     // enable debug logging
	Quiet     bool     // suppress per-test progress output
	Color     bool     // force-enable coloured output
	HistoryDB string   // optional path to a run-history sqlite database
	DotEnv    string   // optional path to a .env file to load before running
}

// New creates and returns a new App writing to stdout/stderr.
func New(stdout, stderr io.Writer) *App {
	printer := msg.Default()
	printer.Stdout = stdout
	printer.Stderr = stderr
	return &App{
		IOStream: iostream.IOStream{Stdout: stdout, Stderr: stderr},
		Options:  &Options{},
		printer:  printer,
	}
}

// Run is the entry point to the tapharness program. args are glob patterns
// or explicit test file paths (relative to the current directory); all
// other configuration is via flags on Options.
func (a *App) Run(args []string) error {
	if err := a.setup(); err != nil {
		return err
	}
	defer a.logger.Sync() // nolint: errcheck

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = []string{"t/**/*.t", "**/*_test.t"}
	}

	cfg := harness.Config{
		Root:      cwd,
		Tests:     patterns,
		Lib:       a.Options.Lib,
		Switches:  a.Options.Switches,
		Exec:      a.Options.Exec,
		Merge:     a.Options.Merge,
		Jobs:      a.Options.Jobs,
		Fork:      a.Options.Fork,
		Verbose:   a.Options.Verbose,
		Quiet:     a.Options.Quiet,
		HistoryDB: a.Options.HistoryDB,
		DotEnv:    a.Options.DotEnv,
		Logger:    a.logger,
		Formatter: a,
		Stderr:    a.Stderr,
	}

	h, err := harness.New(cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	a.logger.Debug("Running tests matching %v in %s", patterns, cwd)
	agg, runErr := h.Run()

	if a.Options.HistoryDB != "" && agg != nil {
		if recErr := a.recordHistory(agg); recErr != nil {
			a.logger.Debug("could not record run history: %v", recErr)
		}
	}

	code := harness.ExitCode(agg, runErr)
	if code != 0 {
		if runErr != nil {
			return fmt.Errorf("%w", runErr)
		}
		return fmt.Errorf("one or more tests failed")
	}
	return nil
}

// recordHistory appends agg's totals to the configured history database.
func (a *App) recordHistory(agg *aggregator.Aggregator) error {
	store, err := history.Open(a.Options.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(agg, agg.StartedAt(), agg.StoppedAt())
}

// setup performs one-time initialise actions: building the logger and
// switching coloured output on or off according to Options.Color.
func (a *App) setup() error {
	level := a.Options.Verbose
	log, err := logger.NewZapLogger(level)
	if err != nil {
		return err
	}
	a.logger = log

	color.NoColor = !a.Options.Color

	return nil
}

// Prepare implements harness.Formatter: it prints how many test files are
// about to run, an "announce what's about to happen" shape.
func (a *App) Prepare(names []string) error {
	if a.Options.Quiet {
		return nil
	}
	a.printer.Infof("Running %d test file(s)", len(names))
	return nil
}

// Open implements harness.Formatter: it returns a per-test Session that
// prints a one-line summary once the test finishes.
func (a *App) Open(name string) harness.Session {
	return &consoleSession{app: a, name: name}
}

// Summarize implements harness.Formatter: it renders the final tabulated
// per-test report using a tabwriter-aligned table.
func (a *App) Summarize(summary harness.Summarizer) error {
	if a.Options.Quiet {
		return nil
	}
	writer := tabwriter.NewWriter(a.Stdout, 0, 8, 1, '\t', tabwriter.AlignRight)
	titleStyle := color.New(color.FgHiWhite, color.Bold)
	titleStyle.Fprintln(writer, "Test\tResult")

	names := append([]string(nil), summary.Names()...)
	sort.Strings(names)
	for _, name := range names {
		s, _ := summary.Get(name)
		result := "ok"
		if s.HasProblems {
			result = "FAIL"
		}
		fmt.Fprintf(writer, "%s\t%d/%d %s\n", name, s.Passed, s.TestsRun, result)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if summary.Description() != "Result: PASS" {
		resultStyle := color.New(color.FgRed, color.Bold)
		resultStyle.Fprintln(a.Stdout, summary.Description())
		return nil
	}
	a.printer.Good(summary.Description())
	return nil
}

// consoleSession is the per-test harness.Session the console formatter
// hands back from Open. It prints one line per not-ok Test result as it
// streams by, an "only say something when something's wrong" shape.
type consoleSession struct {
	app    *App
	name   string
	failed int
}

// Result implements harness.Session: it prints a line for any not-ok test
// result (TODO ones included), immediately, so a slow-running test's
// failures are visible before the run finishes.
func (s *consoleSession) Result(r parser.Result) {
	if s.app.Options.Quiet {
		return
	}
	t, ok := r.Token.(token.Test)
	if !ok {
		return
	}
	if t.OK {
		return
	}
	s.failed++
	style := color.New(color.FgRed)
	style.Fprintf(s.app.Stderr, "%s: not ok %d %s\n", s.name, t.Number, t.Description)
}

// Close implements harness.Session: it prints a one-line per-test summary
// once that test's Parser has reached end.
func (s *consoleSession) Close() {
	if s.app.Options.Quiet {
		return
	}
	if s.failed > 0 {
		style := color.New(color.FgRed)
		style.Fprintf(s.app.Stdout, "%s: done\n", s.name)
		return
	}
	s.app.printer.Goodf("%s: done", s.name)
}
