// Package harness implements the top-level orchestrator: it validates a
// Config, discovers or resolves the test files to run, dispatches to one
// of three execution strategies (sequential, cooperative multiplexer, or
// fork/worker-pool), drives a pluggable Formatter, and aggregates
// results, exiting with a fixed set of exit codes.
//
// Shaped as one configuration struct, validated once at startup, with
// ambient services (environment variables, .env loading via godotenv) set
// up before the real work begins.
package harness

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/FollowTheProcess/tapharness/logger"
	"github.com/FollowTheProcess/tapharness/parser"
	"github.com/FollowTheProcess/tapharness/process"
)

// Version is tapharness's own semver, exposed process-wide via
// HARNESS_VERSION.
const Version = "0.1.0"

// Config is the Go realisation of the harness configuration option
// table.
type Config struct {
	// Root is the directory test file patterns/paths are resolved against.
	Root string
	// Tests is either a list of glob patterns (e.g. "t/**/*.t") to
	// discover, or an explicit list of test file paths, depending on
	// ExplicitTests.
	Tests         []string
	ExplicitTests bool

	Lib      []string // -I<path> include paths passed to the spawned interpreter
	Switches []string // additional interpreter switches
	Exec     string   // argv prefix; bypasses interpreter heuristics entirely
	Merge    bool     // merge child stderr into stdout

	Jobs int  // concurrency; default 1
	Fork bool // jobs>1 with Fork true uses the fork/worker-pool strategy

	Formatter Formatter // injected formatter; defaults to a no-op

	Verbose bool // forwarded to the logger and, by convention, the Formatter
	Quiet   bool

	// Callbacks registers harness-level handlers (before_runtests,
	// made_parser, after_runtests).
	Callbacks map[string]HarnessHandler
	// ParserCallbacks registers per-parser handlers applied to every Parser
	// the harness builds (version, plan, test, comment, bailout, yaml,
	// unknown, ELSE, ALL).
	ParserCallbacks map[string]parser.Handler

	// HistoryDB is a path to a run-history SQLite database (SPEC_FULL.md
	// §12). Harness itself never reads or writes it; cli/app.App appends
	// the run's totals there after Run returns.
	HistoryDB string

	// DotEnv, when non-empty, is a path to a .env file loaded into the
	// process environment before the run starts.
	DotEnv string

	// Logger receives debug-level progress lines; defaults to a no-op
	// logger if nil.
	Logger logger.Logger

	// Stderr receives each spawned test's raw stderr lines when Merge is
	// false, forwarded verbatim to a diagnostic sink; defaults to
	// os.Stderr if nil.
	Stderr io.Writer

	// Teardown, if set, is called with a spawned test's argv once that
	// test's child process has been reaped, after every other test-level
	// bookkeeping (exit code, wait status) has already been recorded.
	// Threaded straight through to process.Config.Teardown by
	// processConfig.
	Teardown func(argv []string)
}

// validate checks Config's invariants, returning a *configError (never a
// bare error) on failure.
func (c *Config) validate() error {
	if c.Root == "" {
		return newConfigError("Root must be set")
	}
	if len(c.Tests) == 0 {
		return newConfigError("no test files or patterns given")
	}
	if c.Jobs < 0 {
		return newConfigError("jobs must be a positive integer, got %d", c.Jobs)
	}
	if c.Jobs == 0 {
		c.Jobs = 1
	}
	if c.Fork && c.Jobs <= 1 {
		return newConfigError("fork requires jobs > 1")
	}
	if c.Exec != "" && (len(c.Lib) > 0 || len(c.Switches) > 0) {
		return newConfigError("exec is mutually exclusive with lib/switches (exec is spawned verbatim)")
	}
	if c.Verbose && c.Quiet {
		return newConfigError("verbose and quiet are mutually exclusive")
	}
	return nil
}

// processConfig projects Config down to process.Config, the subset
// spawning one test actually needs.
func (c *Config) processConfig(stderrSink io.Writer) process.Config {
	return process.Config{
		Exec:     c.Exec,
		Lib:      c.Lib,
		Switches: c.Switches,
		Merge:    c.Merge,
		Stderr:   stderrSink,
		Teardown: c.Teardown,
	}
}

// setEnv sets the process-wide HARNESS_ACTIVE/HARNESS_VERSION variables,
// returning a restore func that clears them.
func setEnv() (restore func()) {
	os.Setenv("HARNESS_ACTIVE", "1")
	os.Setenv("HARNESS_VERSION", Version)
	return func() {
		os.Unsetenv("HARNESS_ACTIVE")
		os.Unsetenv("HARNESS_VERSION")
	}
}

// loadDotEnv loads path into the process environment if it is non-empty
// and the file exists; a path that does not exist is silently skipped.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("could not load .env file: %w", err)
	}
	return nil
}
