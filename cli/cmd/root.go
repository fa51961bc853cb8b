// Package cmd implements the tapharness CLI.
package cmd

import (
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/FollowTheProcess/tapharness/cli/app"
)

var (
	version   = "dev" // tapharness version, set at compile time by ldflags
	commit    = ""    // tapharness version's commit hash, set at compile time by ldflags
	buildDate = ""    // build timestamp, set at compile time by ldflags
	builtBy   = ""    // build agent, set at compile time by ldflags
)

// BuildRootCmd builds and returns the root tapharness CLI command.
func BuildRootCmd() *cobra.Command {
	// Note: options must be a pointer so flags are propagated to the App struct.
	options := &app.Options{}
	a := app.New(os.Stdout, os.Stderr)
	a.Options = options

	rootCmd := &cobra.Command{
		Use:           "tapharness [tests]...",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "A harness for running Test Anything Protocol test scripts",
		Long: heredoc.Doc(`

		A harness for running Test Anything Protocol test scripts.

		tapharness discovers test scripts, spawns each one as a child process,
		parses its TAP output, and aggregates the results into a single pass/
		fail report.

		Arguments are glob patterns (e.g. "t/**/*.t") or explicit test file
		paths relative to the current directory; with no arguments, the
		default patterns are used.
		`),
		Example: heredoc.Doc(`

		# Run every test under ./t
		$ tapharness

		# Run a specific set of test files
		$ tapharness t/login.t t/logout.t

		# Run with 4 concurrent workers
		$ tapharness --jobs 4 t/**/*.t

		# Run with 4 concurrent workers using the fork/worker-pool strategy
		$ tapharness --jobs 4 --fork t/**/*.t

		# Run interpreted test scripts with an explicit interpreter
		$ tapharness --exec "perl -Ilib" t/**/*.t
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Run(args)
		},
	}

	// Attach the flags.
	flags := rootCmd.Flags()
	flags.StringSliceVarP(&options.Lib, "lib", "I", nil, "Add a library include path, repeatable.")
	flags.StringSliceVar(&options.Switches, "switches", nil, "Extra interpreter switches, repeatable.")
	flags.StringVar(&options.Exec, "exec", "", "Argv prefix used to run each test; bypasses interpreter heuristics.")
	flags.BoolVar(&options.Merge, "merge", false, "Merge each test's stderr into its stdout.")
	flags.IntVarP(&options.Jobs, "jobs", "j", 1, "Number of tests to run concurrently.")
	flags.BoolVar(&options.Fork, "fork", false, "Use the fork/worker-pool strategy (requires --jobs > 1).")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "Enable verbose debug logging.")
	flags.BoolVarP(&options.Quiet, "quiet", "q", false, "Suppress per-test progress output.")
	flags.BoolVar(&options.Color, "color", false, "Force-enable coloured output.")
	flags.StringVar(&options.HistoryDB, "history-db", "", "Path to a run-history SQLite database.")
	flags.StringVar(&options.DotEnv, "dotenv", "", "Path to a .env file to load before running.")

	// Set our custom version and usage templates.
	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetVersionTemplate(versionTemplate)

	return rootCmd
}
