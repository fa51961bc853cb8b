package harness_test

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FollowTheProcess/tapharness/harness"
	"github.com/FollowTheProcess/tapharness/parser"
	"github.com/FollowTheProcess/tapharness/spool"
)

// recordingFormatter is a minimal harness.Formatter that just counts
// Results per test, enough to assert the harness drove every test to
// completion under each execution strategy.
type recordingFormatter struct {
	mu      sync.Mutex
	opened  []string
	results map[string]int
}

func newRecordingFormatter() *recordingFormatter {
	return &recordingFormatter{results: make(map[string]int)}
}

func (f *recordingFormatter) Prepare(names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, names...)
	return nil
}

func (f *recordingFormatter) Open(name string) harness.Session {
	return &recordingSession{formatter: f, name: name}
}

func (f *recordingFormatter) Summarize(harness.Summarizer) error { return nil }

type recordingSession struct {
	formatter *recordingFormatter
	name      string
}

func (s *recordingSession) Result(parser.Result) {
	s.formatter.mu.Lock()
	defer s.formatter.mu.Unlock()
	s.formatter.results[s.name]++
}

func (s *recordingSession) Close() {}

func writeTestScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
}

func requirePosix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fixture scripts require a posix shell")
	}
}

func newFixtureRoot(t *testing.T) string {
	t.Helper()
	requirePosix(t)
	dir := t.TempDir()
	writeTestScript(t, dir, "pass.t", "#!/bin/sh\necho '1..2'\necho 'ok 1 - one'\necho 'ok 2 - two'\n")
	writeTestScript(t, dir, "fail.t", "#!/bin/sh\necho '1..1'\necho 'not ok 1 - broken'\n")
	return dir
}

func TestRunSequential(t *testing.T) {
	dir := newFixtureRoot(t)
	formatter := newRecordingFormatter()

	h, err := harness.New(harness.Config{
		Root:  dir,
		Tests: []string{"*.t"},
		Jobs:  1,
		Formatter: formatter,
	})
	require.NoError(t, err)
	defer h.Close()

	agg, err := h.Run()
	require.NoError(t, err)

	require.True(t, agg.HasProblems())
	passSummary, ok := agg.Get("pass.t")
	require.True(t, ok)
	require.Equal(t, 2, passSummary.Passed)
	require.False(t, passSummary.HasProblems)

	failSummary, ok := agg.Get("fail.t")
	require.True(t, ok)
	require.Equal(t, 1, failSummary.Failed)
	require.True(t, failSummary.HasProblems)

	// The plan line is itself a Result, so each count is tests + 1.
	require.Equal(t, 3, formatter.results["pass.t"])
	require.Equal(t, 2, formatter.results["fail.t"])
}

func TestRunMultiplexed(t *testing.T) {
	dir := newFixtureRoot(t)
	formatter := newRecordingFormatter()

	h, err := harness.New(harness.Config{
		Root:      dir,
		Tests:     []string{"*.t"},
		Jobs:      4,
		Formatter: formatter,
	})
	require.NoError(t, err)
	defer h.Close()

	agg, err := h.Run()
	require.NoError(t, err)
	require.Len(t, agg.Names(), 2)
	require.True(t, agg.HasProblems())
}

func TestRunForkPool(t *testing.T) {
	dir := newFixtureRoot(t)
	formatter := newRecordingFormatter()

	h, err := harness.New(harness.Config{
		Root:      dir,
		Tests:     []string{"*.t"},
		Jobs:      4,
		Fork:      true,
		Formatter: formatter,
	})
	require.NoError(t, err)
	defer h.Close()

	agg, err := h.Run()
	require.NoError(t, err)
	require.Len(t, agg.Names(), 2)
	require.Equal(t, 3, formatter.results["pass.t"])
	require.Equal(t, 2, formatter.results["fail.t"])
}

func TestRunWritesSpoolFilesUnderEveryStrategy(t *testing.T) {
	cases := []struct {
		name string
		jobs int
		fork bool
	}{
		{"sequential", 1, false},
		{"multiplexed", 4, false},
		{"forkpool", 4, true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			dir := newFixtureRoot(t)
			spoolDir := t.TempDir()
			t.Setenv(spool.EnvVar, spoolDir)

			h, err := harness.New(harness.Config{
				Root:  dir,
				Tests: []string{"*.t"},
				Jobs:  tt.jobs,
				Fork:  tt.fork,
			})
			require.NoError(t, err)
			defer h.Close()

			_, err = h.Run()
			require.NoError(t, err)

			passContents, err := os.ReadFile(filepath.Join(spoolDir, "pass.t"))
			require.NoError(t, err)
			require.Equal(t, "1..2\nok 1 - one\nok 2 - two\n", string(passContents))

			failContents, err := os.ReadFile(filepath.Join(spoolDir, "fail.t"))
			require.NoError(t, err)
			require.Equal(t, "1..1\nnot ok 1 - broken\n", string(failContents))
		})
	}
}

func TestBailoutStopsRunImmediately(t *testing.T) {
	requirePosix(t)
	dir := t.TempDir()
	writeTestScript(t, dir, "bail.t", "#!/bin/sh\necho '1..2'\necho 'ok 1'\necho 'Bail out! database down'\n")

	h, err := harness.New(harness.Config{
		Root:  dir,
		Tests: []string{"*.t"},
		Jobs:  1,
	})
	require.NoError(t, err)
	defer h.Close()

	agg, err := h.Run()
	require.Error(t, err)
	require.Equal(t, 1, harness.ExitCode(agg, err))
}

func TestRunCallsTeardownPerTest(t *testing.T) {
	dir := newFixtureRoot(t)

	var mu sync.Mutex
	torndown := make(map[string]bool)

	h, err := harness.New(harness.Config{
		Root:  dir,
		Tests: []string{"*.t"},
		Jobs:  1,
		Teardown: func(argv []string) {
			mu.Lock()
			defer mu.Unlock()
			torndown[filepath.Base(argv[len(argv)-1])] = true
		},
	})
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Run()
	require.NoError(t, err)

	require.True(t, torndown["pass.t"])
	require.True(t, torndown["fail.t"])
}

func TestConfigValidation(t *testing.T) {
	_, err := harness.New(harness.Config{})
	require.Error(t, err)

	_, err = harness.New(harness.Config{Root: "."})
	require.Error(t, err)

	_, err = harness.New(harness.Config{Root: ".", Tests: []string{"*.t"}, Jobs: 2, Fork: false, Exec: "perl", Lib: []string{"lib"}})
	require.Error(t, err)
}
