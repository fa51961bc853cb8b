package spool_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FollowTheProcess/tapharness/spool"
)

func TestDumpWritesVerbatimLines(t *testing.T) {
	dir := t.TempDir()
	s := spool.New(dir)

	lines := []string{"1..2", "ok 1 - one", "ok 2 - two"}
	require.NoError(t, s.Dump("pass.t", lines))

	got, err := os.ReadFile(filepath.Join(dir, "pass.t"))
	require.NoError(t, err)
	require.Equal(t, "1..2\nok 1 - one\nok 2 - two\n", string(got))
}

func TestDumpCreatesNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	s := spool.New(dir)

	require.NoError(t, s.Dump("t/deep/nested.t", []string{"1..0"}))

	_, err := os.Stat(filepath.Join(dir, "t", "deep", "nested.t"))
	require.NoError(t, err)
}

func TestFromEnvUnsetReturnsFalse(t *testing.T) {
	t.Setenv(spool.EnvVar, "")
	_, ok := spool.FromEnv()
	require.False(t, ok)
}

func TestFromEnvSetReturnsSpoolRootedAtValue(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(spool.EnvVar, dir)

	s, ok := spool.FromEnv()
	require.True(t, ok)
	require.NoError(t, s.Dump("fixture.t", []string{"ok"}))

	_, err := os.Stat(filepath.Join(dir, "fixture.t"))
	require.NoError(t, err)
}
