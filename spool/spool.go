// Package spool implements TEST_HARNESS_DUMP_TAP behaviour: when the
// environment variable is set, each test's verbatim stdout lines are
// written to a file under the named root directory, one file per test.
//
// Direct rewrite of the cache package's path-resolution shape: resolve a
// path under a root, MkdirAll the parent, write/overwrite the file. There
// the key/value was a task name and a dependency hash; here it is a test
// name and the verbatim lines its process produced.
package spool

import (
	"os"
	"path/filepath"
)

// EnvVar is the environment variable controlling spool behaviour, renamed
// from the original PERL_TEST_HARNESS_DUMP_TAP.
const EnvVar = "TEST_HARNESS_DUMP_TAP"

// Spool writes one file per test, holding that test's verbatim stdout
// lines, under a root directory resolved from EnvVar.
type Spool struct {
	root string
}

// FromEnv returns a *Spool rooted at EnvVar's value, or (nil, false) if
// the variable is unset or empty.
func FromEnv() (*Spool, bool) {
	root := os.Getenv(EnvVar)
	if root == "" {
		return nil, false
	}
	return New(root), true
}

// New returns a Spool rooted at root directly, bypassing the environment.
func New(root string) *Spool {
	return &Spool{root: root}
}

// Writer opens (creating or truncating) the spool file for testName, after
// creating any parent directories it needs. The path is resolved by
// joining root with testName, preserving any subdirectory structure a test
// name like "t/deep/nested.t" implies.
func (s *Spool) Writer(testName string) (*os.File, error) {
	path := filepath.Join(s.root, testName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// Dump writes lines (each terminated with "\n") verbatim to the spool file
// for testName. It is the one-shot convenience form of Writer, used once a
// test's full line list is already in hand (the sequential and fork-pool
// harness strategies both drain a test to completion before aggregating).
func (s *Spool) Dump(testName string, lines []string) error {
	f, err := s.Writer(testName)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line); err != nil {
			return err
		}
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	return nil
}
