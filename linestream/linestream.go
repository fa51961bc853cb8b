// Package linestream implements the Line Stream: a lazy sequence of
// strings with one main capability, Next, plus a single line of pushback,
// shared by three concrete backings (an in-memory slice, a file, and a
// running process).
//
// Modelled as a tiny interface with a handful of
// interchangeable concrete constructors rather than one do-everything type.
package linestream

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/FollowTheProcess/tapharness/process"
)

// Stream is a lazy, forward-only sequence of lines with the trailing
// newline already stripped.
//
// Next returns the next line and true, or ("", false) once the stream is
// exhausted. After it first returns false, every subsequent call must also
// return false: Next never "comes back to life".
//
// Pushback returns one line to the front of the stream, so the very next
// Next() call yields it again instead of advancing. It exists so a caller
// that peeked ahead (the grammar package's embedded YAML block reader,
// checking whether a line still belongs to the block) can hand a
// non-matching line back rather than swallow it. Only one line of
// lookahead is ever pushed back at a time.
type Stream interface {
	Next() (string, bool)
	Pushback(line string)
}

// pushback is embedded in each concrete Stream to give it one line of
// lookahead buffering, shared across all three backings rather than
// reimplemented per type.
type pushback struct {
	line string
	has  bool
}

func (p *pushback) take() (string, bool) {
	if !p.has {
		return "", false
	}
	p.has = false
	line := p.line
	p.line = ""
	return line, true
}

func (p *pushback) Pushback(line string) {
	p.line = line
	p.has = true
}

// sliceStream is the array-backed Line Stream: finite, deterministic, cheap.
type sliceStream struct {
	pushback
	lines []string
	pos   int
}

// FromSlice builds a Stream over an already-materialised list of lines,
// useful for tests and for anything that already has TAP output in memory.
func FromSlice(lines []string) Stream {
	return &sliceStream{lines: lines}
}

func (s *sliceStream) Next() (string, bool) {
	if line, ok := s.take(); ok {
		return line, true
	}
	if s.pos >= len(s.lines) {
		return "", false
	}
	line := s.lines[s.pos]
	s.pos++
	return line, true
}

// fileStream is the file-backed Line Stream.
type fileStream struct {
	pushback
	file    *os.File
	scanner *bufio.Scanner
	done    bool
}

// FromFile opens path and returns a Stream over its lines, stripping
// trailing "\r\n" or "\n" as it goes. The caller is not responsible for
// closing anything: the file is closed automatically once the stream is
// exhausted or a read error occurs.
func FromFile(path string) (Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", path, err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &fileStream{file: f, scanner: scanner}, nil
}

func (s *fileStream) Next() (string, bool) {
	if line, ok := s.take(); ok {
		return line, true
	}
	if s.done {
		return "", false
	}
	if s.scanner.Scan() {
		return strings.TrimSuffix(s.scanner.Text(), "\r"), true
	}
	s.done = true
	s.file.Close()
	return "", false
}

// processStream is the process-backed Line Stream: its Next is a thin
// pass-through to process.Iterator.NextRaw, the only backing whose Next can
// block on something other than local I/O (a slow or hanging test script).
type processStream struct {
	pushback
	it *process.Iterator
}

// FromProcess wraps a running process.Iterator's stdout as a Stream, the
// third of this package's three backings.
func FromProcess(it *process.Iterator) Stream {
	return &processStream{it: it}
}

func (s *processStream) Next() (string, bool) {
	if line, ok := s.take(); ok {
		return line, true
	}
	return s.it.NextRaw()
}

// ExitCode and WaitStatus let parser.Parser pull the backing child
// process's final status automatically once this stream is exhausted
// (parser.exitStatusSource), without the caller having to call
// Parser.SetExitStatus itself in the common process-backed case. Only
// meaningful once Next has returned false.
func (s *processStream) ExitCode() int   { return s.it.ExitCode() }
func (s *processStream) WaitStatus() int { return s.it.WaitStatus() }
