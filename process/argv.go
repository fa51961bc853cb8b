package process

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"
	"mvdan.cc/sh/v3/shell"
)

// SplitExec splits a harness `exec` config string into an argv vector,
// honouring shell-style quoting: turning one human-written command string
// into argv.
func SplitExec(command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("could not split exec command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("exec command %q is empty", command)
	}
	return argv, nil
}

// ShebangArgv reads path's first line and, if it is a shebang, tokenizes
// the interpreter line into argv words using a real POSIX shell word
// splitter (mvdan.cc/sh/v3/shell.Fields), which additionally expands any
// $VAR references in that line from the current environment.
// This dependency is
// repurposed from running a whole interpreted script to parsing one
// shebang line into an interpreter argv prefix.
//
// If the file has no shebang, ShebangArgv returns (nil, nil): the caller
// should fall back to its own interpreter heuristics.
func ShebangArgv(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return nil, nil
	}
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "#!") {
		return nil, nil
	}

	interpreterLine := strings.TrimSpace(strings.TrimPrefix(line, "#!"))
	fields, err := shell.Fields(interpreterLine, nil)
	if err != nil {
		return nil, fmt.Errorf("could not parse shebang line %q: %w", line, err)
	}
	return fields, nil
}

// BuildArgv constructs the full argv for running a single test file,
// applying the `exec`/`lib`/`switches` configuration:
//
//   - if exec is set, it is spawned verbatim with the test name appended
//     (no interpreter heuristics at all);
//   - otherwise the script's shebang line (if any) supplies the
//     interpreter, `lib` entries become `-I<path>` switches appended after
//     the interpreter and before `switches`, and the test path is appended
//     last.
func BuildArgv(cfg Config, testFile string) ([]string, error) {
	if cfg.Exec != "" {
		argv, err := SplitExec(cfg.Exec)
		if err != nil {
			return nil, err
		}
		return append(argv, testFile), nil
	}

	argv, err := ShebangArgv(testFile)
	if err != nil {
		return nil, err
	}
	if argv == nil {
		// No shebang to interpret the file with; run it directly and
		// executably. lib/switches have no interpreter to attach to.
		return []string{testFile}, nil
	}

	for _, path := range cfg.Lib {
		argv = append(argv, "-I"+path)
	}
	argv = append(argv, dedupeSwitches(cfg.Switches)...)
	argv = append(argv, testFile)
	return argv, nil
}

// dedupeSwitches collapses duplicate switches, preserving first
// occurrence.
func dedupeSwitches(switches []string) []string {
	seen := make(map[string]bool, len(switches))
	out := make([]string, 0, len(switches))
	for _, s := range switches {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
