// Package grammar implements a versioned mapping from TAP line-kind to
// (regex, handler), producing typed token.Token values.
//
// The regex shapes are grounded on a reference tap13 parser's
// (versionLine, bailOutLine, testLine, testPlanDeclaration, diagnostic,
// yamlStart) patterns, generalised into a per-version dispatch table
// instead of that parser's single hard-coded state machine.
package grammar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FollowTheProcess/tapharness/token"
)

// lineSource is the minimal capability the embedded yaml block reader needs
// from whatever backs this Grammar: the ability to pull one more raw line,
// and to hand one back if it turns out not to belong to the block.
// linestream.Stream satisfies this without grammar needing to import it.
type lineSource interface {
	Next() (string, bool)
	Pushback(line string)
}

var (
	versionRe   = regexp.MustCompile(`(?i)^TAP\s+version\s+(\d+)\s*$`)
	planRe      = regexp.MustCompile(`(?i)^1\.\.(\d+)(?:\s*#\s*(SKIP)\b(.*))?$`)
	testRe      = regexp.MustCompile(`^(not ok|ok)\b\s*(\d+)?\s*(.*)$`)
	commentRe   = regexp.MustCompile(`^#(.*)$`)
	bailoutRe   = regexp.MustCompile(`^Bail out!\s*(.*)$`)
	yamlStartRe = regexp.MustCompile(`^(\s+)(---.*)$`)
)

// Kind of TAP syntax version table currently active.
const (
	V12 = 12
	V13 = 13
)

// Grammar tokenizes individual TAP lines according to the active version's
// table: v12 has {version, plan, test, comment, bailout}, v13 adds
// {yaml}.
type Grammar struct {
	version int
}

// New returns a Grammar defaulting to TAP version 12, the implicit,
// unversioned default.
func New() *Grammar {
	return &Grammar{version: V12}
}

// Version reports the currently active syntax version.
func (g *Grammar) Version() int {
	return g.version
}

// SetVersion switches the active grammar table. Anything lower than 12
// is unsupported and this call raises synchronously; 12 is the implicit
// default and needs no explicit switch, but is accepted.
func (g *Grammar) SetVersion(version int) error {
	if version < 12 {
		return fmt.Errorf("unsupported syntax version: %d", version)
	}
	g.version = version
	return nil
}

// Tokenize classifies one raw line into a token.Token. src is consulted
// only when the line opens an embedded YAML block and the active version
// is 13 or above; it is nil-safe to pass nil when the caller knows no
// yaml block can legally appear (e.g. version 12 streams).
func (g *Grammar) Tokenize(raw string, src lineSource) token.Token {
	if m := versionRe.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return token.NewUnknown(raw)
		}
		return token.NewVersion(raw, n)
	}

	if m := planRe.FindStringSubmatch(raw); m != nil {
		planned, err := strconv.Atoi(m[1])
		if err != nil {
			return token.NewUnknown(raw)
		}
		directive := token.NoDirective
		explanation := ""
		if m[2] != "" {
			directive = token.Skip
			explanation = strings.TrimSpace(m[3])
		}
		return token.NewPlan(raw, planned, directive, explanation)
	}

	if m := testRe.FindStringSubmatch(raw); m != nil {
		ok := m[1] == "ok"
		hasNumber := m[2] != ""
		number := 0
		if hasNumber {
			n, err := strconv.Atoi(m[2])
			if err == nil {
				number = n
			} else {
				hasNumber = false
			}
		}
		description, directive, explanation := splitDirective(m[3])
		return token.NewTest(raw, ok, number, hasNumber, description, directive, explanation)
	}

	if g.version >= V13 {
		if m := yamlStartRe.FindStringSubmatch(raw); m != nil {
			return g.readYamlBlock(raw, m[1], src)
		}
	}

	if m := commentRe.FindStringSubmatch(raw); m != nil {
		return token.NewComment(raw, strings.TrimSpace(m[1]))
	}

	if m := bailoutRe.FindStringSubmatch(raw); m != nil {
		return token.NewBailout(raw, strings.TrimSpace(m[1]))
	}

	return token.NewUnknown(raw)
}

// splitDirective pulls a trailing, unescaped "# SKIP|TODO explanation" off
// a test description, honouring "\#" escaping (an escaped hash is not a
// directive marker and is unescaped to a literal '#' in the description).
func splitDirective(rest string) (description string, directive token.Directive, explanation string) {
	// Walk rest looking for an unescaped '#'.
	idx := -1
	for i := 0; i < len(rest); i++ {
		if rest[i] != '#' {
			continue
		}
		if i > 0 && rest[i-1] == '\\' {
			continue
		}
		idx = i
		break
	}

	unescape := func(s string) string {
		return strings.ReplaceAll(s, `\#`, "#")
	}

	if idx == -1 {
		return strings.TrimSpace(unescape(rest)), token.NoDirective, ""
	}

	description = strings.TrimSpace(unescape(rest[:idx]))
	tail := strings.TrimSpace(rest[idx+1:])

	fields := strings.SplitN(tail, " ", 2)
	word := strings.ToUpper(fields[0])
	switch word {
	case "SKIP":
		directive = token.Skip
	case "TODO":
		directive = token.Todo
	default:
		// Not a recognised directive word: the whole thing is incidental
		// comment text on the test line, not a directive.
		return strings.TrimSpace(unescape(rest)), token.NoDirective, ""
	}
	if len(fields) > 1 {
		explanation = strings.TrimSpace(fields[1])
	}
	return description, directive, explanation
}
