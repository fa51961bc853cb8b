package grammar

import (
	"strings"

	"github.com/FollowTheProcess/tapharness/token"
	"gopkg.in/yaml.v3"
)

// readYamlBlock implements the embedded block-document reader.
//
// Shaped as a reader that consumes further input from the backing stream
// until a terminator condition is met, accumulating raw text as it goes.
// The terminator is a "..." line, or a line whose leading whitespace no
// longer matches the opening marker's prefix; running out of input also
// ends the block, and no error is reported for it.
//
// openLine is the full raw "  ---" line already matched by yamlStartRe;
// prefix is its leading whitespace, captured by the caller so the decision
// of "does this continuation line belong to the block" lives in one place.
func (g *Grammar) readYamlBlock(openLine, prefix string, src lineSource) token.Token {
	var rawLines []string
	var bodyLines []string
	rawLines = append(rawLines, openLine)

	for {
		line, ok := src.Next()
		if !ok {
			// Premature EOF: treat what we gathered as the whole document.
			// A line not matching the prefix terminates the block, and EOF
			// is just another non-matching terminator, not a fatal error
			// at this layer.
			break
		}
		if !strings.HasPrefix(line, prefix) {
			// This line belongs to whatever comes after the block, not to
			// the block itself (the common case being a TAP stream that
			// never closes with an explicit "..." terminator). Hand it
			// back to src so the next Tokenize call sees it fresh instead
			// of it being swallowed into this token's raw text.
			src.Pushback(line)
			break
		}
		tail := strings.TrimPrefix(line, prefix)
		rawLines = append(rawLines, line)
		if strings.TrimSpace(tail) == "..." {
			break
		}
		bodyLines = append(bodyLines, tail)
	}

	raw := strings.Join(rawLines, "\n")
	body := strings.Join(bodyLines, "\n")

	var payload any
	// Drop the opening "---" marker itself; yaml.v3 is happy to parse a
	// bare document without it, and this keeps the decoded value tree a
	// plain mapping/sequence/scalar instead of a document wrapper.
	_ = yaml.Unmarshal([]byte(body), &payload)

	return token.NewYaml(raw, payload)
}
