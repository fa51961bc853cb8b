// Package token declares the typed tokens produced by the TAP grammar.
//
// A Token is a small closed set of variants (Version, Plan, Test, Comment,
// Bailout, Yaml, Unknown), modelled the same way a typed AST Node and
// ast.NodeType are: an embedded Kind provides Type(), and each concrete
// struct carries the fields that variant needs. Every Token also carries
// the raw source line(s) it was produced from, for diagnostics and for the
// round-trip property tests rely on.
package token

import "fmt"

// Kind identifies which TAP grammar production a Token came from.
type Kind int

//go:generate stringer -type=Kind -linecomment
const (
	KindVersion Kind = iota // Version
	KindPlan                // Plan
	KindTest                // Test
	KindComment             // Comment
	KindBailout             // Bailout
	KindYaml                // Yaml
	KindUnknown             // Unknown
)

// Directive is a post-description annotation on a Plan or Test line.
type Directive int

const (
	NoDirective Directive = iota
	Todo
	Skip
)

func (d Directive) String() string {
	switch d {
	case Todo:
		return "TODO"
	case Skip:
		return "SKIP"
	default:
		return ""
	}
}

// Token is the interface every TAP token variant implements.
type Token interface {
	// Type returns the Kind of this token.
	Type() Kind
	// Raw returns the raw source line(s) this token was parsed from.
	Raw() string
}

// base is embedded by every concrete Token variant, the same way
// NodeType is embedded by AST nodes.
type base struct {
	kind Kind
	raw  string
}

func (b base) Type() Kind   { return b.kind }
func (b base) Raw() string  { return b.raw }
func (b base) String() string {
	return fmt.Sprintf("%s(%q)", b.kind, b.raw)
}

// Version is `TAP version N`.
type Version struct {
	base
	Number int
}

// NewVersion builds a Version token.
func NewVersion(raw string, number int) Version {
	return Version{base: base{kind: KindVersion, raw: raw}, Number: number}
}

// Plan is `1..N` with an optional SKIP directive and explanation.
type Plan struct {
	base
	Planned     int
	Directive   Directive
	Explanation string
}

// NewPlan builds a Plan token.
func NewPlan(raw string, planned int, directive Directive, explanation string) Plan {
	return Plan{base: base{kind: KindPlan, raw: raw}, Planned: planned, Directive: directive, Explanation: explanation}
}

// Test is an `ok`/`not ok` result line.
type Test struct {
	base
	OK          bool
	Number      int  // 0 if the line did not declare a number
	HasNumber   bool
	Description string
	Directive   Directive
	Explanation string
}

// NewTest builds a Test token.
func NewTest(raw string, ok bool, number int, hasNumber bool, description string, directive Directive, explanation string) Test {
	return Test{
		base:        base{kind: KindTest, raw: raw},
		OK:          ok,
		Number:      number,
		HasNumber:   hasNumber,
		Description: description,
		Directive:   directive,
		Explanation: explanation,
	}
}

// Comment is a `#...` line outside of a test result's trailing directive.
type Comment struct {
	base
	Text string
}

// NewComment builds a Comment token.
func NewComment(raw, text string) Comment {
	return Comment{base: base{kind: KindComment, raw: raw}, Text: text}
}

// Bailout is `Bail out! <reason>`.
type Bailout struct {
	base
	Reason string
}

// NewBailout builds a Bailout token.
func NewBailout(raw, reason string) Bailout {
	return Bailout{base: base{kind: KindBailout, raw: raw}, Reason: reason}
}

// Yaml is an embedded structured diagnostic block.
type Yaml struct {
	base
	Payload any
}

// NewYaml builds a Yaml token.
func NewYaml(raw string, payload any) Yaml {
	return Yaml{base: base{kind: KindYaml, raw: raw}, Payload: payload}
}

// Unknown is a line that matched none of the grammar's productions.
type Unknown struct {
	base
}

// NewUnknown builds an Unknown token.
func NewUnknown(raw string) Unknown {
	return Unknown{base: base{kind: KindUnknown, raw: raw}}
}
