package token_test

import (
	"testing"

	"github.com/FollowTheProcess/tapharness/token"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind token.Kind
		want string
	}{
		{token.KindVersion, "Version"},
		{token.KindPlan, "Plan"},
		{token.KindTest, "Test"},
		{token.KindComment, "Comment"},
		{token.KindBailout, "Bailout"},
		{token.KindYaml, "Yaml"},
		{token.KindUnknown, "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDirectiveString(t *testing.T) {
	if token.Todo.String() != "TODO" {
		t.Errorf("Todo.String() = %s, want TODO", token.Todo.String())
	}
	if token.Skip.String() != "SKIP" {
		t.Errorf("Skip.String() = %s, want SKIP", token.Skip.String())
	}
	if token.NoDirective.String() != "" {
		t.Errorf("NoDirective.String() = %s, want empty", token.NoDirective.String())
	}
}

func TestTokenVariants(t *testing.T) {
	v := token.NewVersion("TAP version 13", 13)
	if v.Type() != token.KindVersion || v.Raw() != "TAP version 13" || v.Number != 13 {
		t.Errorf("unexpected Version token: %+v", v)
	}

	p := token.NewPlan("1..5", 5, token.NoDirective, "")
	if p.Type() != token.KindPlan || p.Planned != 5 {
		t.Errorf("unexpected Plan token: %+v", p)
	}

	test := token.NewTest("not ok 2 - broken # TODO fix", false, 2, true, "broken", token.Todo, "fix")
	if test.Type() != token.KindTest || test.OK || test.Number != 2 || test.Directive != token.Todo {
		t.Errorf("unexpected Test token: %+v", test)
	}

	c := token.NewComment("# hello", "hello")
	if c.Type() != token.KindComment || c.Text != "hello" {
		t.Errorf("unexpected Comment token: %+v", c)
	}

	b := token.NewBailout("Bail out! db down", "db down")
	if b.Type() != token.KindBailout || b.Reason != "db down" {
		t.Errorf("unexpected Bailout token: %+v", b)
	}

	y := token.NewYaml("  ---\n  x: 1\n  ...", map[string]any{"x": 1})
	if y.Type() != token.KindYaml {
		t.Errorf("unexpected Yaml token: %+v", y)
	}

	u := token.NewUnknown("garbage")
	if u.Type() != token.KindUnknown {
		t.Errorf("unexpected Unknown token: %+v", u)
	}
}
