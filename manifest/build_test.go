package manifest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/ardnew/codeblock/block"
)

func build(t *testing.T, src string, opts ...Option) (*Set, error) {
	t.Helper()

	set, err := load(t, src, opts...).Build(context.Background())
	if set == nil {
		t.Fatal("Build() returned a nil set")
	}

	return set, err
}

func TestBuild(t *testing.T) {
	set, err := build(t, guardSource)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	guard := block.NewBuilder().
		BeginControlFlow("if ($N > $L)", "count", uint64(10)).
		Statement("return $S", "too many").
		EndControlFlow().
		MustBuild()

	body := block.NewBuilder().
		AddFragment(guard).
		Statement("count++").
		MustBuild()

	for name, want := range map[string]*block.Fragment{"guard": guard, "body": body} {
		got, ok := set.Get(name)
		if !ok {
			t.Fatalf("Get(%s) not found", name)
		}

		if diff := cmp.Diff(want.Parts(), got.Parts()); diff != "" {
			t.Errorf("%s parts mismatch (-want +got):\n%s", name, diff)
		}

		if diff := cmp.Diff(want.Args(), got.Args()); diff != "" {
			t.Errorf("%s args mismatch (-want +got):\n%s", name, diff)
		}
	}

	if diff := cmp.Diff([]string{"guard", "body"}, set.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	var names []string
	for name := range set.All() {
		names = append(names, name)
	}

	if diff := cmp.Diff(set.Names(), names); diff != "" {
		t.Errorf("All() order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ForwardReference(t *testing.T) {
	src := `
fragments:
  outer:
    - add: "call($L)"
      args: ["fragment('inner')"]
    - embed: inner
  inner:
    - add: "$N"
      args: ["'x'"]
`
	set, err := build(t, src)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	outer, _ := set.Get("outer")
	inner, _ := set.Get("inner")

	args := outer.Args()
	if len(args) != 2 {
		t.Fatalf("outer args = %v, want 2", args)
	}

	nested, ok := args[0].(*block.Fragment)
	if !ok || !nested.Equal(inner) {
		t.Errorf("first arg = %#v, want the inner fragment", args[0])
	}

	if args[1] != "x" {
		t.Errorf("second arg = %#v, want embedded x", args[1])
	}

	if got := outer.Format(); got != "call($L)$N" {
		t.Errorf("Format() = %q", got)
	}
}

func TestBuild_ControlFlowSteps(t *testing.T) {
	src := `
fragments:
  chain:
    - begin: "if ($N)"
      args: ["'a'"]
    - next: "else if ($N)"
      args: ["'b'"]
    - next: "else"
    - end:
  loop:
    - begin: do
    - indent: 2
    - unindent: 2
    - end: "while ($N < $L)"
      args: ["'i'", "3"]
`
	set, err := build(t, src)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	chain, _ := set.Get("chain")

	wantChain := block.NewBuilder().
		BeginControlFlow("if ($N)", "a").
		NextControlFlow("else if ($N)", "b").
		NextControlFlow("else").
		EndControlFlow().
		MustBuild()

	if !chain.Equal(wantChain) {
		t.Errorf("chain = %q, want %q", chain.Format(), wantChain.Format())
	}

	loop, _ := set.Get("loop")

	wantLoop := block.NewBuilder().
		BeginControlFlow("do").
		Indent().Indent().Unindent().Unindent().
		EndControlFlowWith("while ($N < $L)", "i", 3).
		MustBuild()

	if !loop.Equal(wantLoop) {
		t.Errorf("loop = %q %v, want %q %v",
			loop.Format(), loop.Args(), wantLoop.Format(), wantLoop.Args())
	}
}

func TestBuild_Builtins(t *testing.T) {
	src := `
vars:
  greeting: hello
fragments:
  a:
    - add: "$S $S $S"
      args: ["greeting", "env('CODEBLOCK_TEST')", "mung.prefix('/usr/bin', '/opt/bin')"]
`
	set, err := build(t, src,
		WithEnviron([]string{"CODEBLOCK_TEST=value", "IGNORED"}),
		WithVars(map[string]any{"greeting": "hi"}),
	)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	a, _ := set.Get("a")
	args := a.Args()

	if args[0] != "hi" {
		t.Errorf("greeting = %#v, want override", args[0])
	}

	if args[1] != "value" {
		t.Errorf("env = %#v, want value", args[1])
	}

	path, _ := args[2].(string)
	if !strings.HasPrefix(path, "/opt/bin") || !strings.Contains(path, "/usr/bin") {
		t.Errorf("mung.prefix = %q", path)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  []error
		count int
		built []string
	}{
		{
			name:  "self embed",
			src:   "fragments:\n  a:\n    - embed: a\n  ok: []\n",
			want:  []error{ErrCycle},
			count: 1,
			built: []string{"ok"},
		},
		{
			name:  "embed cycle",
			src:   "fragments:\n  a:\n    - embed: b\n  b:\n    - embed: a\n",
			want:  []error{ErrCycle},
			count: 1,
		},
		{
			name: "expression cycle",
			src: "fragments:\n" +
				"  a:\n    - add: $L\n      args: [\"fragment('b')\"]\n" +
				"  b:\n    - embed: a\n",
			want:  []error{ErrCycle},
			count: 1,
		},
		{
			name:  "unknown embed",
			src:   "fragments:\n  a:\n    - embed: nope\n  b: [{add: x}]\n",
			want:  []error{ErrUnknownFragment},
			count: 1,
			built: []string{"b"},
		},
		{
			name:  "unknown fragment call",
			src:   "fragments:\n  a:\n    - add: $L\n      args: [\"fragment('nope')\"]\n",
			want:  []error{ErrUnknownFragment},
			count: 1,
		},
		{
			name: "dependency failure reported once",
			src: "fragments:\n" +
				"  bad:\n    - add: $S\n" +
				"  user:\n    - embed: bad\n" +
				"  caller:\n    - add: $L\n      args: [\"fragment('bad')\"]\n" +
				"  fine:\n    - add: ok\n",
			want:  []error{ErrBuild, block.ErrArityMismatch},
			count: 1,
			built: []string{"fine"},
		},
		{
			name:  "malformed format",
			src:   "fragments:\n  a:\n    - statement: \"x = $\"\n",
			want:  []error{ErrBuild, block.ErrMalformedTemplate},
			count: 1,
		},
		{
			name: "evaluation",
			src: "vars:\n  xs: [1]\n" +
				"fragments:\n  a:\n    - add: $L\n      args: ['xs[5]']\n",
			want:  []error{ErrExprEvaluate},
			count: 1,
		},
		{
			name: "independent failures",
			src: "fragments:\n" +
				"  a:\n    - add: $L\n" +
				"  b:\n    - embed: nope\n",
			want:  []error{ErrBuild, ErrUnknownFragment},
			count: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := build(t, tt.src)
			if err == nil {
				t.Fatal("expected error")
			}

			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("expected %v in %v", want, err)
				}
			}

			if errors.Is(err, ErrDependency) {
				t.Errorf("dependency failure reported: %v", err)
			}

			if got := len(multierr.Errors(err)); got != tt.count {
				t.Errorf("got %d errors, want %d: %v", got, tt.count, err)
			}

			if diff := cmp.Diff(tt.built, set.Names()); diff != "" {
				t.Errorf("built mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuild_CyclePath(t *testing.T) {
	src := "fragments:\n  a:\n    - embed: b\n  b:\n    - embed: c\n  c:\n    - embed: a\n"

	_, err := build(t, src)

	var e *block.Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *block.Error, got %T", err)
	}

	if v, _ := e.Attr("path"); v.String() != "a -> b -> c -> a" {
		t.Errorf("path = %q", v.String())
	}

	if v, _ := e.Attr("fragment"); v.String() != "c" {
		t.Errorf("fragment = %q, want c", v.String())
	}
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := load(t, guardSource).Build(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if set.Len() != 0 {
		t.Errorf("built %d fragments after cancel", set.Len())
	}
}

func TestBuild_Repeatable(t *testing.T) {
	m := load(t, guardSource)

	first, err := m.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	second, err := m.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for name, f := range first.All() {
		g, _ := second.Get(name)
		if !f.Equal(g) {
			t.Errorf("%s differs between builds", name)
		}
	}
}
