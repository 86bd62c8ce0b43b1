package manifest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/codeblock/block"
)

func TestManifest_Evaluate(t *testing.T) {
	m := New(WithVars(map[string]any{
		"limit": 2,
		"xs":    []any{1},
	}))

	tests := []struct {
		name    string
		src     string
		want    any
		wantErr error
	}{
		{name: "var", src: "limit + 1", want: 3},
		{name: "list", src: `[limit, "a"]`, want: []any{2, "a"}},
		{name: "builtin", src: `mung.prefix("b", "a")`, want: mungPrefix("b", "a")},
		{name: "compile", src: "limit +", wantErr: ErrExprCompile},
		{name: "evaluate", src: "xs[5]", wantErr: ErrExprEvaluate},
		{name: "unknown fragment", src: `fragment("nope")`, wantErr: ErrUnknownFragment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Evaluate(context.Background(), tt.src)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Evaluate(%q) error = %v, want %v", tt.src, err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.src, err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Evaluate(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}
		})
	}
}

func TestManifest_Evaluate_Fragment(t *testing.T) {
	m := load(t, guardSource)

	set, err := m.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	got, err := m.Evaluate(context.Background(), `fragment("body")`)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}

	f, ok := got.(*block.Fragment)
	if !ok {
		t.Fatalf("Evaluate() = %T, want *block.Fragment", got)
	}

	if want, _ := set.Get("body"); !f.Equal(want) {
		t.Errorf("Evaluate() = %q, want %q", f, want)
	}
}

func TestManifest_Evaluate_BrokenFragment(t *testing.T) {
	m := load(t, `
fragments:
  bad:
    - add: "$Q"
`)

	_, err := m.Evaluate(context.Background(), `fragment("bad")`)
	if !errors.Is(err, ErrBuild) {
		t.Errorf("Evaluate() error = %v, want %v", err, ErrBuild)
	}

	if !errors.Is(err, block.ErrMalformedTemplate) {
		t.Errorf("Evaluate() error = %v, want %v", err, block.ErrMalformedTemplate)
	}
}

func TestNew(t *testing.T) {
	m := New()

	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}

	set, err := m.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if set.Len() != 0 {
		t.Errorf("Set.Len() = %d, want 0", set.Len())
	}
}
