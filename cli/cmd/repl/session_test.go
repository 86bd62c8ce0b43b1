package repl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/codeblock/block"
	"github.com/ardnew/codeblock/log"
	"github.com/ardnew/codeblock/manifest"
)

const testManifest = `
vars:
  limit: 10
fragments:
  guard:
    - begin: "if ($N > $L)"
      args: ["'count'", "limit"]
    - statement: "return"
    - end:
`

// writeManifest writes src to a manifest file in a temp directory.
func writeManifest(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func newTestSession(t *testing.T) *session {
	t.Helper()

	s := newSession(context.Background(), log.Logger{},
		manifest.WithVars(map[string]any{"name": "count"}),
	)

	if err := s.load(writeManifest(t, testManifest)); err != nil {
		t.Fatalf("load() error: %v", err)
	}

	return s
}

func TestSession_Step(t *testing.T) {
	guard := block.NewBuilder().
		BeginControlFlow("if ($N > $L)", "count", uint64(10)).
		Statement("return").
		EndControlFlow().
		MustBuild()

	tests := []struct {
		name  string
		lines []string
		want  *block.Fragment
	}{
		{
			name:  "add",
			lines: []string{`add "x = $L;\n", limit`},
			want:  block.MustOf("x = $L;\n", uint64(10)),
		},
		{
			name:  "add without comma",
			lines: []string{`add "$N" name`},
			want:  block.MustOf("$N", "count"),
		},
		{
			name:  "empty add",
			lines: []string{`add`},
			want:  block.MustOf(""),
		},
		{
			name:  "indent count",
			lines: []string{"indent 2", "unindent"},
			want:  block.MustOf("$>$>$<"),
		},
		{
			name: "control flow",
			lines: []string{
				`begin "do"`,
				`statement "i++"`,
				`end "while (i < $L)", limit`,
			},
			want: block.NewBuilder().
				BeginControlFlow("do").
				Statement("i++").
				EndControlFlowWith("while (i < $L)", uint64(10)).
				MustBuild(),
		},
		{
			name:  "embed",
			lines: []string{"embed guard"},
			want:  guard,
		},
		{
			name:  "fragment argument",
			lines: []string{`add "$L", fragment("guard")`},
			want:  block.MustOf("$L", guard),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)

			for _, line := range tt.lines {
				if err := s.step(line); err != nil {
					t.Fatalf("step(%q) error: %v", line, err)
				}
			}

			if !s.frag.Equal(tt.want) {
				t.Errorf("fragment = %q %v, want %q %v",
					s.frag, s.frag.Args(), tt.want, tt.want.Args())
			}
		})
	}
}

func TestSession_StepErrors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{line: `bogus "x"`, want: ErrSyntax},
		{line: `add x`, want: ErrSyntax},
		{line: `add "x`, want: ErrSyntax},
		{line: `indent 0`, want: ErrSyntax},
		{line: `unindent two`, want: ErrSyntax},
		{line: `embed nope`, want: manifest.ErrUnknownFragment},
		{line: `add "$L"`, want: block.ErrArityMismatch},
		{line: `add "$Q"`, want: block.ErrMalformedTemplate},
		{line: `add "$L", nope`, want: manifest.ErrExprCompile},
		{line: `add "$L", fragment("nope")`, want: manifest.ErrUnknownFragment},
		{line: `begin "if ($L)"`, want: block.ErrArityMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			s := newTestSession(t)

			if err := s.step(`add "prefix "`); err != nil {
				t.Fatal(err)
			}

			err := s.step(tt.line)
			if !errors.Is(err, tt.want) {
				t.Fatalf("step(%q) error = %v, want %v", tt.line, err, tt.want)
			}

			if diff := cmp.Diff([]block.Part{"prefix "}, s.frag.Parts()); diff != "" {
				t.Errorf("fragment changed after error (-want +got):\n%s", diff)
			}

			if len(s.ops) != 1 {
				t.Errorf("len(ops) = %d, want 1", len(s.ops))
			}
		})
	}
}

func TestSession_UndoReset(t *testing.T) {
	s := newTestSession(t)

	for _, line := range []string{`add "a"`, `add "$L", 1`, `indent`} {
		if err := s.step(line); err != nil {
			t.Fatal(err)
		}
	}

	line, ok := s.undo()
	if !ok || line != "indent" {
		t.Errorf("undo() = %q, %v, want %q, true", line, ok, "indent")
	}

	if got := s.frag.Format(); got != "a$L" {
		t.Errorf("Format() after undo = %q, want %q", got, "a$L")
	}

	s.reset()

	if !s.frag.IsEmpty() {
		t.Errorf("fragment not empty after reset: %q", s.frag)
	}

	if _, ok := s.undo(); ok {
		t.Error("undo() succeeded with no steps")
	}
}

func TestSession_Show(t *testing.T) {
	s := newTestSession(t)

	if got := s.show(); got != "(empty)" {
		t.Errorf("show() = %q, want %q", got, "(empty)")
	}

	for _, line := range []string{`begin "if ($N)", name`, `statement "x"`, `end`} {
		if err := s.step(line); err != nil {
			t.Fatal(err)
		}
	}

	want := `  "if ("
  $N "count"
  ") {\n"
  $>
    "x;\n"
  $<
  "}\n"`

	if diff := cmp.Diff(want, s.show()); diff != "" {
		t.Errorf("show() mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_Load(t *testing.T) {
	s := newSession(context.Background(), log.Logger{})

	if got := s.names(); len(got) != 0 {
		t.Errorf("names() = %v before load", got)
	}

	path := writeManifest(t, `
fragments:
  ok:
    - add: "x"
  bad:
    - add: "$Q"
`)

	err := s.load(path)
	if !errors.Is(err, block.ErrMalformedTemplate) {
		t.Errorf("load() error = %v, want %v", err, block.ErrMalformedTemplate)
	}

	if diff := cmp.Diff([]string{"ok"}, s.names()); diff != "" {
		t.Errorf("names() mismatch (-want +got):\n%s", diff)
	}

	if s.path != path {
		t.Errorf("path = %q, want %q", s.path, path)
	}

	if err := s.load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, manifest.ErrReadInput) {
		t.Errorf("load(missing) error = %v, want %v", err, manifest.ErrReadInput)
	}

	if s.path != path {
		t.Errorf("path changed after failed load: %q", s.path)
	}
}

func TestSplitFormat(t *testing.T) {
	tests := []struct {
		operand    string
		wantFormat string
		wantArgs   string
		wantErr    bool
	}{
		{operand: "", wantFormat: "", wantArgs: ""},
		{operand: `"a $L"`, wantFormat: "a $L"},
		{operand: `"a $L", 1`, wantFormat: "a $L", wantArgs: "1"},
		{operand: `"$L$L" 1, "b"`, wantFormat: "$L$L", wantArgs: `1, "b"`},
		{operand: "`raw\\n`", wantFormat: `raw\n`},
		{operand: `"esc\"aped"`, wantFormat: `esc"aped`},
		{operand: `unquoted`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.operand, func(t *testing.T) {
			format, args, err := splitFormat(tt.operand)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitFormat(%q) error = %v, wantErr %v", tt.operand, err, tt.wantErr)
			}

			if format != tt.wantFormat || args != tt.wantArgs {
				t.Errorf("splitFormat(%q) = (%q, %q), want (%q, %q)",
					tt.operand, format, args, tt.wantFormat, tt.wantArgs)
			}
		})
	}
}
