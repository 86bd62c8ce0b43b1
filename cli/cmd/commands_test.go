package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/codeblock/block"
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
  body:
    - embed: guard
    - statement: "count++"
`

const brokenManifest = `
fragments:
  body:
    - embed: missing
`

// outputContext returns a context whose commands write to the returned
// buffer.
func outputContext(vars map[string]string) (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer

	ctx := WithOutput(context.Background(), &buf)
	if vars != nil {
		ctx = WithVars(ctx, vars)
	}

	return ctx, &buf
}

func TestCheck_Run(t *testing.T) {
	dir := t.TempDir()

	good := writeFile(t, dir, "good.yaml", testManifest)
	broken := writeFile(t, dir, "broken.yaml", brokenManifest)
	invalid := writeFile(t, dir, "invalid.yaml", "fragments: [")

	t.Run("success", func(t *testing.T) {
		ctx, buf := outputContext(nil)

		if err := (&Check{Manifests: []string{good, good}}).Run(ctx); err != nil {
			t.Fatalf("Check.Run() error: %v", err)
		}

		want := good + ": 2/2 fragments built\n"
		if diff := cmp.Diff(want, buf.String()); diff != "" {
			t.Errorf("output mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("failures", func(t *testing.T) {
		ctx, buf := outputContext(nil)

		err := (&Check{Manifests: []string{good, broken, invalid}}).Run(ctx)
		if !errors.Is(err, ErrCheck) {
			t.Fatalf("Check.Run() error = %v, want %v", err, ErrCheck)
		}

		var e *block.Error
		if !errors.As(err, &e) {
			t.Fatalf("Check.Run() error %T is not *block.Error", err)
		}

		if v, ok := e.Attr("failed"); !ok || v.Int64() != 2 {
			t.Errorf("failed = %v, want 2", v)
		}

		want := good + ": 2/2 fragments built\n" +
			broken + ": 0/1 fragments built\n" +
			invalid + ": load failed\n"
		if diff := cmp.Diff(want, buf.String()); diff != "" {
			t.Errorf("output mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestDump_Parts(t *testing.T) {
	path := writeFile(t, t.TempDir(), "frags.yaml", testManifest)
	ctx, buf := outputContext(nil)

	cmd := &Parts{Indent: 2, Input: dumpSource{Name: []string{"guard"}, Source: path}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Parts.Run() error: %v", err)
	}

	want := `guard:
  "if ("
  $N "count"
  " > "
  $L 10
  ") {\n"
  $>
    "return;\n"
  $<
  "}\n"
`

	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDump_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "frags.yaml", testManifest)
	ctx, buf := outputContext(nil)

	if err := (&JSON{Indent: 2, Input: dumpSource{Source: path}}).Run(ctx); err != nil {
		t.Fatalf("JSON.Run() error: %v", err)
	}

	var got []struct {
		Name   string `json:"name"`
		Format string `json:"format"`
	}

	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf)
	}

	guard := "if ($N > $L) {\n$>return;\n$<}\n"
	want := []struct {
		Name   string `json:"name"`
		Format string `json:"format"`
	}{
		{Name: "guard", Format: guard},
		{Name: "body", Format: guard + "count++;\n"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDump_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		source  string
		names   []string
		wantErr error
	}{
		{
			name:    "unknown_fragment",
			source:  writeFile(t, dir, "frags.yaml", testManifest),
			names:   []string{"nope"},
			wantErr: manifest.ErrUnknownFragment,
		},
		{
			name:    "broken_manifest",
			source:  writeFile(t, dir, "broken.yaml", brokenManifest),
			wantErr: manifest.ErrUnknownFragment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := outputContext(nil)

			err := (&YAML{Indent: 2, Input: dumpSource{Name: tt.names, Source: tt.source}}).Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("YAML.Run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_Run(t *testing.T) {
	path := writeFile(t, t.TempDir(), "frags.yaml", testManifest)

	tests := []struct {
		name   string
		parse  Parse
		vars   map[string]string
		want   string
		prefix bool
	}{
		{
			name:  "literal_only",
			parse: Parse{Format: "x++;", Indent: 2},
			want:  "  \"x++;\"\n",
		},
		{
			name:  "var_argument",
			parse: Parse{Format: "x = $L;$>", Args: []string{"limit * 2"}, Indent: 2},
			vars:  map[string]string{"limit": "21"},
			want:  "  \"x = \"\n  $L 42\n  \";\"\n  $>\n",
		},
		{
			name: "manifest_fragment",
			parse: Parse{
				Format:   "$L",
				Args:     []string{"fragment('guard')"},
				Manifest: path,
				Indent:   2,
			},
			want:   "  $L fragment(",
			prefix: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, buf := outputContext(tt.vars)

			if err := tt.parse.Run(ctx); err != nil {
				t.Fatalf("Parse.Run() error: %v", err)
			}

			if tt.prefix {
				if !strings.HasPrefix(buf.String(), tt.want) {
					t.Errorf("output = %q, want prefix %q", buf, tt.want)
				}

				return
			}

			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		parse  Parse
		target error
	}{
		{
			name:   "arity",
			parse:  Parse{Format: "$L"},
			target: block.ErrArityMismatch,
		},
		{
			name:   "malformed",
			parse:  Parse{Format: "$X"},
			target: block.ErrMalformedTemplate,
		},
		{
			name:   "unknown_identifier",
			parse:  Parse{Format: "$L", Args: []string{"nope"}},
			target: manifest.ErrExprCompile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := outputContext(nil)

			err := tt.parse.Run(ctx)
			if !errors.Is(err, tt.target) {
				t.Errorf("Parse.Run() error = %v, want %v", err, tt.target)
			}
		})
	}
}
