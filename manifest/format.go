package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/codeblock/block"
)

// fragmentView is the serialized form of a fragment.
type fragmentView struct {
	Name   string   `json:"name,omitempty"   yaml:"name,omitempty"`
	Format string   `json:"format"           yaml:"format"`
	Parts  []string `json:"parts"            yaml:"parts"`
	Args   []any    `json:"args,omitempty"   yaml:"args,omitempty"`
}

func viewOf(name string, f *block.Fragment) fragmentView {
	v := fragmentView{
		Name:   name,
		Format: f.Format(),
		Parts:  make([]string, 0, f.Len()),
	}

	for p, arg := range f.All() {
		v.Parts = append(v.Parts, string(p))

		if !p.ConsumesArg() {
			continue
		}

		if nested, ok := arg.(*block.Fragment); ok {
			v.Args = append(v.Args, viewOf("", nested))
		} else {
			v.Args = append(v.Args, arg)
		}
	}

	return v
}

// views returns the named fragments, or all fragments if names is empty.
func (s *Set) views(names []string) ([]fragmentView, error) {
	if len(names) == 0 {
		names = s.names
	}

	views := make([]fragmentView, 0, len(names))

	for _, name := range names {
		f, ok := s.fragments[name]
		if !ok {
			return nil, ErrUnknownFragment.With(slog.String("name", name))
		}

		views = append(views, viewOf(name, f))
	}

	return views, nil
}

// FormatJSON writes the named fragments, or all fragments, as a JSON array.
func (s *Set) FormatJSON(
	_ context.Context,
	w io.Writer,
	indent int,
	names ...string,
) error {
	views, err := s.views(names)
	if err != nil {
		return err
	}

	var data []byte

	if indent > 0 {
		data, err = json.MarshalIndent(views, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(views)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the named fragments, or all fragments, as a YAML
// sequence.
func (s *Set) FormatYAML(
	ctx context.Context,
	w io.Writer,
	indent int,
	names ...string,
) error {
	views, err := s.views(names)
	if err != nil {
		return err
	}

	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, views, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}

// FormatParts writes the named fragments, or all fragments, one part per
// line. Literal parts are quoted. Each argument-consuming directive is
// followed by its argument. Lines are indented by the depth implied by the
// indentation directives preceding them, without rendering them.
func (s *Set) FormatParts(
	_ context.Context,
	w io.Writer,
	indent int,
	names ...string,
) error {
	if len(names) == 0 {
		names = s.names
	}

	for _, name := range names {
		f, ok := s.fragments[name]
		if !ok {
			return ErrUnknownFragment.With(slog.String("name", name))
		}

		if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
			return err
		}

		if err := WriteParts(w, f, indent); err != nil {
			return err
		}
	}

	return nil
}

// WriteParts writes the parts of f one per line, as described by
// [Set.FormatParts].
func WriteParts(w io.Writer, f *block.Fragment, indent int) error {
	depth := 1

	for p, arg := range f.All() {
		if p == "$<" && depth > 1 {
			depth--
		}

		line := strings.Repeat(" ", depth*indent) + partString(p)
		if p.ConsumesArg() {
			line += " " + argString(arg)
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		if p == "$>" {
			depth++
		}
	}

	return nil
}

func partString(p block.Part) string {
	if p.IsDirective() {
		return string(p)
	}

	return strconv.Quote(string(p))
}

func argString(arg any) string {
	switch v := arg.(type) {
	case string:
		return strconv.Quote(v)
	case *block.Fragment:
		return "fragment(" + strconv.Quote(v.Format()) + ")"
	default:
		return fmt.Sprint(v)
	}
}
