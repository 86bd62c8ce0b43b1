package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/codeblock/manifest"
)

// Dump builds a manifest and prints its fragments in the chosen format.
type Dump struct {
	Parts Parts `cmd:"" default:"withargs" help:"Print one part per line (default)."`
	JSON  JSON  `cmd:""                    help:"Print as JSON."`
	YAML  YAML  `cmd:""                    help:"Print as YAML."`
}

// dumpSource selects the manifest and fragments printed by a dump format.
type dumpSource struct {
	Name   []string `help:"Fragment name(s) to print; all if unset" short:"n"`
	Source string   `arg:"" default:"-" help:"Manifest file or '-' for stdin." name:"manifest"`
}

// build loads and builds the selected manifest.
// Every fragment must build for the dump to proceed.
func (d dumpSource) build(ctx context.Context) (*manifest.Set, error) {
	opts, err := manifestOptions(ctx)
	if err != nil {
		return nil, err
	}

	m, err := loadManifest(ctx, d.Source, opts...)
	if err != nil {
		return nil, err
	}

	return m.Build(ctx)
}

type formatFunc func(
	s *manifest.Set,
	ctx context.Context,
	w io.Writer,
	indent int,
	names ...string,
) error

func (d dumpSource) run(
	ctx context.Context,
	format string,
	indent int,
	fn formatFunc,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	attrs := []slog.Attr{
		slog.String("command", "dump"),
		slog.String("format", format),
		slog.String("source", sourceName(d.Source)),
	}

	set, err := d.build(ctx)
	if err != nil {
		return wrapCommand(err, attrs...)
	}

	if err := fn(set, ctx, outputFrom(ctx), indent, d.Name...); err != nil {
		return wrapCommand(err, attrs...)
	}

	return nil
}

// Parts prints fragments one part per line.
type Parts struct {
	Indent int `default:"2" help:"Indent width per indentation level" short:"i"`

	Input dumpSource `embed:""`
}

// Run executes the dump parts command.
func (p *Parts) Run(ctx context.Context) error {
	return p.Input.run(ctx, "parts", p.Indent, (*manifest.Set).FormatParts)
}

// JSON prints fragments as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Input dumpSource `embed:""`
}

// Run executes the dump json command.
func (j *JSON) Run(ctx context.Context) error {
	return j.Input.run(ctx, "json", j.Indent, (*manifest.Set).FormatJSON)
}

// YAML prints fragments as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output (0 for flow style)" short:"i"`

	Input dumpSource `embed:""`
}

// Run executes the dump yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return y.Input.run(ctx, "yaml", y.Indent, (*manifest.Set).FormatYAML)
}
