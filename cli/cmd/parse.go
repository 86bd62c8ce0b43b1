package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/codeblock/block"
	"github.com/ardnew/codeblock/manifest"
)

// Parse parses a single format string with argument expressions and prints
// its parts.
type Parse struct {
	Format   string   `arg:"" help:"Format string with $L, $N, $S, $T, $$, $>, $< directives" name:"format"`
	Args     []string `arg:"" help:"Argument expressions bound to the consuming directives"    name:"args"   optional:""`
	Manifest string   `       help:"Manifest whose vars and fragments are visible to arguments" short:"m"   type:"existingfile"`
	Indent   int      `       help:"Indent width per indentation level"                        short:"i"   default:"2"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	attrs := []slog.Attr{
		slog.String("command", "parse"),
		slog.String("format", p.Format),
	}

	opts, err := manifestOptions(ctx)
	if err != nil {
		return wrapCommand(err, attrs...)
	}

	m := manifest.New(opts...)
	if p.Manifest != "" {
		if m, err = manifest.LoadFile(ctx, p.Manifest, opts...); err != nil {
			return wrapCommand(err, attrs...)
		}
	}

	args := make([]any, len(p.Args))

	for i, src := range p.Args {
		if args[i], err = m.Evaluate(ctx, src); err != nil {
			return wrapCommand(err, append(attrs, slog.Int("arg", i))...)
		}
	}

	f, err := block.Of(p.Format, args...)
	if err != nil {
		return ErrParse.Wrap(err).With(attrs...)
	}

	return manifest.WriteParts(outputFrom(ctx), f, p.Indent)
}
