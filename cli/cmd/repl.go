package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/codeblock/cli/cmd/repl"
	"github.com/ardnew/codeblock/log"
	"github.com/ardnew/codeblock/pkg"
)

// Repl starts an interactive builder session.
type Repl struct {
	Manifest string `arg:"" help:"Manifest whose vars and fragments are visible to steps" optional:"" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	attrs := []slog.Attr{
		slog.String("command", "repl"),
		slog.String("manifest", r.Manifest),
	}

	opts, err := manifestOptions(ctx)
	if err != nil {
		return wrapCommand(err, attrs...)
	}

	if err := repl.Run(ctx, repl.Config{
		Manifest: r.Manifest,
		CacheDir: cacheDirFrom(ctx),
		Options:  opts,
		Logger:   log.Default(),
	}); err != nil {
		return wrapCommand(err, attrs...)
	}

	return nil
}

// cacheDirFrom returns the cache directory defined in the kong vars, or
// [pkg.CacheDir] if there is none.
func cacheDirFrom(ctx context.Context) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok && dir != "" {
			return dir
		}
	}

	return pkg.CacheDir()
}
