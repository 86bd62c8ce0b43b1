package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/ardnew/codeblock/log"
)

// Check builds every fragment of one or more manifests and reports the
// number built from each.
type Check struct {
	Manifests []string `arg:"" default:"-" help:"Manifest file(s) or '-' for stdin" name:"manifest"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	opts, err := manifestOptions(ctx)
	if err != nil {
		return ErrCheck.Wrap(err).With(slog.String("command", "check"))
	}

	w := outputFrom(ctx)

	var errs error

	failed := 0

	for _, path := range uniqueSources(c.Manifests) {
		name := sourceName(path)

		m, err := loadManifest(ctx, path, opts...)
		if err != nil {
			errs = multierr.Append(errs, err)
			failed++

			fmt.Fprintf(w, "%s: load failed\n", name)

			continue
		}

		set, err := m.Build(ctx)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			failed++
		}

		fmt.Fprintf(w, "%s: %d/%d fragments built\n", name, set.Len(), m.Len())

		log.DebugContext(ctx, "manifest checked",
			slog.String("source", name),
			slog.String("hash", m.Hash()),
			slog.Int("built", set.Len()),
			slog.Int("total", m.Len()),
		)
	}

	if errs != nil {
		return ErrCheck.Wrap(errs).With(
			slog.String("command", "check"),
			slog.Int("failed", failed),
		)
	}

	return nil
}
