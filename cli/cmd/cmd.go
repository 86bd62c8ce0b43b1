package cmd

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/multierr"

	"github.com/ardnew/codeblock/log"
	"github.com/ardnew/codeblock/manifest"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	varsKey   struct{}
	outputKey struct{}
)

// WithVars returns a new context.Context containing manifest vars given on
// the command line. Each value is an expression evaluated when a manifest is
// loaded.
func WithVars(ctx context.Context, vars map[string]string) context.Context {
	return context.WithValue(ctx, varsKey{}, maps.Clone(vars))
}

// WithOutput returns a new context.Context whose commands write to w.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

// outputFrom returns the writer stored by WithOutput, or os.Stdout.
func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// manifestOptions returns the options for loading manifests, evaluating the
// vars stored by WithVars in name order.
func manifestOptions(ctx context.Context) ([]manifest.Option, error) {
	opts := []manifest.Option{manifest.WithLogger(log.Default())}

	raw, _ := ctx.Value(varsKey{}).(map[string]string)
	if len(raw) == 0 {
		return opts, nil
	}

	eval := manifest.New(opts...)
	vars := make(map[string]any, len(raw))

	var errs error

	for _, name := range slices.Sorted(maps.Keys(raw)) {
		v, err := eval.Evaluate(ctx, raw[name])
		if err != nil {
			errs = multierr.Append(errs, ErrVar.Wrap(err).With(
				slog.String("name", name),
			))

			continue
		}

		vars[name] = v
	}

	if errs != nil {
		return nil, errs
	}

	return append(opts, manifest.WithVars(vars)), nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// uniqueSources returns paths with duplicate files removed, keeping the
// first occurrence of each. Files are compared by device and inode after
// resolving symlinks. All occurrences of "-", and any path naming the same
// file as stdin, are replaced with a single "-" placed last. Paths that
// cannot be resolved are kept so that opening them reports the error.
func uniqueSources(paths []string) []string {
	seen := make(map[fileKey]struct{})
	uniq := make([]string, 0, len(paths))

	var hasStdin bool

	stdinKey, stdinOK := fileKey{}, false
	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, stdinOK = makeFileKey(info)
	}

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		key, ok := statKey(path)

		switch {
		case !ok:
			uniq = append(uniq, path)

			continue

		case stdinOK && key == stdinKey:
			hasStdin = true

			continue
		}

		if _, exists := seen[key]; exists {
			continue
		}

		seen[key] = struct{}{}
		uniq = append(uniq, path)
	}

	if hasStdin {
		uniq = append(uniq, stdinSource)
	}

	return uniq
}

// statKey resolves path and returns the device and inode of its target.
func statKey(path string) (fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// loadManifest loads the manifest at path, or from stdin if path is "-".
func loadManifest(
	ctx context.Context,
	path string,
	opts ...manifest.Option,
) (*manifest.Manifest, error) {
	if path == stdinSource || path == "" {
		return manifest.Load(ctx, os.Stdin, opts...)
	}

	return manifest.LoadFile(ctx, path, opts...)
}

// sourceName returns the display name of a manifest source.
func sourceName(path string) string {
	if path == stdinSource || path == "" {
		return "<stdin>"
	}

	return path
}
