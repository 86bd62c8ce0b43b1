package manifest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"

	"go.uber.org/multierr"

	"github.com/ardnew/codeblock/block"
	"github.com/ardnew/codeblock/log"
)

// Manifest is a validated set of fragment recipes with compiled argument
// expressions. A Manifest is immutable and safe for concurrent builds.
type Manifest struct {
	hash    uint64
	names   []string
	recipes map[string]*recipe
	vars    map[string]any
	env     map[string]any
	opts    options
	logger  log.Logger
}

type recipe struct {
	name  string
	steps []Step
	deps  []string
}

type options struct {
	environ []string
	vars    map[string]any
}

// Option configures loading of a [Manifest].
type Option func(*Manifest)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(m *Manifest) {
		m.logger = logger
	}
}

// WithEnviron sets the process environment seen by the env() builtin.
// The format is []string{"KEY=VALUE", ...}. If nil, os.Environ() is used.
func WithEnviron(environ []string) Option {
	return func(m *Manifest) {
		m.opts.environ = environ
	}
}

// WithVars adds vars to the expression environment, replacing vars of the
// same name declared by the document.
func WithVars(vars map[string]any) Option {
	return func(m *Manifest) {
		if m.opts.vars == nil {
			m.opts.vars = make(map[string]any, len(vars))
		}

		maps.Copy(m.opts.vars, vars)
	}
}

// LoadFile reads and compiles the manifest at path.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	m, err := Load(ctx, f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// Load reads and compiles a manifest from r.
//
// All step and expression errors of the document are reported together.
func Load(ctx context.Context, r io.Reader, opts ...Option) (*Manifest, error) {
	doc, hash, err := decodeCached(ctx, r)
	if err != nil {
		return nil, err
	}

	m := newManifest(doc.Vars, opts...)
	m.hash = hash

	var errs error

	for _, item := range doc.Fragments {
		r, err := m.compile(item.Key, item.Value)
		if err != nil {
			errs = multierr.Append(errs, err)

			continue
		}

		m.names = append(m.names, r.name)
		m.recipes[r.name] = r
	}

	if errs != nil {
		return nil, errs
	}

	m.logger.DebugContext(ctx, "manifest loaded",
		slog.String("hash", m.Hash()),
		slog.Int("fragments", len(m.names)),
		slog.Int("vars", len(m.vars)),
	)

	return m, nil
}

// New returns a manifest without fragments. Its expressions see the vars
// given by [WithVars] and the builtins.
func New(opts ...Option) *Manifest {
	return newManifest(nil, opts...)
}

func newManifest(vars map[string]any, opts ...Option) *Manifest {
	var m Manifest

	for _, opt := range opts {
		opt(&m)
	}

	m.vars = maps.Clone(vars)
	if m.vars == nil {
		m.vars = make(map[string]any, len(m.opts.vars))
	}

	maps.Copy(m.vars, m.opts.vars)

	m.env = makeEnv(m.vars, m.opts.environ)
	m.recipes = make(map[string]*recipe)

	return &m
}

// compile parses and compiles the steps of one fragment.
func (m *Manifest) compile(key, value any) (*recipe, error) {
	name, ok := key.(string)
	if !ok || name == "" {
		return nil, ErrDecode.With(
			slog.String("reason", "fragment name must be a non-empty string"),
			slog.Any("key", key),
		)
	}

	if _, dup := m.recipes[name]; dup {
		return nil, ErrDuplicateFragment.With(slog.String("fragment", name))
	}

	var list []any

	switch v := value.(type) {
	case nil:
	case []any:
		list = v
	default:
		return nil, ErrDecode.With(
			slog.String("reason", "fragment must be a list of steps"),
			slog.String("fragment", name),
		)
	}

	r := &recipe{name: name, steps: make([]Step, 0, len(list))}

	var errs error

	for i, raw := range list {
		step, err := parseStep(raw)
		if err == nil {
			var refs []string

			refs, err = compileArgs(&step, m.env)
			r.addDeps(refs...)
		}

		if err != nil {
			errs = multierr.Append(errs, withStep(err, name, i))

			continue
		}

		if step.Kind == StepEmbed {
			r.addDeps(step.Text)
		}

		r.steps = append(r.steps, step)
	}

	return r, errs
}

func (r *recipe) addDeps(names ...string) {
	for _, name := range names {
		if !slices.Contains(r.deps, name) {
			r.deps = append(r.deps, name)
		}
	}
}

// Hash returns the content hash of the source document.
func (m *Manifest) Hash() string {
	return strconv.FormatUint(m.hash, 36)
}

// Names returns the fragment names in document order.
func (m *Manifest) Names() []string {
	return slices.Clone(m.names)
}

// Len returns the number of fragments.
func (m *Manifest) Len() int {
	return len(m.names)
}

// Steps returns the steps of the named fragment.
func (m *Manifest) Steps(name string) ([]Step, bool) {
	r, ok := m.recipes[name]
	if !ok {
		return nil, false
	}

	return slices.Clone(r.steps), true
}

// Dependencies returns the fragments named by embed steps and by string
// literals passed to fragment(), in order of first reference.
func (m *Manifest) Dependencies(name string) ([]string, bool) {
	r, ok := m.recipes[name]
	if !ok {
		return nil, false
	}

	return slices.Clone(r.deps), true
}

// Vars returns the vars visible to expressions.
func (m *Manifest) Vars() map[string]any {
	return maps.Clone(m.vars)
}

func withStep(err error, fragment string, step int) error {
	attrs := []slog.Attr{
		slog.String("fragment", fragment),
		slog.Int("step", step),
	}

	if e, ok := err.(*block.Error); ok {
		return e.With(attrs...)
	}

	return err
}
