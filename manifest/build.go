package manifest

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"go.uber.org/multierr"

	"github.com/ardnew/codeblock/block"
)

// Set holds the fragments built from a [Manifest].
type Set struct {
	names     []string
	fragments map[string]*block.Fragment
}

// Get returns the fragment with the given name.
func (s *Set) Get(name string) (*block.Fragment, bool) {
	f, ok := s.fragments[name]

	return f, ok
}

// Names returns the names of all fragments in document order.
func (s *Set) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of fragments in s.
func (s *Set) Len() int {
	return len(s.names)
}

// All returns an iterator over the fragments of s in document order.
func (s *Set) All() iter.Seq2[string, *block.Fragment] {
	return func(yield func(string, *block.Fragment) bool) {
		for _, name := range s.names {
			if !yield(name, s.fragments[name]) {
				return
			}
		}
	}
}

type status int

const (
	pending status = iota
	visiting
	built
	failed
)

// session is the state of a single [Manifest.Build] call.
type session struct {
	ctx    context.Context
	m      *Manifest
	status map[string]status
	frags  map[string]*block.Fragment
	stack  []string
	err    error
}

// Build builds every fragment of m, building referenced fragments before
// the fragments that reference them.
//
// The returned Set is never nil and holds every fragment that was built.
// The error combines the failure of each fragment that failed on its own;
// fragments that failed only because a dependency failed are left out of
// both.
func (m *Manifest) Build(ctx context.Context) (*Set, error) {
	s := m.newSession(ctx)

	for _, name := range m.names {
		if err := ctx.Err(); err != nil {
			s.err = multierr.Append(s.err, err)

			break
		}

		_, _ = s.resolve(name)
	}

	set := &Set{fragments: s.frags}

	for _, name := range m.names {
		if _, ok := s.frags[name]; ok {
			set.names = append(set.names, name)
		}
	}

	m.logger.DebugContext(ctx, "manifest built",
		slog.Int("built", len(set.names)),
		slog.Int("failed", len(m.names)-len(set.names)),
	)

	return set, s.err
}

func (m *Manifest) newSession(ctx context.Context) *session {
	return &session{
		ctx:    ctx,
		m:      m,
		status: make(map[string]status, len(m.names)),
		frags:  make(map[string]*block.Fragment, len(m.names)),
	}
}

// env returns the expression environment with a fragment() builtin that
// resolves names within s. The first resolve error is stored in depErr.
func (s *session) env(depErr *error) map[string]any {
	env := maps.Clone(s.m.env)
	if _, shadowed := s.m.vars[fragmentKey]; shadowed {
		return env
	}

	env[fragmentKey] = fragmentFunc(func(name string) (*block.Fragment, error) {
		f, err := s.resolve(name)
		if err != nil && *depErr == nil {
			*depErr = err
		}

		return f, err
	})

	return env
}

// resolve returns the named fragment, building it first if needed.
func (s *session) resolve(name string) (*block.Fragment, error) {
	r, ok := s.m.recipes[name]
	if !ok {
		return nil, ErrUnknownFragment.With(slog.String("name", name))
	}

	switch s.status[name] {
	case built:
		return s.frags[name], nil

	case failed:
		return nil, ErrDependency.With(slog.String("dependency", name))

	case visiting:
		i := slices.Index(s.stack, name)
		path := append(slices.Clone(s.stack[i:]), name)

		return nil, ErrCycle.With(
			slog.String("path", strings.Join(path, " -> ")),
		)

	case pending:
	}

	s.status[name] = visiting
	s.stack = append(s.stack, name)

	f, err := s.build(r)

	s.stack = s.stack[:len(s.stack)-1]

	if err != nil {
		s.status[name] = failed

		if !errors.Is(err, ErrDependency) {
			s.err = multierr.Append(s.err, err)
		}

		s.m.logger.DebugContext(s.ctx, "fragment failed",
			slog.String("fragment", name),
			slog.Any("error", err),
		)

		return nil, ErrDependency.With(slog.String("dependency", name))
	}

	s.status[name] = built
	s.frags[name] = f

	s.m.logger.TraceContext(s.ctx, "fragment built",
		slog.String("fragment", name),
		slog.Any("value", f),
	)

	return f, nil
}

// build runs the steps of r on a new builder.
func (s *session) build(r *recipe) (*block.Fragment, error) {
	b := block.NewBuilder(
		block.WithLogger(s.m.logger),
		block.WithContext(s.ctx),
	)

	var depErr error

	env := s.env(&depErr)

	for i, step := range r.steps {
		var err error

		switch step.Kind {
		case StepEmbed:
			var dep *block.Fragment

			if dep, err = s.resolve(step.Text); err == nil {
				b.AddFragment(dep)
			}

		case StepIndent:
			for range step.Count {
				b.Indent()
			}

		case StepUnindent:
			for range step.Count {
				b.Unindent()
			}

		default:
			var args []any

			if args, err = evaluate(step, env); err != nil && depErr != nil {
				err = depErr
			}

			if err == nil {
				apply(b, step, args)
			}
		}

		if err == nil && b.Err() != nil {
			err = ErrBuild.Wrap(b.Err()).With(
				slog.String("kind", step.Kind.String()),
			)
		}

		if err != nil {
			return nil, withStep(err, r.name, i)
		}
	}

	return b.Build()
}

// evaluate runs the argument programs of step.
func evaluate(step Step, env map[string]any) ([]any, error) {
	args := make([]any, len(step.programs))

	for i, program := range step.programs {
		v, err := expr.Run(program, env)
		if err != nil {
			return nil, ErrExprEvaluate.Wrap(err).With(
				slog.Int("arg", i),
				slog.String("source", step.Args[i]),
			)
		}

		args[i] = v
	}

	return args, nil
}

// apply performs the builder operation of a format step.
func apply(b *block.Builder, step Step, args []any) {
	switch step.Kind {
	case StepAdd:
		b.Add(step.Text, args...)
	case StepStatement:
		b.Statement(step.Text, args...)
	case StepBegin:
		b.BeginControlFlow(step.Text, args...)
	case StepNext:
		b.NextControlFlow(step.Text, args...)
	case StepEnd:
		if step.Text == "" && len(args) == 0 {
			b.EndControlFlow()
		} else {
			b.EndControlFlowWith(step.Text, args...)
		}
	}
}
