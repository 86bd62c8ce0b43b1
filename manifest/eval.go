package manifest

import (
	"context"
	"log/slog"

	"github.com/expr-lang/expr"
)

// Evaluate compiles and runs the expression src in the environment of m.
//
// Fragments passed by name to fragment() are built on demand. A fragment
// that cannot be built is reported as the evaluation error.
func (m *Manifest) Evaluate(ctx context.Context, src string) (any, error) {
	program, err := expr.Compile(src, expr.Env(m.env))
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).With(slog.String("source", src))
	}

	var depErr error

	s := m.newSession(ctx)

	v, err := expr.Run(program, s.env(&depErr))
	switch {
	case err == nil:
	case s.err != nil:
		return nil, s.err
	case depErr != nil:
		return nil, depErr
	default:
		return nil, ErrExprEvaluate.Wrap(err).With(slog.String("source", src))
	}

	m.logger.TraceContext(ctx, "expression evaluated",
		slog.String("source", src),
		slog.Any("value", v),
	)

	return v, nil
}
