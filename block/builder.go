package block

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/codeblock/log"
)

// Builder accumulates format parts and arguments for a [Fragment].
//
// A Builder is owned by a single caller and is not safe for concurrent use.
// The zero value is ready to use.
type Builder struct {
	parts  []Part
	args   []any
	err    error
	ctx    context.Context
	logger log.Logger
}

// Option configures a [Builder].
type Option func(*Builder)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithContext sets the context passed to the logger.
func WithContext(ctx context.Context) Option {
	return func(b *Builder) {
		b.ctx = ctx
	}
}

// WithCapacity preallocates room for n format parts.
func WithCapacity(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.parts = make([]Part, 0, n)
		}
	}
}

// NewBuilder returns an empty [Builder].
func NewBuilder(opts ...Option) *Builder {
	b := new(Builder)

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Append parses format and appends its parts and args to b.
//
// It returns [ErrMalformedTemplate] if format ends with a dangling sentinel
// or contains an unrecognized directive, and [ErrArityMismatch] if the number
// of argument-consuming directives differs from len(args). On error nothing
// is appended.
//
// Append does not consult or record the sticky error reported by
// [Builder.Err].
func (b *Builder) Append(format string, args ...any) error {
	parts, want, err := scan(format)
	if err == nil && want != len(args) {
		err = ErrArityMismatch.With(
			slog.Int("expected", want),
			slog.Int("got", len(args)),
			slog.String("format", format),
		)
	}

	if err != nil {
		b.logger.TraceContext(b.context(), "format rejected",
			slog.String("format", format),
			slog.Any("error", err),
		)

		return err
	}

	b.parts = append(b.parts, parts...)
	b.args = append(b.args, args...)

	b.logger.TraceContext(b.context(), "format appended",
		slog.String("format", format),
		slog.Int("parts", len(parts)),
		slog.Int("args", len(args)),
	)

	return nil
}

// scan splits format into parts and counts the argument-consuming
// directives among them.
func scan(format string) (parts []Part, want int, err error) {
	for p, next := 0, 0; p < len(format); p = next {
		if format[p] != Sentinel {
			next = strings.IndexByte(format[p+1:], Sentinel)
			if next < 0 {
				next = len(format)
			} else {
				next += p + 1
			}

			parts = append(parts, Part(format[p:next]))

			continue
		}

		if p+1 >= len(format) {
			return nil, 0, ErrMalformedTemplate.With(
				slog.String("reason", "dangling sentinel"),
				slog.String("format", format),
				slog.Int("offset", p),
			)
		}

		d, ok := ParseDirective(format[p+1])
		if !ok {
			return nil, 0, ErrMalformedTemplate.With(
				slog.String("reason", "invalid directive"),
				slog.String("directive", format[p:p+2]),
				slog.String("format", format),
				slog.Int("offset", p),
			)
		}

		if d.ConsumesArg() {
			want++
		}

		next = p + 2
		parts = append(parts, Part(format[p:next]))
	}

	return parts, want, nil
}

// Add parses format and appends its parts and args to b.
//
// If the call fails, the error is recorded and returned by [Builder.Err] and
// [Builder.Build], b is left unchanged, and every later mutating call is
// ignored.
func (b *Builder) Add(format string, args ...any) *Builder {
	if b.err != nil {
		return b
	}

	b.err = b.Append(format, args...)

	return b
}

// AddFragment appends all parts and arguments of f without parsing them
// again. A nil fragment is ignored.
func (b *Builder) AddFragment(f *Fragment) *Builder {
	if b.err != nil || f == nil {
		return b
	}

	b.parts = append(b.parts, f.parts...)
	b.args = append(b.args, f.args...)

	return b
}

// Indent appends the indentation increase directive.
func (b *Builder) Indent() *Builder {
	if b.err == nil {
		b.parts = append(b.parts, partIndent)
	}

	return b
}

// Unindent appends the indentation decrease directive.
func (b *Builder) Unindent() *Builder {
	if b.err == nil {
		b.parts = append(b.parts, partUnindent)
	}

	return b
}

// Statement appends format terminated by ";\n".
func (b *Builder) Statement(format string, args ...any) *Builder {
	return b.Add(format+";\n", args...)
}

// BeginControlFlow opens a braced construct such as "if (foo == 5)" and
// indents its body. The construct should not contain braces or newlines.
func (b *Builder) BeginControlFlow(construct string, args ...any) *Builder {
	return b.atomic(func() {
		b.Add(construct+" {\n", args...).Indent()
	})
}

// NextControlFlow closes the current construct and opens a chained one such
// as "else if (foo == 10)". The construct should not contain braces or
// newlines.
func (b *Builder) NextControlFlow(construct string, args ...any) *Builder {
	return b.atomic(func() {
		b.Unindent().
			Add("} ").
			Add(construct, args...).
			Add("{\n").
			Indent()
	})
}

// EndControlFlow closes the current construct.
func (b *Builder) EndControlFlow() *Builder {
	return b.Unindent().Add("}\n")
}

// EndControlFlowWith closes the current construct with a trailing condition
// such as "while (foo == 20)", as used by do/while loops.
func (b *Builder) EndControlFlowWith(construct string, args ...any) *Builder {
	return b.atomic(func() {
		b.Unindent().Add("} "+construct+";\n", args...)
	})
}

// atomic runs fn and discards everything it appended if it records an error.
func (b *Builder) atomic(fn func()) *Builder {
	if b.err != nil {
		return b
	}

	np, na := len(b.parts), len(b.args)

	fn()

	if b.err != nil {
		b.parts, b.args = b.parts[:np], b.args[:na]
	}

	return b
}

// Err returns the first error recorded by a chained call, if any.
func (b *Builder) Err() error { return b.err }

// IsEmpty reports whether b has accumulated no format parts.
func (b *Builder) IsEmpty() bool { return len(b.parts) == 0 }

// Len returns the number of format parts accumulated so far.
func (b *Builder) Len() int { return len(b.parts) }

// Build returns a [Fragment] holding copies of the accumulated parts and
// arguments, or the first error recorded by a chained call.
//
// The builder remains usable; later calls do not affect fragments already
// built.
func (b *Builder) Build() (*Fragment, error) {
	if b.err != nil {
		return nil, b.err
	}

	return &Fragment{
		parts: slices.Clone(b.parts),
		args:  slices.Clone(b.args),
	}, nil
}

// MustBuild is like [Builder.Build] but panics on error.
func (b *Builder) MustBuild() *Fragment {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}

	return f
}

func (b *Builder) context() context.Context {
	if b.ctx == nil {
		return log.DefaultContextProvider()
	}

	return b.ctx
}
