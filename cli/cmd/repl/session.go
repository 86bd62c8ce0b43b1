package repl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/codeblock/block"
	"github.com/ardnew/codeblock/log"
	"github.com/ardnew/codeblock/manifest"
)

// op is one accepted builder step with its arguments already evaluated.
type op struct {
	line  string
	kind  manifest.StepKind
	text  string
	count int
	args  []any
	embed *block.Fragment
}

// session holds the fragment under construction and the manifest whose
// vars and fragments are visible to it.
//
// Steps are kept rather than a live builder so that a rejected step never
// poisons the builder and accepted steps can be undone.
type session struct {
	ctx    context.Context
	path   string
	opts   []manifest.Option
	logger log.Logger
	man    *manifest.Manifest
	set    *manifest.Set
	ops    []op
	frag   *block.Fragment
}

func newSession(
	ctx context.Context,
	logger log.Logger,
	opts ...manifest.Option,
) *session {
	s := &session{
		ctx:    ctx,
		opts:   opts,
		logger: logger,
		man:    manifest.New(opts...),
	}

	s.set, _ = s.man.Build(ctx)
	s.frag, _ = block.NewBuilder().Build()

	return s
}

// load replaces the manifest with the one at path. Fragments that fail to
// build are reported in the error and left out of the session.
func (s *session) load(path string) error {
	m, err := manifest.LoadFile(s.ctx, path, s.opts...)
	if err != nil {
		return err
	}

	set, err := m.Build(s.ctx)

	s.path, s.man, s.set = path, m, set

	s.logger.DebugContext(s.ctx, "repl manifest loaded",
		slog.String("path", path),
		slog.Int("built", set.Len()),
		slog.Int("total", m.Len()),
	)

	return err
}

// step parses line as a builder step and applies it.
// On error the fragment under construction is unchanged.
func (s *session) step(line string) error {
	o, err := s.parse(line)
	if err != nil {
		return err
	}

	f, err := s.replay(append(s.ops, o))
	if err != nil {
		return err
	}

	s.ops = append(s.ops, o)
	s.frag = f

	s.logger.TraceContext(s.ctx, "repl step",
		slog.String("kind", o.kind.String()),
		slog.Any("fragment", f),
	)

	return nil
}

// undo drops the last accepted step and returns it.
func (s *session) undo() (string, bool) {
	if len(s.ops) == 0 {
		return "", false
	}

	last := s.ops[len(s.ops)-1]

	s.ops = s.ops[:len(s.ops)-1]
	s.frag, _ = s.replay(s.ops)

	return last.line, true
}

// reset drops every accepted step.
func (s *session) reset() {
	s.ops = nil
	s.frag, _ = s.replay(nil)
}

// replay applies ops to a new builder.
func (s *session) replay(ops []op) (*block.Fragment, error) {
	b := block.NewBuilder(
		block.WithLogger(s.logger),
		block.WithContext(s.ctx),
	)

	for _, o := range ops {
		switch o.kind {
		case manifest.StepAdd:
			b.Add(o.text, o.args...)
		case manifest.StepStatement:
			b.Statement(o.text, o.args...)
		case manifest.StepBegin:
			b.BeginControlFlow(o.text, o.args...)
		case manifest.StepNext:
			b.NextControlFlow(o.text, o.args...)
		case manifest.StepEnd:
			if o.text == "" && len(o.args) == 0 {
				b.EndControlFlow()
			} else {
				b.EndControlFlowWith(o.text, o.args...)
			}
		case manifest.StepIndent:
			for range o.count {
				b.Indent()
			}
		case manifest.StepUnindent:
			for range o.count {
				b.Unindent()
			}
		case manifest.StepEmbed:
			b.AddFragment(o.embed)
		}
	}

	return b.Build()
}

// parse converts a step line to an op, evaluating its arguments.
//
// The line is a step kind followed by its operand:
//
//	add "format" expr, expr
//	indent 2
//	embed name
func (s *session) parse(line string) (op, error) {
	word, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	kind, ok := manifest.ParseStepKind(word)
	if !ok {
		return op{}, ErrSyntax.With(
			slog.String("reason", "unknown step"),
			slog.String("step", word),
		)
	}

	o := op{line: line, kind: kind}

	switch kind {
	case manifest.StepIndent, manifest.StepUnindent:
		o.count = 1

		if rest != "" {
			n, err := strconv.Atoi(rest)
			if err != nil || n < 1 {
				return op{}, ErrSyntax.With(
					slog.String("reason", "count must be a positive integer"),
					slog.String("count", rest),
				)
			}

			o.count = n
		}

	case manifest.StepEmbed:
		f, ok := s.set.Get(rest)
		if !ok {
			return op{}, manifest.ErrUnknownFragment.With(slog.String("name", rest))
		}

		o.text, o.embed = rest, f

	default:
		text, src, err := splitFormat(rest)
		if err != nil {
			return op{}, err
		}

		o.text = text

		if o.args, err = s.evaluate(src); err != nil {
			return op{}, err
		}
	}

	return o, nil
}

// splitFormat splits a quoted format string from the argument expressions
// following it. An empty operand is an empty format.
func splitFormat(operand string) (format, args string, err error) {
	if operand == "" {
		return "", "", nil
	}

	quoted, err := strconv.QuotedPrefix(operand)
	if err != nil {
		return "", "", ErrSyntax.With(
			slog.String("reason", "format must be a quoted string"),
			slog.String("operand", operand),
		)
	}

	format, err = strconv.Unquote(quoted)
	if err != nil {
		return "", "", ErrSyntax.Wrap(err)
	}

	args = strings.TrimSpace(operand[len(quoted):])
	args = strings.TrimSpace(strings.TrimPrefix(args, ","))

	return format, args, nil
}

// evaluate evaluates a comma-separated list of expressions.
func (s *session) evaluate(src string) ([]any, error) {
	if src == "" {
		return nil, nil
	}

	v, err := s.man.Evaluate(s.ctx, "["+src+"]")
	if err != nil {
		return nil, err
	}

	args, ok := v.([]any)
	if !ok {
		return nil, ErrSyntax.With(
			slog.String("reason", "arguments must be a list of expressions"),
			slog.String("args", src),
		)
	}

	return args, nil
}

// show returns the parts of the fragment under construction.
func (s *session) show() string {
	if s.frag.IsEmpty() {
		return "(empty)"
	}

	var buf bytes.Buffer

	_ = manifest.WriteParts(&buf, s.frag, partIndent)

	return strings.TrimSuffix(buf.String(), "\n")
}

// list returns the names of the built manifest fragments with their size.
func (s *session) list() string {
	if s.set.Len() == 0 {
		return "(no fragments)"
	}

	var b strings.Builder

	for name, f := range s.set.All() {
		fmt.Fprintf(&b, "  %s %s\n", name,
			hintStyle.Render(fmt.Sprintf("%d parts", f.Len())))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// names returns the names of the built manifest fragments.
func (s *session) names() []string {
	return s.set.Names()
}

const partIndent = 2
