package manifest

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/expr-lang/expr/vm"
)

// StepKind identifies the builder operation performed by a [Step].
type StepKind int

const (
	StepAdd StepKind = iota
	StepStatement
	StepBegin
	StepNext
	StepEnd
	StepIndent
	StepUnindent
	StepEmbed
)

// argsKey is the step key holding argument expressions.
const argsKey = "args"

// StepKinds returns all step kinds in declaration order.
func StepKinds() []StepKind {
	return []StepKind{
		StepAdd,
		StepStatement,
		StepBegin,
		StepNext,
		StepEnd,
		StepIndent,
		StepUnindent,
		StepEmbed,
	}
}

// String returns the document key of k.
func (k StepKind) String() string {
	switch k {
	case StepAdd:
		return "add"
	case StepStatement:
		return "statement"
	case StepBegin:
		return "begin"
	case StepNext:
		return "next"
	case StepEnd:
		return "end"
	case StepIndent:
		return "indent"
	case StepUnindent:
		return "unindent"
	case StepEmbed:
		return "embed"
	default:
		return "unknown"
	}
}

// ParseStepKind returns the step kind with document key s.
func ParseStepKind(s string) (StepKind, bool) {
	for _, k := range StepKinds() {
		if k.String() == s {
			return k, true
		}
	}

	return 0, false
}

// TakesArgs reports whether steps of kind k accept argument expressions.
func (k StepKind) TakesArgs() bool {
	switch k {
	case StepAdd, StepStatement, StepBegin, StepNext, StepEnd:
		return true
	default:
		return false
	}
}

// Step is one builder operation of a fragment recipe.
type Step struct {
	Kind StepKind
	// Text is the format or construct, or the embedded fragment name.
	Text string
	// Count is the repetition count of indent and unindent steps.
	Count int
	// Args holds the source of each argument expression.
	Args []string

	programs []*vm.Program
}

// parseStep converts one decoded list item into a Step.
func parseStep(raw any) (Step, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Step{}, ErrInvalidStep.With(
			slog.String("reason", "step is not a mapping"),
			slog.String("type", fmt.Sprintf("%T", raw)),
		)
	}

	var (
		step  Step
		found []string
	)

	for _, key := range slices.Sorted(maps.Keys(m)) {
		val := m[key]

		if key == argsKey {
			args, err := parseArgs(val)
			if err != nil {
				return Step{}, err
			}

			step.Args = args

			continue
		}

		kind, ok := ParseStepKind(key)
		if !ok {
			return Step{}, ErrUnknownStep.With(slog.String("key", key))
		}

		found = append(found, key)
		step.Kind = kind

		if err := step.setValue(val); err != nil {
			return Step{}, err
		}
	}

	switch {
	case len(found) == 0:
		return Step{}, ErrUnknownStep.With(
			slog.String("reason", "missing step kind"),
		)
	case len(found) > 1:
		return Step{}, ErrInvalidStep.With(
			slog.String("reason", "multiple step kinds"),
			slog.Any("keys", found),
		)
	case len(step.Args) > 0 && !step.Kind.TakesArgs():
		return Step{}, ErrInvalidStep.With(
			slog.String("reason", "step does not accept args"),
			slog.String("kind", step.Kind.String()),
		)
	}

	return step, nil
}

// setValue stores the value of the step kind key.
func (s *Step) setValue(val any) error {
	switch s.Kind {
	case StepIndent, StepUnindent:
		n, ok := count(val)
		if !ok || n < 1 {
			return ErrInvalidStep.With(
				slog.String("reason", "count must be a positive integer"),
				slog.String("kind", s.Kind.String()),
				slog.Any("value", val),
			)
		}

		s.Count = n

	case StepEmbed:
		name, ok := val.(string)
		if !ok || name == "" {
			return ErrInvalidStep.With(
				slog.String("reason", "embed requires a fragment name"),
				slog.Any("value", val),
			)
		}

		s.Text = name

	default:
		switch v := val.(type) {
		case nil:
		case string:
			s.Text = v
		default:
			return ErrInvalidStep.With(
				slog.String("reason", "format must be a string"),
				slog.String("kind", s.Kind.String()),
				slog.Any("value", val),
			)
		}
	}

	return nil
}

func count(val any) (int, bool) {
	switch v := val.(type) {
	case nil:
		return 1, true
	case bool:
		return 1, v
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}

// parseArgs converts the args list into expression sources. Scalars are
// accepted so that numbers and booleans need not be quoted.
func parseArgs(val any) ([]string, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, ErrInvalidStep.With(
			slog.String("reason", "args is not a list"),
			slog.String("type", fmt.Sprintf("%T", val)),
		)
	}

	args := make([]string, len(list))

	for i, item := range list {
		switch v := item.(type) {
		case string:
			args[i] = v
		case nil:
			args[i] = "nil"
		case map[string]any, []any:
			return nil, ErrInvalidStep.With(
				slog.String("reason", "arg is not an expression"),
				slog.Int("arg", i),
			)
		default:
			args[i] = fmt.Sprint(v)
		}
	}

	return args, nil
}
