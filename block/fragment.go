package block

import (
	"iter"
	"log/slog"
	"reflect"
	"slices"
	"strings"
)

// Fragment is an immutable sequence of format parts and the arguments bound
// to its argument-consuming directives.
//
// The number of parts that consume an argument always equals the number of
// arguments, in the same relative order. The zero Fragment is empty.
type Fragment struct {
	parts []Part
	args  []any
}

// Of parses format with args into a new [Fragment].
func Of(format string, args ...any) (*Fragment, error) {
	return NewBuilder().Add(format, args...).Build()
}

// MustOf is like [Of] but panics if format is malformed or args does not
// match it.
func MustOf(format string, args ...any) *Fragment {
	f, err := Of(format, args...)
	if err != nil {
		panic(err)
	}

	return f
}

// IsEmpty reports whether f has no format parts.
func (f *Fragment) IsEmpty() bool {
	return f == nil || len(f.parts) == 0
}

// Len returns the number of format parts in f.
func (f *Fragment) Len() int {
	if f == nil {
		return 0
	}

	return len(f.parts)
}

// Parts returns a copy of the format parts of f.
func (f *Fragment) Parts() []Part {
	if f == nil {
		return nil
	}

	return slices.Clone(f.parts)
}

// Args returns a copy of the arguments of f.
// The argument values themselves are not copied.
func (f *Fragment) Args() []any {
	if f == nil {
		return nil
	}

	return slices.Clone(f.args)
}

// All returns an iterator over the parts of f from left to right.
// Each argument-consuming directive is yielded with its bound argument;
// every other part is yielded with nil.
func (f *Fragment) All() iter.Seq2[Part, any] {
	return func(yield func(Part, any) bool) {
		if f == nil {
			return
		}

		next := 0

		for _, p := range f.parts {
			var arg any

			if p.ConsumesArg() {
				arg = f.args[next]
				next++
			}

			if !yield(p, arg) {
				return
			}
		}
	}
}

// Format returns the concatenation of all parts of f.
//
// Parsing the result with the arguments of f yields the same directives and
// arguments, with adjacent literal parts merged.
func (f *Fragment) Format() string {
	if f == nil {
		return ""
	}

	var sb strings.Builder

	for _, p := range f.parts {
		sb.WriteString(string(p))
	}

	return sb.String()
}

// String implements fmt.Stringer.
func (f *Fragment) String() string {
	return f.Format()
}

// Equal reports whether f and other hold equal parts and deeply equal
// arguments.
func (f *Fragment) Equal(other *Fragment) bool {
	if f.IsEmpty() || other.IsEmpty() {
		return f.IsEmpty() && other.IsEmpty()
	}

	if !slices.Equal(f.parts, other.parts) || len(f.args) != len(other.args) {
		return false
	}

	for i := range f.args {
		if !reflect.DeepEqual(f.args[i], other.args[i]) {
			return false
		}
	}

	return true
}

// LogValue implements slog.LogValuer.
func (f *Fragment) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("format", f.Format()),
		slog.Int("parts", f.Len()),
		slog.Int("args", len(f.Args())),
	)
}
