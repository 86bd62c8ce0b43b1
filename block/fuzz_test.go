package block

import (
	"errors"
	"testing"
)

func FuzzAppend(f *testing.F) {
	for _, seed := range []string{
		"", "$", "$$", "$L", "$L + $L", "$Z", "if ($N) {\n$>", "a$", "$$$", "$<$>",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, format string) {
		b := NewBuilder()

		err := b.Append(format)

		switch {
		case err == nil:
		case errors.Is(err, ErrMalformedTemplate):
			if !b.IsEmpty() {
				t.Fatalf("rejected format %q left %d parts", format, b.Len())
			}

			return
		case errors.Is(err, ErrArityMismatch):
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("unexpected error type %T", err)
			}

			v, _ := e.Attr("expected")

			if err := b.Append(format, make([]any, v.Int64())...); err != nil {
				t.Fatalf("expected arity rejected for %q: %v", format, err)
			}
		default:
			t.Fatalf("unexpected error for %q: %v", format, err)
		}

		frag, err := b.Build()
		if err != nil {
			t.Fatalf("build: %v", err)
		}

		if frag.Format() != format {
			t.Fatalf("parts of %q concatenate to %q", format, frag.Format())
		}

		n := 0

		for _, p := range frag.Parts() {
			if p == "" {
				t.Fatalf("empty part in %q", format)
			}

			if p.ConsumesArg() {
				n++
			}
		}

		if n != len(frag.Args()) {
			t.Fatalf("%q: %d consuming parts, %d args", format, n, len(frag.Args()))
		}
	})
}
