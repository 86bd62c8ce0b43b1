package profile

import (
	"slices"
	"testing"
)

func TestProfiler_Disabled(t *testing.T) {
	tests := []struct {
		name string
		p    Profiler
	}{
		{name: "zero", p: Profiler{}},
		{name: "unknown mode", p: Profiler{Mode: "bogus", Path: t.TempDir()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.p.Enabled() {
				t.Errorf("Enabled() = true for mode %q", tt.p.Mode)
			}

			s := tt.p.Start()
			if _, ok := s.(ignore); !ok {
				t.Errorf("Start() = %T, want no-op", s)
			}

			s.Stop()
			s.Stop()
		})
	}
}

func TestModes(t *testing.T) {
	modes := Modes()

	if !slices.IsSorted(modes) {
		t.Errorf("Modes() = %v, want sorted", modes)
	}

	for _, m := range modes {
		if !(Profiler{Mode: m}).Enabled() {
			t.Errorf("Profiler{Mode: %q}.Enabled() = false", m)
		}
	}
}
