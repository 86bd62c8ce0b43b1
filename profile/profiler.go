package profile

import "slices"

// Profiler selects a profiling mode and the directory its output is written
// to. The zero Profiler is disabled.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Stopper stops a running profiler.
type Stopper interface{ Stop() }

// Start starts profiling and returns a handle for stopping it.
//
// If the pprof build tag is unset, p.Mode is empty, or p.Mode is not one of
// [Modes], Start returns a no-op. Both Start and Stop are always safely
// callable.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

// Enabled reports whether p selects a supported mode.
func (p Profiler) Enabled() bool {
	return slices.Contains(Modes(), p.Mode)
}

type ignore struct{}

func (ignore) Stop() {}
