//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"

	_ "net/http/pprof" // register HTTP handlers
)

// Modes returns the sorted list of supported profiling modes.
var Modes = sync.OnceValue(
	func() []string {
		return slices.Sorted(maps.Keys(mode))
	},
)

var mode = map[string]func(*profile.Profile){
	"block":     profile.BlockProfile,
	"cpu":       profile.CPUProfile,
	"clock":     profile.ClockProfile,
	"goroutine": profile.GoroutineProfile,
	"mem":       profile.MemProfile,
	"allocs":    profile.MemProfileAllocs,
	"heap":      profile.MemProfileHeap,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// option appends a pkg/profile option derived from a Profiler field.
type option func(opts []func(*profile.Profile), p Profiler) []func(*profile.Profile)

func start(p Profiler) Stopper {
	fn, ok := mode[p.Mode]
	if !ok {
		return ignore{}
	}

	opts := []func(*profile.Profile){fn}

	for _, opt := range []option{withPath, withQuiet} {
		opts = opt(opts, p)
	}

	return profile.Start(opts...)
}

func withPath(opts []func(*profile.Profile), p Profiler) []func(*profile.Profile) {
	if p.Path != "" {
		opts = append(opts, profile.ProfilePath(p.Path))
	}

	return opts
}

func withQuiet(opts []func(*profile.Profile), p Profiler) []func(*profile.Profile) {
	if p.Quiet {
		opts = append(opts, profile.Quiet)
	}

	return opts
}
