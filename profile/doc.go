// Package profile provides optional runtime profiling for codeblock.
//
// Profiling wraps [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag ([Tag]). Without it, [Modes] is empty and
// [Profiler.Start] returns a no-op.
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles"}
//	defer p.Start().Stop()
//
// Profile files are written to Path with names matching the mode
// (cpu.pprof, mem.pprof, ...). Analyze them with go tool pprof:
//
//	go tool pprof -http=: /tmp/profiles/cpu.pprof
//
// The pprof build also imports [net/http/pprof], registering its handlers
// on the default mux.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
