// Package cli contains the command line interface for codeblock.
//
// # Usage
//
//	codeblock check fragments.yaml
//	codeblock dump parts -n guard fragments.yaml
//	codeblock parse 'if ($N > $L) {' "'count'" 10
//	codeblock -D limit=20 repl fragments.yaml
//
// # Configuration
//
// Flag values are read from config.yaml in the user configuration directory,
// under the top-level "config" mapping. The init command writes the current
// flag values to that file. Flags given on the command line take precedence.
//
//	config:
//	  log-level: debug
//	  log-format: text
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o codeblock .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/codeblock/pprof)
package cli
