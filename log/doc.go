// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Time formatting, caller information, level, and output format are applied
// at logger creation time using functional options.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("manifest loaded", slog.Int("fragments", 3))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithCaller(true))
//
// The zero [Logger] discards everything, so packages can hold one in a
// struct field and log unconditionally.
//
// # Default Logger
//
// Package-level functions such as [Info] and [TraceContext] write to a
// process-wide default logger that [Config] reconfigures. Context-unaware
// functions use [DefaultContextProvider].
//
// # Output Formats
//
// [FormatJSON] (default) and [FormatText] are supported. With
// [WithPretty] enabled, both are colorized for terminals.
package log
