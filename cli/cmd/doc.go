// Package cmd implements the codeblock subcommands: check, dump, parse,
// init, and repl.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file. It is also the name of the top-level mapping
	// holding flag values in that file.
	ConfigIdentifier = "config"
)
