//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the codeblock module embedded at build
// time.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command and module identifier used in help text
	// and default config paths.
	Name = "codeblock"
	// Description is a short summary of the project used in help output.
	Description = "Source code fragment builder"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
