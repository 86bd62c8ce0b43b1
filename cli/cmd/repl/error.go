package repl

import (
	"errors"

	"github.com/ardnew/codeblock/block"
)

// Sentinel errors.
var (
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
	ErrNoManifest   = errors.New("no manifest loaded")

	ErrSyntax = block.NewError("syntax error")
)
