package cmd

import (
	"log/slog"

	"github.com/ardnew/codeblock/block"
)

var (
	ErrCommand     = block.NewError("command failed")
	ErrCheck       = block.NewError("manifest check failed")
	ErrParse       = block.NewError("parse format")
	ErrVar         = block.NewError("evaluate var")
	ErrYAMLMarshal = block.NewError("marshal YAML")
	ErrWriteConfig = block.NewError("write configuration file")
	ErrFileExists  = block.NewError("file exists (use --force to overwrite)")
)

// wrapCommand adds attrs to err, wrapping it in [ErrCommand] unless it
// already carries attributes.
func wrapCommand(err error, attrs ...slog.Attr) error {
	if e, ok := err.(*block.Error); ok {
		return e.With(attrs...)
	}

	return ErrCommand.Wrap(err).With(attrs...)
}
