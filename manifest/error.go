package manifest

import "github.com/ardnew/codeblock/block"

// Predefined errors (sentinel values).
var (
	ErrReadInput         = block.NewError("failed to read input")
	ErrDecode            = block.NewError("failed to decode manifest")
	ErrUnknownStep       = block.NewError("unknown step kind")
	ErrInvalidStep       = block.NewError("invalid step")
	ErrDuplicateFragment = block.NewError("duplicate fragment")
	ErrUnknownFragment   = block.NewError("fragment not found")
	ErrCycle             = block.NewError("fragment reference cycle")
	ErrDependency        = block.NewError("dependency failed")
	ErrExprCompile       = block.NewError("expression compilation failed")
	ErrExprEvaluate      = block.NewError("expression evaluation failed")
	ErrBuild             = block.NewError("fragment build failed")
)
