package types

import "errors"

// Domain errors
var (
	// ErrGrammarDefect marks an internal invariant violation in the parser,
	// such as a relation shape with no form table entry.
	ErrGrammarDefect = errors.New("grammar defect")

	// Element validation errors
	ErrInvalidElementKind = errors.New("invalid element kind")
	ErrEmptyElementName   = errors.New("element name cannot be empty")
	ErrInvalidLine        = errors.New("line must be >= 1")
	ErrInvalidRank        = errors.New("rank must be >= 1")
	ErrMissingFileInfo    = errors.New("file info is required")
)
