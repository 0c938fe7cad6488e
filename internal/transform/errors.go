package transform

import "errors"

var (
	// ErrInvalidCFG wraps the reason the input did not pass cfg.Validate.
	ErrInvalidCFG = errors.New("invalid control-flow graph")

	// ErrUnrecognizedStatement is returned for statements of unknown shape.
	ErrUnrecognizedStatement = errors.New("unrecognized statement")

	// ErrEntryIsJumpTarget is returned when control can be transferred to the
	// entry block, which would record the function arguments twice.
	ErrEntryIsJumpTarget = errors.New("entry block is a jump target")

	// ErrRecorderInitialized is returned when a rewrite tries to create the
	// recorder a second time.
	ErrRecorderInitialized = errors.New("recorder is already initialized")
)
