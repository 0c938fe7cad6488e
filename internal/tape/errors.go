package tape

import "errors"

// Sentinel errors of recording.
var (
	// ErrUnknownDescription is returned by Recorder.Record for a description
	// kind it does not know about.
	ErrUnknownDescription = errors.New("unknown description kind")

	// ErrInvalidDescription is returned for descriptions whose payload is
	// inconsistent, like an argument ordinal below 1 or a branch reference
	// pointing to something other than a jump node.
	ErrInvalidDescription = errors.New("invalid description")

	// ErrUnresolvedReference is returned when a reference operand names a
	// location that has not been recorded in the current scope yet.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrDispatch marks failures of the dispatch policy while running a call.
	ErrDispatch = errors.New("dispatch failed")

	// ErrNoDispatcher is returned when a call is recorded by a Recorder
	// without a Dispatcher.
	ErrNoDispatcher = errors.New("no dispatcher configured")

	// ErrFrameMismatch is returned when a nested call does not produce its
	// trace into the node prepared for it.
	ErrFrameMismatch = errors.New("nested call trace does not match its frame")

	// ErrRecorderFinished is returned when recording continues after the
	// terminating return node.
	ErrRecorderFinished = errors.New("recorder is finished")

	// ErrInvalidTape is returned by Tape.Validate.
	ErrInvalidTape = errors.New("invalid tape")
)
