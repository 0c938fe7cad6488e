package tracer

import "errors"

var (
	// ErrIntrinsic is returned when an intrinsic is called with operands the
	// transformer never emits.
	ErrIntrinsic = errors.New("malformed intrinsic call")

	// ErrNotTraceable is returned for a nested call of something that is not
	// a cfg function.
	ErrNotTraceable = errors.New("callee cannot be traced")
)
