package interp

import (
	"errors"
	"fmt"

	"github.com/sirkon/tapegraph/internal/cfg"
)

var (
	// ErrUnboundVariable is returned when a variable is read before it was set.
	ErrUnboundVariable = errors.New("unbound variable")

	// ErrUnknownGlobal is returned for globals the machine has no definition for.
	ErrUnknownGlobal = errors.New("unknown global")

	// ErrUnknownSpecial is returned for special forms with unknown heads.
	ErrUnknownSpecial = errors.New("unknown special form")

	// ErrNotCallable is returned when a call targets a value that cannot be called.
	ErrNotCallable = errors.New("value is not callable")

	// ErrFallthroughOffEnd is returned when the last block takes no branch.
	ErrFallthroughOffEnd = errors.New("control falls off the last block")

	// ErrArity is returned when the number of arguments does not match.
	ErrArity = errors.New("wrong number of arguments")

	// ErrCondition is returned for branch conditions that are not booleans.
	ErrCondition = errors.New("condition is not a boolean")

	// ErrStepLimit is returned when an invocation runs too many statements.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrOutOfBounds is returned by the boundscheck special form.
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrConversion is returned by the convert special form.
	ErrConversion = errors.New("unsupported conversion")
)

// RuntimeError is an execution failure with the place it happened at.
type RuntimeError struct {
	Function string
	Block    int

	// Var is the statement being executed, zero for branches.
	Var cfg.VarID
	Err error
}

func (e *RuntimeError) Error() string {
	if e.Var != 0 {
		return fmt.Sprintf("%s: block %d: %%%d: %s", e.Function, e.Block, e.Var, e.Err)
	}
	return fmt.Sprintf("%s: block %d: %s", e.Function, e.Block, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
