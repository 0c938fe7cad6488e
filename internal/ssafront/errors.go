package ssafront

import (
	"errors"
	"fmt"
	"go/token"
)

// ErrUnsupported is what every UnsupportedError unwraps to.
var ErrUnsupported = errors.New("unsupported construct")

// UnsupportedError reports a construct the lowering has no counterpart for.
type UnsupportedError struct {
	Function string
	Pos      token.Pos
	What     string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Function, ErrUnsupported, e.What)
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupported
}
