// Package builtins provides the predefined natives of the interpreter:
// Go operators evaluated with go/constant and a handful of library functions
// named after their Go counterparts.
package builtins

import (
	"context"
	"fmt"
	"go/token"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/sirkon/tapegraph/internal/interp"
)

// New returns the table of natives. Custom entries take precedence over
// predefined ones with the same name.
func New(custom map[string]interp.Native) map[string]interp.Native {
	predefined := map[string]interp.Native{
		// Arithmetic.
		"+":  binary(token.ADD),
		"-":  binary(token.SUB),
		"*":  binary(token.MUL),
		"/":  binary(token.QUO),
		"%":  binary(token.REM),
		"&":  binary(token.AND),
		"|":  binary(token.OR),
		"^":  binary(token.XOR),
		"&^": binary(token.AND_NOT),
		"<<": shift(token.SHL),
		">>": shift(token.SHR),

		// Logic, SSA never emits these but hand written graphs do.
		"&&": binary(token.LAND),
		"||": binary(token.LOR),

		// Comparison.
		"==": compare(token.EQL),
		"!=": compare(token.NEQ),
		"<":  compare(token.LSS),
		"<=": compare(token.LEQ),
		">":  compare(token.GTR),
		">=": compare(token.GEQ),

		// Unary.
		"neg":   unary(token.SUB),
		"!":     unary(token.NOT),
		"not":   unary(token.NOT),
		"compl": unary(token.XOR),

		// Library functions.
		"len":             length,
		"math.Sqrt":       float1(math.Sqrt),
		"math.Abs":        float1(math.Abs),
		"math.Floor":      float1(math.Floor),
		"math.Max":        float2(math.Max),
		"math.Min":        float2(math.Min),
		"strings.ToUpper": string1(strings.ToUpper),
		"strings.ToLower": string1(strings.ToLower),
		"strings.Repeat":  repeat,
		"strconv.Itoa":    itoa,
	}

	res := maps.Clone(predefined)
	if custom != nil {
		maps.Insert(res, maps.All(custom))
	}

	return res
}

func float1(f func(float64) float64) interp.Native {
	return func(ctx context.Context, args []any) (any, error) {
		if len(args) != 1 {
			return nil, interp.ErrArity
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("%T: %w", args[0], ErrOperand)
		}
		return f(x), nil
	}
}

func float2(f func(float64, float64) float64) interp.Native {
	return func(ctx context.Context, args []any) (any, error) {
		if len(args) != 2 {
			return nil, interp.ErrArity
		}
		x, ok1 := args[0].(float64)
		y, ok2 := args[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("(%T, %T): %w", args[0], args[1], ErrOperand)
		}
		return f(x, y), nil
	}
}

func string1(f func(string) string) interp.Native {
	return func(ctx context.Context, args []any) (any, error) {
		if len(args) != 1 {
			return nil, interp.ErrArity
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("%T: %w", args[0], ErrOperand)
		}
		return f(s), nil
	}
}

func length(ctx context.Context, args []any) (any, error) {
	if len(args) != 1 {
		return nil, interp.ErrArity
	}
	switch v := args[0].(type) {
	case string:
		return int64(len(v)), nil
	case []any:
		return int64(len(v)), nil
	default:
		return nil, fmt.Errorf("len(%T): %w", args[0], ErrOperand)
	}
}

func repeat(ctx context.Context, args []any) (any, error) {
	if len(args) != 2 {
		return nil, interp.ErrArity
	}
	s, ok1 := args[0].(string)
	n, ok2 := args[1].(int64)
	if !ok1 || !ok2 || n < 0 {
		return nil, fmt.Errorf("strings.Repeat(%v, %v): %w", args[0], args[1], ErrOperand)
	}
	return strings.Repeat(s, int(n)), nil
}

func itoa(ctx context.Context, args []any) (any, error) {
	if len(args) != 1 {
		return nil, interp.ErrArity
	}
	n, ok := args[0].(int64)
	if !ok {
		return nil, fmt.Errorf("strconv.Itoa(%T): %w", args[0], ErrOperand)
	}
	return strconv.FormatInt(n, 10), nil
}
