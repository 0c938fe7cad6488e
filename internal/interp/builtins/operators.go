package builtins

import (
	"context"
	"errors"
	"fmt"
	"go/constant"
	"go/token"
	"math/big"

	"github.com/sirkon/tapegraph/internal/interp"
)

var (
	// ErrOperand is returned for operands an operator is not defined on.
	ErrOperand = errors.New("invalid operand")

	// ErrDivisionByZero is returned for integer division and remainder by zero.
	ErrDivisionByZero = errors.New("division by zero")
)

var intOnly = map[token.Token]bool{
	token.REM:     true,
	token.AND:     true,
	token.OR:      true,
	token.XOR:     true,
	token.AND_NOT: true,
}

// lift turns a Go value into a constant. Integers of any width become int64
// constants.
func lift(v any) (constant.Value, error) {
	switch v := v.(type) {
	case int64:
		return constant.MakeInt64(v), nil
	case int:
		return constant.MakeInt64(int64(v)), nil
	case int32:
		return constant.MakeInt64(int64(v)), nil
	case uint8:
		return constant.MakeInt64(int64(v)), nil
	case float64:
		return constant.MakeFloat64(v), nil
	case float32:
		return constant.MakeFloat64(float64(v)), nil
	case string:
		return constant.MakeString(v), nil
	case bool:
		return constant.MakeBool(v), nil
	default:
		return nil, fmt.Errorf("%T: %w", v, ErrOperand)
	}
}

var wordMask = new(big.Int).SetUint64(^uint64(0))

// lower turns a constant back into a Go value. Integers keep the int64
// wraparound of Go arithmetic.
func lower(c constant.Value) (any, error) {
	switch c.Kind() {
	case constant.Bool:
		return constant.BoolVal(c), nil
	case constant.String:
		return constant.StringVal(c), nil
	case constant.Int:
		if v, exact := constant.Int64Val(c); exact {
			return v, nil
		}
		n, ok := new(big.Int).SetString(c.ExactString(), 10)
		if !ok {
			return nil, fmt.Errorf("integer %s: %w", c, ErrOperand)
		}
		return int64(n.And(n, wordMask).Uint64()), nil
	case constant.Float:
		v, _ := constant.Float64Val(c)
		return v, nil
	default:
		return nil, fmt.Errorf("constant %s: %w", c, ErrOperand)
	}
}

// balance brings numeric operands to a common kind the way untyped Go
// constants are: one float operand makes both floats.
func balance(x, y constant.Value) (constant.Value, constant.Value) {
	if x.Kind() == constant.Float && y.Kind() == constant.Int {
		return x, constant.ToFloat(y)
	}
	if x.Kind() == constant.Int && y.Kind() == constant.Float {
		return constant.ToFloat(x), y
	}
	return x, y
}

func binary(op token.Token) interp.Native {
	return func(ctx context.Context, args []any) (any, error) {
		x, y, err := operands2(op, args)
		if err != nil {
			return nil, err
		}
		x, y = balance(x, y)
		if x.Kind() != y.Kind() {
			return nil, fmt.Errorf("%s %s %s: %w", x.Kind(), op, y.Kind(), ErrOperand)
		}

		switch {
		case op == token.LAND || op == token.LOR:
			if x.Kind() != constant.Bool {
				return nil, fmt.Errorf("%s on %s: %w", op, x.Kind(), ErrOperand)
			}
		case op == token.ADD && x.Kind() == constant.String:
		case x.Kind() != constant.Int && x.Kind() != constant.Float:
			return nil, fmt.Errorf("%s on %s: %w", op, x.Kind(), ErrOperand)
		case intOnly[op] && x.Kind() != constant.Int:
			return nil, fmt.Errorf("%s on %s: %w", op, x.Kind(), ErrOperand)
		}

		o := op
		if op == token.QUO || op == token.REM {
			if x.Kind() == constant.Int && constant.Sign(y) == 0 {
				return nil, ErrDivisionByZero
			}
			if x.Kind() == constant.Float && constant.Sign(y) == 0 {
				// go/constant has no infinities.
				fx, _ := constant.Float64Val(x)
				fy, _ := constant.Float64Val(y)
				return fx / fy, nil
			}
			if op == token.QUO && x.Kind() == constant.Int {
				// Integer division, plain QUO would produce a rational.
				o = token.QUO_ASSIGN
			}
		}

		return lower(constant.BinaryOp(x, o, y))
	}
}

func compare(op token.Token) interp.Native {
	return func(ctx context.Context, args []any) (any, error) {
		x, y, err := operands2(op, args)
		if err != nil {
			return nil, err
		}
		x, y = balance(x, y)
		if x.Kind() != y.Kind() {
			return nil, fmt.Errorf("%s %s %s: %w", x.Kind(), op, y.Kind(), ErrOperand)
		}
		if x.Kind() == constant.Bool && op != token.EQL && op != token.NEQ {
			return nil, fmt.Errorf("%s on bool: %w", op, ErrOperand)
		}
		return constant.Compare(x, op, y), nil
	}
}

func shift(op token.Token) interp.Native {
	return func(ctx context.Context, args []any) (any, error) {
		x, y, err := operands2(op, args)
		if err != nil {
			return nil, err
		}
		if x.Kind() != constant.Int || y.Kind() != constant.Int {
			return nil, fmt.Errorf("%s %s %s: %w", x.Kind(), op, y.Kind(), ErrOperand)
		}
		s, exact := constant.Uint64Val(y)
		if !exact || s > 64 {
			s = 64
		}
		return lower(constant.Shift(x, op, uint(s)))
	}
}

func unary(op token.Token) interp.Native {
	return func(ctx context.Context, args []any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: %w", op, interp.ErrArity)
		}
		x, err := lift(args[0])
		if err != nil {
			return nil, err
		}
		switch {
		case op == token.NOT && x.Kind() != constant.Bool,
			op == token.XOR && x.Kind() != constant.Int,
			op == token.SUB && x.Kind() != constant.Int && x.Kind() != constant.Float:
			return nil, fmt.Errorf("%s on %s: %w", op, x.Kind(), ErrOperand)
		}
		return lower(constant.UnaryOp(op, x, 0))
	}
}

func operands2(op token.Token, args []any) (constant.Value, constant.Value, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s takes 2 arguments, got %d: %w", op, len(args), interp.ErrArity)
	}
	x, err := lift(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%s left: %w", op, err)
	}
	y, err := lift(args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%s right: %w", op, err)
	}
	return x, y, nil
}
