package interp

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"
)

// Object is a value built by the new special form.
type Object struct {
	Type   any
	Fields []any
}

func (o Object) String() string {
	return fmt.Sprintf("%v%v", o.Type, o.Fields)
}

var defaultSpecials = map[string]SpecialForm{
	// $new(type, fields...)
	"new": func(ctx context.Context, m *Machine, args []any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("$new: %w", ErrArity)
		}
		return Object{Type: args[0], Fields: append([]any(nil), args[1:]...)}, nil
	},

	// $boundscheck(index, length) returns index if it lies in [0, length).
	"boundscheck": func(ctx context.Context, m *Machine, args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("$boundscheck: %w", ErrArity)
		}
		index, ok1 := args[0].(int64)
		length, ok2 := args[1].(int64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("$boundscheck(%T, %T): %w", args[0], args[1], ErrConversion)
		}
		if index < 0 || index >= length {
			return nil, fmt.Errorf("index %d with length %d: %w", index, length, ErrOutOfBounds)
		}
		return index, nil
	},

	// $foreigncall(name, args...) calls a global by its name.
	"foreigncall": func(ctx context.Context, m *Machine, args []any) (any, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("$foreigncall: %w", ErrArity)
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("$foreigncall name is %T: %w", args[0], ErrNotCallable)
		}
		f, ok := m.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("$foreigncall %s: %w", name, ErrUnknownGlobal)
		}
		return m.Call(ctx, f, args[1:])
	},

	// $convert(type, value) follows Go conversions between basic types.
	"convert": func(ctx context.Context, m *Machine, args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("$convert: %w", ErrArity)
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("$convert type is %T: %w", args[0], ErrConversion)
		}
		return Convert(name, args[1])
	},
}

// Convert converts a value into the basic type with the given name. The
// supported conversions are
//
//	int, int64  from int64, and from finite float64 within the int64 range (truncated)
//	float64     from int64 and float64
//	string      from string, and from int64 as a code point
//	bool        from bool
//
// Integers of other widths and float32 are not supported.
func Convert(typeName string, v any) (any, error) {
	switch typeName {
	case "int", "int64":
		switch v := v.(type) {
		case int64:
			return v, nil
		case float64:
			// -2^63 is exact, 2^63 is the first value past the range.
			if math.IsNaN(v) || v < math.MinInt64 || v >= -math.MinInt64 {
				return nil, fmt.Errorf("%v to %s: %w", v, typeName, ErrConversion)
			}
			return int64(v), nil
		}

	case "float64":
		switch v := v.(type) {
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		}

	case "string":
		switch v := v.(type) {
		case string:
			return v, nil
		case int64:
			if v < 0 || v > utf8.MaxRune {
				return string(utf8.RuneError), nil
			}
			return string(rune(v)), nil
		}

	case "bool":
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}

	return nil, fmt.Errorf("%T to %s: %w", v, typeName, ErrConversion)
}
