package cfg

import (
	"errors"
	"fmt"
)

// Sentinel errors of CFG validation.
var (
	// ErrNoBlocks is returned for a function without blocks.
	ErrNoBlocks = errors.New("function has no blocks")

	// ErrNoSelfArgument is returned when block 1 lacks the function value argument.
	ErrNoSelfArgument = errors.New("entry block has no self argument")

	// ErrDuplicateVar is returned when a variable is defined twice.
	ErrDuplicateVar = errors.New("variable defined more than once")

	// ErrUndefinedVar is returned when an operand refers to a variable nobody defines.
	ErrUndefinedVar = errors.New("undefined variable")

	// ErrBadTarget is returned for jumps outside of the block range.
	ErrBadTarget = errors.New("jump target out of range")

	// ErrArgCount is returned when a jump passes a wrong number of arguments.
	ErrArgCount = errors.New("jump argument count mismatch")

	// ErrEntryTarget is returned when something transfers control to block 1.
	ErrEntryTarget = errors.New("entry block is a jump target")

	// ErrFallsOffEnd is returned when the last block can fall through.
	ErrFallsOffEnd = errors.New("last block falls through")

	// ErrMalformed is returned for nil expressions, nil operands and the like.
	ErrMalformed = errors.New("malformed function")
)

// Validate checks structural consistency of the function.
func Validate(f *Function) error {
	if len(f.Blocks) == 0 {
		return fmt.Errorf("%s: %w", f.Name, ErrNoBlocks)
	}
	if len(f.Blocks[0].Args) == 0 {
		return fmt.Errorf("%s: %w", f.Name, ErrNoSelfArgument)
	}

	defined := map[VarID]int{}
	define := func(block int, v VarID) error {
		if v <= 0 {
			return fmt.Errorf("%s: block %d: variable %d: %w", f.Name, block, v, ErrMalformed)
		}
		if prev, ok := defined[v]; ok {
			return fmt.Errorf("%s: block %d: %%%d first defined in block %d: %w", f.Name, block, v, prev, ErrDuplicateVar)
		}
		defined[v] = block
		return nil
	}

	for i, b := range f.Blocks {
		if b == nil {
			return fmt.Errorf("%s: block %d is nil: %w", f.Name, i+1, ErrMalformed)
		}
		for _, a := range b.Args {
			if err := define(i+1, a); err != nil {
				return err
			}
		}
		for _, s := range b.Stmts {
			if s.Expr == nil {
				return fmt.Errorf("%s: block %d: %%%d has no expression: %w", f.Name, i+1, s.Var, ErrMalformed)
			}
			if err := define(i+1, s.Var); err != nil {
				return err
			}
		}
	}

	checkOperand := func(block int, op Operand) error {
		switch v := op.(type) {
		case nil:
			return fmt.Errorf("%s: block %d: nil operand: %w", f.Name, block, ErrMalformed)
		case Var:
			if _, ok := defined[v.ID]; !ok {
				return fmt.Errorf("%s: block %d: %%%d: %w", f.Name, block, v.ID, ErrUndefinedVar)
			}
		}
		return nil
	}

	for i, b := range f.Blocks {
		index := i + 1
		for _, s := range b.Stmts {
			for _, op := range Operands(s.Expr) {
				if err := checkOperand(index, op); err != nil {
					return err
				}
			}
		}

		for k, br := range b.Branches {
			switch br.Kind {
			case BranchReturn:
				if br.Cond != nil {
					return fmt.Errorf("%s: block %d: branch %d is a conditional return: %w", f.Name, index, k+1, ErrMalformed)
				}
				if err := checkOperand(index, br.Value); err != nil {
					return fmt.Errorf("return value: %w", err)
				}
			case BranchJump:
				target := f.Block(br.Target)
				if target == nil {
					return fmt.Errorf("%s: block %d: branch %d to %d: %w", f.Name, index, k+1, br.Target, ErrBadTarget)
				}
				if br.Target == 1 {
					return fmt.Errorf("%s: block %d: branch %d: %w", f.Name, index, k+1, ErrEntryTarget)
				}
				if len(br.Args) != len(target.Args) {
					return fmt.Errorf(
						"%s: block %d: branch %d passes %d arguments to block %d expecting %d: %w",
						f.Name, index, k+1, len(br.Args), br.Target, len(target.Args), ErrArgCount,
					)
				}
				for _, op := range br.Args {
					if err := checkOperand(index, op); err != nil {
						return err
					}
				}
				if br.Cond != nil {
					if err := checkOperand(index, br.Cond); err != nil {
						return err
					}
				}
			default:
				return fmt.Errorf("%s: block %d: branch %d has kind %d: %w", f.Name, index, k+1, br.Kind, ErrMalformed)
			}
		}

		if b.FallsThrough() {
			next := f.Block(index + 1)
			if next == nil {
				return fmt.Errorf("%s: block %d: %w", f.Name, index, ErrFallsOffEnd)
			}
			if len(next.Args) != 0 {
				return fmt.Errorf(
					"%s: block %d falls through into block %d expecting %d arguments: %w",
					f.Name, index, index+1, len(next.Args), ErrArgCount,
				)
			}
		}
	}

	return nil
}
