package interp

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/sirkon/tapegraph/internal/cfg"
)

// Native is a function implemented in Go.
type Native func(ctx context.Context, args []any) (any, error)

// SpecialForm evaluates a non-call form with already evaluated operands.
type SpecialForm func(ctx context.Context, m *Machine, args []any) (any, error)

// DefaultMaxSteps is the default statement budget of a single invocation.
const DefaultMaxSteps = 10_000_000

// Machine runs cfg functions against a table of globals.
//
// Definitions are expected to happen before the machine is used, after that
// a Machine can run any number of invocations concurrently.
type Machine struct {
	globals  map[string]any
	specials map[string]SpecialForm
	maxSteps int
	log      *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxSteps limits the number of statements and branches a single
// invocation may execute. Nested invocations have budgets of their own.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		m.maxSteps = n
	}
}

// WithLogger sets the logger for debug output about invocations.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		m.log = l
	}
}

// New creates a machine with the default special forms and no globals.
func New(opts ...Option) *Machine {
	m := &Machine{
		globals:  map[string]any{},
		specials: maps.Clone(defaultSpecials),
		maxSteps: DefaultMaxSteps,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Define binds a global name to a value.
func (m *Machine) Define(name string, value any) {
	m.globals[name] = value
}

// DefineNatives binds every native of the table.
func (m *Machine) DefineNatives(natives map[string]Native) {
	for name, f := range natives {
		m.globals[name] = f
	}
}

// Lookup returns the value of a global.
func (m *Machine) Lookup(name string) (any, bool) {
	v, ok := m.globals[name]
	return v, ok
}

// DefineSpecial registers or replaces a special form.
func (m *Machine) DefineSpecial(head string, f SpecialForm) {
	m.specials[head] = f
}

// EvalSpecial evaluates a special form.
func (m *Machine) EvalSpecial(ctx context.Context, head string, args []any) (any, error) {
	f, ok := m.specials[head]
	if !ok {
		return nil, fmt.Errorf("$%s: %w", head, ErrUnknownSpecial)
	}
	return f(ctx, m, args)
}

// Call calls a native or a cfg function. A cfg function receives itself as
// the function value.
func (m *Machine) Call(ctx context.Context, callee any, args []any) (any, error) {
	switch f := callee.(type) {
	case Native:
		return f(ctx, args)
	case func(context.Context, []any) (any, error):
		return f(ctx, args)
	case *cfg.Function:
		return m.Invoke(ctx, f, f, args)
	default:
		return nil, fmt.Errorf("call %T: %w", callee, ErrNotCallable)
	}
}

// Invoke runs fn binding the first argument of the entry block to self and
// the rest to args.
func (m *Machine) Invoke(ctx context.Context, fn *cfg.Function, self any, args []any) (any, error) {
	entry := fn.Block(1)
	if entry == nil {
		return nil, &RuntimeError{Function: fn.Name, Block: 1, Err: ErrFallthroughOffEnd}
	}
	if len(entry.Args) != len(args)+1 {
		return nil, &RuntimeError{
			Function: fn.Name,
			Block:    1,
			Err:      fmt.Errorf("%w: want %d, got %d", ErrArity, len(entry.Args)-1, len(args)),
		}
	}

	m.log.Debug("invoke", slog.String("function", fn.Name), slog.Int("args", len(args)))

	fr := &frame{
		m:     m,
		fn:    fn,
		env:   make(map[cfg.VarID]any, fn.MaxVar()),
		steps: m.maxSteps,
	}
	fr.bind(entry.Args, append([]any{self}, args...))
	return fr.run(ctx)
}

// frame is the state of a single invocation.
type frame struct {
	m     *Machine
	fn    *cfg.Function
	env   map[cfg.VarID]any
	steps int
}

func (fr *frame) bind(vars []cfg.VarID, values []any) {
	for i, v := range vars {
		fr.env[v] = values[i]
	}
}

func (fr *frame) fail(block int, v cfg.VarID, err error) error {
	return &RuntimeError{Function: fr.fn.Name, Block: block, Var: v, Err: err}
}

func (fr *frame) step(block int, v cfg.VarID) error {
	if fr.steps <= 0 {
		return fr.fail(block, v, ErrStepLimit)
	}
	fr.steps--
	return nil
}

func (fr *frame) run(ctx context.Context) (any, error) {
	index := 1
	for {
		b := fr.fn.Block(index)
		if b == nil {
			return nil, fr.fail(index-1, 0, ErrFallthroughOffEnd)
		}

		for _, s := range b.Stmts {
			if err := fr.step(index, s.Var); err != nil {
				return nil, err
			}
			v, err := fr.eval(ctx, s.Expr)
			if err != nil {
				return nil, fr.fail(index, s.Var, err)
			}
			fr.env[s.Var] = v
		}

		next, done, result, err := fr.branch(index, b)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}
		index = next
	}
}

// branch takes the first branch whose condition holds. Without one control
// goes to the next block.
func (fr *frame) branch(index int, b *cfg.Block) (next int, done bool, result any, err error) {
	for _, br := range b.Branches {
		if err := fr.step(index, 0); err != nil {
			return 0, false, nil, err
		}

		if br.Cond != nil {
			c, err := fr.operand(br.Cond)
			if err != nil {
				return 0, false, nil, fr.fail(index, 0, err)
			}
			taken, ok := c.(bool)
			if !ok {
				return 0, false, nil, fr.fail(index, 0, fmt.Errorf("%T: %w", c, ErrCondition))
			}
			if !taken {
				continue
			}
		}

		switch br.Kind {
		case cfg.BranchReturn:
			v, err := fr.operand(br.Value)
			if err != nil {
				return 0, false, nil, fr.fail(index, 0, err)
			}
			return 0, true, v, nil

		case cfg.BranchJump:
			target := fr.fn.Block(br.Target)
			if target == nil || len(target.Args) != len(br.Args) {
				return 0, false, nil, fr.fail(index, 0, fmt.Errorf("jump to %d: %w", br.Target, ErrArity))
			}
			values, err := fr.operands(br.Args)
			if err != nil {
				return 0, false, nil, fr.fail(index, 0, err)
			}
			fr.bind(target.Args, values)
			return br.Target, false, nil, nil
		}
	}

	return index + 1, false, nil, nil
}

func (fr *frame) eval(ctx context.Context, e cfg.Expr) (any, error) {
	switch e := e.(type) {
	case *cfg.Call:
		callee, err := fr.operand(e.Callee)
		if err != nil {
			return nil, err
		}
		args, err := fr.operands(e.Args)
		if err != nil {
			return nil, err
		}
		return fr.m.Call(ctx, callee, args)

	case *cfg.Special:
		args, err := fr.operands(e.Args)
		if err != nil {
			return nil, err
		}
		return fr.m.EvalSpecial(ctx, e.Head, args)

	case *cfg.Value:
		return fr.operand(e.Operand)

	default:
		return nil, fmt.Errorf("expression %T: %w", e, cfg.ErrMalformed)
	}
}

func (fr *frame) operand(op cfg.Operand) (any, error) {
	switch op := op.(type) {
	case cfg.Var:
		v, ok := fr.env[op.ID]
		if !ok {
			return nil, fmt.Errorf("%%%d: %w", op.ID, ErrUnboundVariable)
		}
		return v, nil
	case cfg.Literal:
		return op.Value, nil
	case cfg.Global:
		v, ok := fr.m.Lookup(op.Name)
		if !ok {
			return nil, fmt.Errorf("%s: %w", op.Name, ErrUnknownGlobal)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("operand %T: %w", op, cfg.ErrMalformed)
	}
}

func (fr *frame) operands(ops []cfg.Operand) ([]any, error) {
	res := make([]any, len(ops))
	for i, op := range ops {
		v, err := fr.operand(op)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}
