package transform

import (
	"reflect"
	"testing"

	"github.com/sirkon/deepequal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirkon/tapegraph/internal/cfg"
	"github.com/sirkon/tapegraph/internal/tape"
)

func v(id cfg.VarID) cfg.Var {
	return cfg.Var{ID: id}
}

func lit(value any) cfg.Literal {
	return cfg.Literal{Value: value}
}

func call(callee cfg.Operand, args ...cfg.Operand) *cfg.Call {
	return &cfg.Call{Callee: callee, Args: args}
}

func intrinsic(name string, args ...cfg.Operand) *cfg.Call {
	return call(cfg.Global{Name: name}, args...)
}

func argument(loc tape.Location, ordinal int) cfg.Literal {
	return lit(&tape.Template{
		Kind:     tape.TemplateArgument,
		Location: loc,
		Ordinal:  ordinal,
		Operands: []tape.Operand{tape.ConstantOperand()},
	})
}

// increment is f(x) = x + 1.
func increment() *cfg.Function {
	return &cfg.Function{
		Name: "increment",
		Blocks: []*cfg.Block{
			{
				Args:     []cfg.VarID{1, 2},
				Stmts:    []cfg.Stmt{{Var: 3, Expr: call(cfg.Global{Name: "+"}, v(2), lit(1))}},
				Branches: []cfg.Branch{cfg.Return(v(3))},
			},
		},
	}
}

// choose returns x+1 when c holds and 0 otherwise.
func choose() *cfg.Function {
	return &cfg.Function{
		Name: "choose",
		Blocks: []*cfg.Block{
			{
				Args:     []cfg.VarID{1, 2},
				Branches: []cfg.Branch{cfg.JumpIf(v(2), 3, lit(10))},
			},
			{
				Branches: []cfg.Branch{cfg.Return(lit(0))},
			},
			{
				Args:     []cfg.VarID{3},
				Stmts:    []cfg.Stmt{{Var: 4, Expr: call(cfg.Global{Name: "+"}, v(3), lit(1))}},
				Branches: []cfg.Branch{cfg.Return(v(4))},
			},
		},
	}
}

func TestTransformStraightLine(t *testing.T) {
	fn := increment()
	original := fn.String()

	got, err := Transform(fn)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(got))
	assert.Equal(t, original, fn.String(), "input must stay intact")

	const want = `increment
#1 (%1, %2)
    %4 = tape.new(%1, %2)
    %5 = tape.record(%4, <argument #1:%1 #1 const>, %1, <nil>)
    %6 = tape.record(%4, <argument #1:%2 #2 const>, %2, <nil>)
    %3 = tape.record(%4, <call #1:%3 const @#1:%2 const>, +, %2, 1)
    %7 = tape.pend(%4, <return #1:br1 @#1:%3>, %3)
    goto #2(%3, %7)
#2 (%8, %9)
    %10 = tape.finish(%4, %9, %8)
    return %10
`
	assert.Equal(t, want, got.String())
}

func TestTransformBranches(t *testing.T) {
	got, err := Transform(choose())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(got))

	expected := &cfg.Function{
		Name: "choose",
		Blocks: []*cfg.Block{
			{
				Args: []cfg.VarID{1, 2},
				Stmts: []cfg.Stmt{
					{Var: 5, Expr: intrinsic(IntrinsicNew, v(1), v(2))},
					{Var: 6, Expr: intrinsic(IntrinsicRecord, v(5), argument(tape.ArgumentAt(1, 1), 1), v(1), lit(nil))},
					{Var: 7, Expr: intrinsic(IntrinsicRecord, v(5), argument(tape.ArgumentAt(1, 2), 2), v(2), lit(nil))},
					{Var: 8, Expr: intrinsic(IntrinsicPend, v(5), lit(&tape.Template{
						Kind:        tape.TemplateJump,
						Location:    tape.BranchAt(1, 1),
						Target:      3,
						Operands:    []tape.Operand{tape.ConstantOperand(), tape.ReferenceOperand(tape.ArgumentAt(1, 2))},
						Conditional: true,
					}), lit(10), v(2))},
					{Var: 9, Expr: intrinsic(IntrinsicPend, v(5), lit(&tape.Template{
						Kind:     tape.TemplateJump,
						Location: tape.BranchAt(1, 2),
						Target:   2,
					}))},
				},
				Branches: []cfg.Branch{
					cfg.JumpIf(v(2), 3, lit(10), v(8)),
					cfg.Jump(2, v(9)),
				},
			},
			{
				Args: []cfg.VarID{10},
				Stmts: []cfg.Stmt{
					{Var: 11, Expr: intrinsic(IntrinsicEnter, v(5), v(10))},
					{Var: 12, Expr: intrinsic(IntrinsicPend, v(5), lit(&tape.Template{
						Kind:     tape.TemplateReturn,
						Location: tape.BranchAt(2, 1),
						Operands: []tape.Operand{tape.ConstantOperand()},
					}), lit(0))},
				},
				Branches: []cfg.Branch{cfg.Jump(4, lit(0), v(12))},
			},
			{
				Args: []cfg.VarID{3, 13},
				Stmts: []cfg.Stmt{
					{Var: 14, Expr: intrinsic(IntrinsicEnter, v(5), v(13))},
					{Var: 15, Expr: intrinsic(IntrinsicRecord, v(5), argument(tape.ArgumentAt(3, 3), 1), v(3), v(14))},
					{Var: 4, Expr: intrinsic(IntrinsicRecord, v(5), lit(&tape.Template{
						Kind:     tape.TemplateCall,
						Location: tape.StatementAt(3, 4),
						Operands: []tape.Operand{
							tape.ConstantOperand(),
							tape.ReferenceOperand(tape.ArgumentAt(3, 3)),
							tape.ConstantOperand(),
						},
					}), cfg.Global{Name: "+"}, v(3), lit(1))},
					{Var: 16, Expr: intrinsic(IntrinsicPend, v(5), lit(&tape.Template{
						Kind:     tape.TemplateReturn,
						Location: tape.BranchAt(3, 1),
						Operands: []tape.Operand{tape.ReferenceOperand(tape.StatementAt(3, 4))},
					}), v(4))},
				},
				Branches: []cfg.Branch{cfg.Jump(4, v(4), v(16))},
			},
			{
				Args:     []cfg.VarID{17, 18},
				Stmts:    []cfg.Stmt{{Var: 19, Expr: intrinsic(IntrinsicFinish, v(5), v(18), v(17))}},
				Branches: []cfg.Branch{cfg.Return(v(19))},
			},
		},
	}

	if !reflect.DeepEqual(expected, got) {
		deepequal.SideBySide(t, "instrumented", expected, got)
	}
}

func TestTransformSpecialAndConstant(t *testing.T) {
	fn := &cfg.Function{
		Name: "point",
		Blocks: []*cfg.Block{
			{
				Args: []cfg.VarID{1, 2},
				Stmts: []cfg.Stmt{
					{Var: 3, Expr: &cfg.Value{Operand: cfg.Global{Name: "Point"}}},
					{Var: 4, Expr: &cfg.Special{Head: "new", Args: []cfg.Operand{v(3), v(2), lit(0)}}},
				},
				Branches: []cfg.Branch{cfg.Return(v(4))},
			},
		},
	}

	got, err := Transform(fn)
	require.NoError(t, err)

	stmts := got.Blocks[0].Stmts
	require.Len(t, stmts, 6)

	assert.Equal(t, cfg.Stmt{Var: 3, Expr: intrinsic(IntrinsicRecord, v(5), lit(&tape.Template{
		Kind:     tape.TemplateConstant,
		Location: tape.StatementAt(1, 3),
		Operands: []tape.Operand{tape.ConstantOperand()},
	}), cfg.Global{Name: "Point"})}, stmts[3])
	assert.Equal(t, cfg.Stmt{Var: 4, Expr: intrinsic(IntrinsicRecord, v(5), lit(&tape.Template{
		Kind:     tape.TemplateSpecial,
		Location: tape.StatementAt(1, 4),
		Head:     "new",
		Operands: []tape.Operand{
			tape.ReferenceOperand(tape.StatementAt(1, 3)),
			tape.ReferenceOperand(tape.ArgumentAt(1, 2)),
			tape.ConstantOperand(),
		},
	}), v(3), v(2), lit(0))}, stmts[4])
}

func TestTransformErrors(t *testing.T) {
	type test struct {
		name string
		fn   *cfg.Function
		err  error
	}

	tests := []test{
		{
			name: "variable copy",
			fn: &cfg.Function{Name: "copy", Blocks: []*cfg.Block{{
				Args:     []cfg.VarID{1, 2},
				Stmts:    []cfg.Stmt{{Var: 3, Expr: &cfg.Value{Operand: v(2)}}},
				Branches: []cfg.Branch{cfg.Return(v(3))},
			}}},
			err: ErrUnrecognizedStatement,
		},
		{
			name: "unknown expression",
			fn: &cfg.Function{Name: "odd", Blocks: []*cfg.Block{{
				Args:     []cfg.VarID{1},
				Stmts:    []cfg.Stmt{{Var: 2, Expr: oddExpr{}}},
				Branches: []cfg.Branch{cfg.Return(v(2))},
			}}},
			err: ErrUnrecognizedStatement,
		},
		{
			name: "invalid",
			fn:   &cfg.Function{Name: "empty"},
			err:  ErrInvalidCFG,
		},
		{
			name: "loop into entry",
			fn: &cfg.Function{Name: "loop", Blocks: []*cfg.Block{{
				Args:     []cfg.VarID{1},
				Branches: []cfg.Branch{cfg.Jump(1)},
			}}},
			err: ErrInvalidCFG,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transform(tt.fn)
			require.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("conditional return", func(t *testing.T) {
		early := cfg.Return(lit(int64(0)))
		early.Cond = v(3)
		fn := &cfg.Function{Name: "early", Blocks: []*cfg.Block{
			{
				Args:     []cfg.VarID{1, 2},
				Stmts:    []cfg.Stmt{{Var: 3, Expr: call(cfg.Global{Name: "<"}, v(2), lit(int64(0)))}},
				Branches: []cfg.Branch{early, cfg.Jump(2)},
			},
			{Branches: []cfg.Branch{cfg.Return(v(2))}},
		}}

		_, err := Transform(fn)
		require.ErrorIs(t, err, ErrInvalidCFG)
		require.ErrorIs(t, err, cfg.ErrMalformed)
	})
}

type oddExpr struct {
	cfg.Expr
}

func TestRecorderInitializedOnce(t *testing.T) {
	rw := newRewriter(increment())
	in, stmt, err := rw.initRecorder([]cfg.VarID{1, 2})
	require.NoError(t, err)
	assert.Equal(t, in.rec, stmt.Var)

	_, _, err = rw.initRecorder([]cfg.VarID{1, 2})
	require.ErrorIs(t, err, ErrRecorderInitialized)
}

func TestJumpTargets(t *testing.T) {
	loop := &cfg.Function{
		Name: "loop",
		Blocks: []*cfg.Block{
			{Args: []cfg.VarID{1, 2}, Branches: []cfg.Branch{cfg.Jump(2, v(2))}},
			{
				Args: []cfg.VarID{3},
				Branches: []cfg.Branch{
					cfg.JumpIf(v(3), 2, v(3)),
					cfg.JumpIf(v(3), 2, v(3)),
				},
			},
			{Branches: []cfg.Branch{cfg.Return(lit(nil))}},
		},
	}

	assert.Equal(t, map[int][]int{2: {1, 2}, 3: {2}}, JumpTargets(loop))
	assert.Equal(t, map[int][]int{2: {1}, 3: {1}}, JumpTargets(choose()))
	assert.Empty(t, JumpTargets(increment()))
}
