package tape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDispatcher treats string callees as primitives computed by prims and
// func callees as nested calls.
type testDispatcher struct {
	prims map[string]func(args []any) (any, error)
}

type nestedFunc func(ctx context.Context, args []any) (any, *NestedCallNode, error)

func (d *testDispatcher) Classify(callee any, depth int) CallKind {
	if _, ok := callee.(nestedFunc); ok {
		return CallNested
	}
	return CallPrimitive
}

func (d *testDispatcher) CallPrimitive(ctx context.Context, callee any, args []any) (any, error) {
	name, _ := callee.(string)
	f, ok := d.prims[name]
	if !ok {
		return nil, errors.New("no such primitive " + name)
	}
	return f(args)
}

func (d *testDispatcher) CallNested(ctx context.Context, callee any, args []any) (any, *NestedCallNode, error) {
	return callee.(nestedFunc)(ctx, args)
}

func newTestDispatcher() *testDispatcher {
	return &testDispatcher{
		prims: map[string]func(args []any) (any, error){
			"+": func(args []any) (any, error) {
				return args[0].(int) + args[1].(int), nil
			},
			"fail": func(args []any) (any, error) {
				return nil, errors.New("boom")
			},
		},
	}
}

func mustDescribe(t *testing.T, r *Recorder, tmpl *Template, values ...any) Description {
	t.Helper()
	d, err := r.Describe(tmpl, values)
	require.NoError(t, err)
	return d
}

func mustRecord(t *testing.T, r *Recorder, tmpl *Template, values ...any) Node {
	t.Helper()
	n, err := r.Record(context.Background(), mustDescribe(t, r, tmpl, values...))
	require.NoError(t, err)
	return n
}

func argTemplate(block, v, ordinal int) *Template {
	return &Template{
		Kind:     TemplateArgument,
		Location: ArgumentAt(block, v),
		Ordinal:  ordinal,
		Operands: []Operand{ConstantOperand()},
	}
}

func TestRecorderStraightLine(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(ctx, "f", []any{41}, WithDispatcher(newTestDispatcher()))

	root := r.Tape().Root()
	require.NotNil(t, root)
	require.Same(t, root, r.Scope())
	assert.Equal(t, Constant{Value: "f"}, root.Callee)
	assert.Equal(t, []TapeValue{Constant{Value: 41}}, root.Arguments)
	assert.Equal(t, 0, r.Depth())

	self := mustRecord(t, r, argTemplate(1, 1, 1), "f", nil)
	x := mustRecord(t, r, argTemplate(1, 2, 2), 41, nil)

	sum := mustRecord(t, r, &Template{
		Kind:     TemplateCall,
		Location: StatementAt(1, 3),
		Operands: []Operand{ConstantOperand(), ReferenceOperand(ArgumentAt(1, 2)), ConstantOperand()},
	}, "+", 41, 1)
	call, ok := sum.(*PrimitiveCallNode)
	require.True(t, ok, "primitive call expected, got %T", sum)
	assert.Equal(t, Constant{Value: "+"}, call.Callee)
	assert.Equal(t, []TapeValue{Reference{Location: ArgumentAt(1, 2), Target: x.ID()}, Constant{Value: 1}}, call.Arguments)
	assert.Equal(t, 42, call.Result())

	desc := mustDescribe(t, r, &Template{
		Kind:     TemplateReturn,
		Location: BranchAt(1, 1),
		Operands: []Operand{ReferenceOperand(StatementAt(1, 3))},
	}, 42)
	res, err := r.Finish(ctx, desc.(*ReturnDesc))
	require.NoError(t, err)
	assert.Equal(t, 42, res.Value)
	assert.Same(t, root, res.Root)
	assert.Equal(t, 42, root.Result())

	require.NoError(t, r.Tape().Validate())
	assert.Equal(t, 5, r.Tape().Len())
	children := r.Tape().Children(root)
	require.Len(t, children, 4)
	assert.Equal(t, []Node{self, x, sum}, children[:3])
	for i, c := range children {
		assert.Equal(t, i+1, c.Position())
		assert.Equal(t, root.ID(), c.Parent())
	}
	assert.Equal(t, KindReturn, children[3].Kind())

	_, err = r.Record(ctx, desc)
	require.ErrorIs(t, err, ErrRecorderFinished)
}

func TestRecorderJumpArguments(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder(ctx, "g", []any{true}, WithDispatcher(newTestDispatcher()))
	mustRecord(t, r, argTemplate(1, 1, 1), "g", nil)
	mustRecord(t, r, argTemplate(1, 2, 2), true, nil)

	jump := mustRecord(t, r, &Template{
		Kind:        TemplateJump,
		Location:    BranchAt(1, 1),
		Target:      2,
		Operands:    []Operand{ConstantOperand(), ReferenceOperand(ArgumentAt(1, 2))},
		Conditional: true,
	}, 7, true)
	j := jump.(*JumpNode)
	assert.Equal(t, 2, j.Target)
	assert.Equal(t, []TapeValue{Constant{Value: 7}}, j.Arguments)
	assert.Equal(t, Reference{Location: ArgumentAt(1, 2), Target: 3}, j.Condition)
	assert.False(t, IsUnconditional(j.Condition))

	arg := mustRecord(t, r, argTemplate(2, 3, 1), 7, j.ID())
	assert.Equal(t, j.ID(), arg.(*ArgumentNode).Branch)
	require.NoError(t, r.Tape().Validate())

	// A branch pointing somewhere else than a jump is rejected.
	_, err := r.Record(ctx, &ArgumentDesc{Location: ArgumentAt(2, 4), Ordinal: 2, Value: Constant{Value: 1}, Branch: arg.ID()})
	require.ErrorIs(t, err, ErrInvalidDescription)
}

func TestRecorderLoopRebinding(t *testing.T) {
	r := NewRecorder(context.Background(), "loop", nil, WithDispatcher(newTestDispatcher()))
	first := mustRecord(t, r, argTemplate(2, 3, 1), 1, nil)
	second := mustRecord(t, r, argTemplate(2, 3, 1), 2, nil)
	require.NotEqual(t, first.ID(), second.ID())

	v, err := r.Reify(ReferenceOperand(ArgumentAt(2, 3)), 2)
	require.NoError(t, err)
	assert.Equal(t, Reference{Location: ArgumentAt(2, 3), Target: second.ID()}, v)
}

func TestRecorderNestedCall(t *testing.T) {
	ctx := context.Background()
	var inner *Recorder
	callee := nestedFunc(func(ctx context.Context, args []any) (any, *NestedCallNode, error) {
		inner = NewRecorder(ctx, "inner", args)
		a, err := inner.Describe(argTemplate(1, 2, 2), []any{args[0], nil})
		if err != nil {
			return nil, nil, err
		}
		if _, err := inner.Record(ctx, a); err != nil {
			return nil, nil, err
		}
		d, err := inner.Describe(&Template{
			Kind:     TemplateReturn,
			Location: BranchAt(1, 1),
			Operands: []Operand{ReferenceOperand(ArgumentAt(1, 2))},
		}, []any{args[0]})
		if err != nil {
			return nil, nil, err
		}
		res, err := inner.Finish(ctx, d.(*ReturnDesc))
		return res.Value, res.Root, err
	})

	r := NewRecorder(ctx, "outer", nil, WithDispatcher(newTestDispatcher()))
	n := mustRecord(t, r, &Template{
		Kind:     TemplateCall,
		Location: StatementAt(1, 2),
		Operands: []Operand{ConstantOperand(), ConstantOperand()},
	}, callee, 5)

	nested, ok := n.(*NestedCallNode)
	require.True(t, ok, "nested call expected, got %T", n)
	assert.Equal(t, 5, nested.Result())
	require.NotNil(t, inner)
	assert.Same(t, r.Tape(), inner.Tape())
	assert.Same(t, nested, inner.Scope())
	assert.Equal(t, 1, inner.Depth())
	require.Equal(t, 2, nested.NumChildren())

	children := r.Tape().Children(nested)
	assert.Equal(t, KindArgument, children[0].Kind())
	assert.Equal(t, KindReturn, children[1].Kind())
	require.NoError(t, r.Tape().Validate())
}

func TestRecorderFrameMismatch(t *testing.T) {
	ctx := context.Background()
	callee := nestedFunc(func(ctx context.Context, args []any) (any, *NestedCallNode, error) {
		// Somebody who records a trace of its own instead of joining the caller.
		r := NewRecorder(Detach(ctx), "stray", nil)
		return 1, r.Scope(), nil
	})

	r := NewRecorder(ctx, "outer", nil, WithDispatcher(newTestDispatcher()))
	d := mustDescribe(t, r, &Template{
		Kind:     TemplateCall,
		Location: StatementAt(1, 2),
		Operands: []Operand{ConstantOperand()},
	}, callee)
	_, err := r.Record(ctx, d)
	require.ErrorIs(t, err, ErrFrameMismatch)
}

func TestRecorderErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatch", func(t *testing.T) {
		r := NewRecorder(ctx, "f", nil, WithDispatcher(newTestDispatcher()))
		d := mustDescribe(t, r, &Template{
			Kind:     TemplateCall,
			Location: StatementAt(1, 2),
			Operands: []Operand{ConstantOperand()},
		}, "fail")
		_, err := r.Record(ctx, d)
		require.ErrorIs(t, err, ErrDispatch)
		assert.Contains(t, err.Error(), "#1:%2")
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("no dispatcher", func(t *testing.T) {
		r := NewRecorder(ctx, "f", nil)
		_, err := r.Record(ctx, &CallDesc{Location: StatementAt(1, 2), Callee: Constant{Value: "+"}, CalleeValue: "+"})
		require.ErrorIs(t, err, ErrNoDispatcher)
	})

	t.Run("unresolved reference", func(t *testing.T) {
		r := NewRecorder(ctx, "f", nil)
		_, err := r.Describe(&Template{
			Kind:     TemplateReturn,
			Location: BranchAt(1, 1),
			Operands: []Operand{ReferenceOperand(StatementAt(1, 9))},
		}, []any{1})
		require.ErrorIs(t, err, ErrUnresolvedReference)
	})

	t.Run("value count", func(t *testing.T) {
		r := NewRecorder(ctx, "f", nil)
		_, err := r.Describe(argTemplate(1, 1, 1), []any{1})
		require.ErrorIs(t, err, ErrInvalidDescription)
	})

	t.Run("unknown description", func(t *testing.T) {
		r := NewRecorder(ctx, "f", nil)
		_, err := r.Record(ctx, unknownDesc{})
		require.ErrorIs(t, err, ErrUnknownDescription)
	})

	t.Run("zero ordinal", func(t *testing.T) {
		r := NewRecorder(ctx, "f", nil)
		_, err := r.Record(ctx, &ArgumentDesc{Location: ArgumentAt(1, 1), Value: Constant{Value: 1}})
		require.ErrorIs(t, err, ErrInvalidDescription)
	})
}

type unknownDesc struct{}

func (unknownDesc) isDescription() {}
