package tape

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sirkon/rbtree"
)

// Result is what an instrumented invocation returns: the original value and
// the trace recorded for it.
type Result struct {
	Value any
	Root  *NestedCallNode
	Tape  *Tape
}

// Recorder accumulates the nodes of one instrumented invocation.
//
// Recorder is not safe for concurrent use: it is driven by exactly one
// sequential execution.
type Recorder struct {
	tape       *Tape
	scope      *NestedCallNode
	depth      int
	index      *rbtree.Tree[*indexEntry]
	dispatcher Dispatcher
	log        *slog.Logger
	finished   bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithDispatcher sets the call policy. Nested recorders inherit the
// dispatcher of the caller unless given their own.
func WithDispatcher(d Dispatcher) Option {
	return func(r *Recorder) {
		r.dispatcher = d
	}
}

// WithLogger sets the logger for debug output about recorded nodes.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.log = l
	}
}

// NewRecorder creates the Recorder of an invocation of self with args.
//
// When ctx carries a nested call prepared by a caller's Recorder, the new
// Recorder records into that node of the caller's Tape. Otherwise it starts
// a fresh Tape with NestedCallNode(self, args...) as its root.
func NewRecorder(ctx context.Context, self any, args []any, opts ...Option) *Recorder {
	r := &Recorder{
		index: rbtree.New[*indexEntry](),
	}
	if f := claimFrame(ctx); f != nil {
		r.tape = f.tape
		r.scope = f.node
		r.depth = f.depth
		r.dispatcher = f.dispatcher
		r.log = f.log
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}

	if r.tape == nil {
		r.tape = newTape()
		root := &NestedCallNode{
			Callee:    Constant{Value: self},
			Arguments: constants(args),
		}
		r.tape.append(nil, root, Location{}, nil)
		r.scope = root
		r.log.Debug("trace started", slog.String("tape_id", r.tape.id.String()))
	}

	return r
}

// Tape returns the tape the Recorder records into.
func (r *Recorder) Tape() *Tape {
	return r.tape
}

// Scope returns the nested call whose children the Recorder appends.
func (r *Recorder) Scope() *NestedCallNode {
	return r.scope
}

// Depth returns the nesting depth of the scope, zero for the trace root.
func (r *Recorder) Depth() int {
	return r.depth
}

// Reify turns a runtime value into a TapeValue according to its operand.
func (r *Recorder) Reify(op Operand, value any) (TapeValue, error) {
	switch op.Kind {
	case OperandConstant:
		return Constant{Value: value}, nil
	case OperandReference:
		e := r.index.Search(&indexEntry{loc: op.Location})
		if e == nil {
			return nil, fmt.Errorf("reify %s: %w", op.Location, ErrUnresolvedReference)
		}
		return Reference{Location: op.Location, Target: e.id}, nil
	default:
		return nil, fmt.Errorf("operand kind %d: %w", op.Kind, ErrInvalidDescription)
	}
}

// Describe pairs a template with the runtime values it was emitted with.
//
// Arguments take the argument value followed by the NodeID of the delivering
// jump (or nil), every other template takes one value per operand. The
// Result of a special form is left for the caller to fill in after the form
// was evaluated.
func (r *Recorder) Describe(t *Template, values []any) (Description, error) {
	want := len(t.Operands)
	if t.Kind == TemplateArgument {
		want++
	}
	if len(values) != want {
		return nil, fmt.Errorf(
			"%s template at %s takes %d values, got %d: %w",
			t.Kind, t.Location, want, len(values), ErrInvalidDescription,
		)
	}

	reified := make([]TapeValue, len(t.Operands))
	for i, op := range t.Operands {
		v, err := r.Reify(op, values[i])
		if err != nil {
			return nil, fmt.Errorf("%s at %s operand %d: %w", t.Kind, t.Location, i+1, err)
		}
		reified[i] = v
	}

	switch t.Kind {
	case TemplateConstant:
		if len(reified) != 1 {
			return nil, fmt.Errorf("constant at %s: %w", t.Location, ErrInvalidDescription)
		}
		return &ConstantDesc{Location: t.Location, Value: reified[0], Result: values[0]}, nil

	case TemplateArgument:
		if len(reified) != 1 {
			return nil, fmt.Errorf("argument at %s: %w", t.Location, ErrInvalidDescription)
		}
		var branch NodeID
		if values[1] != nil {
			id, ok := values[1].(NodeID)
			if !ok {
				return nil, fmt.Errorf("argument at %s: branch is %T: %w", t.Location, values[1], ErrInvalidDescription)
			}
			branch = id
		}
		return &ArgumentDesc{
			Location: t.Location,
			Ordinal:  t.Ordinal,
			Value:    reified[0],
			Branch:   branch,
			Result:   values[0],
		}, nil

	case TemplateCall:
		if len(reified) == 0 {
			return nil, fmt.Errorf("call at %s without callee: %w", t.Location, ErrInvalidDescription)
		}
		return &CallDesc{
			Location:       t.Location,
			Callee:         reified[0],
			Arguments:      reified[1:],
			CalleeValue:    values[0],
			ArgumentValues: values[1:],
		}, nil

	case TemplateSpecial:
		return &SpecialDesc{Location: t.Location, Head: t.Head, Arguments: reified}, nil

	case TemplateJump:
		d := &JumpDesc{Location: t.Location, Target: t.Target, Condition: True}
		if t.Conditional {
			if len(reified) == 0 {
				return nil, fmt.Errorf("conditional jump at %s without condition: %w", t.Location, ErrInvalidDescription)
			}
			d.Condition = reified[len(reified)-1]
			reified = reified[:len(reified)-1]
		}
		d.Arguments = reified
		return d, nil

	case TemplateReturn:
		if len(reified) != 1 {
			return nil, fmt.Errorf("return at %s: %w", t.Location, ErrInvalidDescription)
		}
		return &ReturnDesc{Location: t.Location, Value: reified[0], Result: values[0]}, nil

	default:
		return nil, fmt.Errorf("template %s at %s: %w", t.Kind, t.Location, ErrUnknownDescription)
	}
}

// Record turns a description into a node and appends it to the scope.
//
// Calls are performed here: the Dispatcher either runs the callee as a
// primitive or prepares a nested call and traces it. Recording a return
// finishes the Recorder.
func (r *Recorder) Record(ctx context.Context, d Description) (Node, error) {
	if r.finished {
		return nil, fmt.Errorf("record %T: %w", d, ErrRecorderFinished)
	}

	switch d := d.(type) {
	case *ConstantDesc:
		n := &ConstantNode{Value: d.Value}
		r.add(n, d.Location, d.Result)
		r.register(d.Location, n.id)
		return n, nil

	case *ArgumentDesc:
		if d.Ordinal < 1 {
			return nil, fmt.Errorf("argument at %s has ordinal %d: %w", d.Location, d.Ordinal, ErrInvalidDescription)
		}
		if d.Branch != 0 {
			if _, ok := r.tape.Node(d.Branch).(*JumpNode); !ok {
				return nil, fmt.Errorf("argument at %s arrived by node %d: %w", d.Location, d.Branch, ErrInvalidDescription)
			}
		}
		n := &ArgumentNode{Value: d.Value, Branch: d.Branch, Ordinal: d.Ordinal}
		r.add(n, d.Location, d.Result)
		r.register(d.Location, n.id)
		return n, nil

	case *CallDesc:
		return r.call(ctx, d)

	case *SpecialDesc:
		n := &SpecialCallNode{Head: d.Head, Arguments: d.Arguments}
		r.add(n, d.Location, d.Result)
		r.register(d.Location, n.id)
		return n, nil

	case *JumpDesc:
		cond := d.Condition
		if cond == nil {
			cond = True
		}
		n := &JumpNode{Target: d.Target, Arguments: d.Arguments, Condition: cond}
		r.add(n, d.Location, nil)
		return n, nil

	case *ReturnDesc:
		n := &ReturnNode{Value: d.Value}
		r.add(n, d.Location, d.Result)
		r.scope.result = d.Result
		r.finished = true
		return n, nil

	default:
		return nil, fmt.Errorf("record %T: %w", d, ErrUnknownDescription)
	}
}

// Finish records the terminating return and hands the trace over.
func (r *Recorder) Finish(ctx context.Context, d *ReturnDesc) (Result, error) {
	if _, err := r.Record(ctx, d); err != nil {
		return Result{}, err
	}

	return Result{
		Value: d.Result,
		Root:  r.scope,
		Tape:  r.tape,
	}, nil
}

func (r *Recorder) call(ctx context.Context, d *CallDesc) (Node, error) {
	if r.dispatcher == nil {
		return nil, fmt.Errorf("call at %s: %w", d.Location, ErrNoDispatcher)
	}

	kind := r.dispatcher.Classify(d.CalleeValue, r.depth)
	switch kind {
	case CallPrimitive:
		v, err := r.dispatcher.CallPrimitive(ctx, d.CalleeValue, d.ArgumentValues)
		if err != nil {
			return nil, fmt.Errorf("%s call %s at %s: %w: %w", kind, d.Callee, d.Location, ErrDispatch, err)
		}
		n := &PrimitiveCallNode{Callee: d.Callee, Arguments: d.Arguments}
		r.add(n, d.Location, v)
		r.register(d.Location, n.id)
		return n, nil

	case CallNested:
		n := &NestedCallNode{Callee: d.Callee, Arguments: d.Arguments}
		r.add(n, d.Location, nil)
		r.register(d.Location, n.id)

		f := &frame{
			tape:       r.tape,
			node:       n,
			depth:      r.depth + 1,
			dispatcher: r.dispatcher,
			log:        r.log,
		}
		v, root, err := r.dispatcher.CallNested(withFrame(ctx, f), d.CalleeValue, d.ArgumentValues)
		if err != nil {
			return nil, fmt.Errorf("%s call %s at %s: %w: %w", kind, d.Callee, d.Location, ErrDispatch, err)
		}
		if !f.claimed || root != n {
			return nil, fmt.Errorf("%s call %s at %s: %w", kind, d.Callee, d.Location, ErrFrameMismatch)
		}
		n.result = v
		return n, nil

	default:
		return nil, fmt.Errorf("call %s at %s classified as %s: %w", d.Callee, d.Location, kind, ErrDispatch)
	}
}

func (r *Recorder) add(n Node, loc Location, result any) {
	r.tape.append(r.scope, n, loc, result)
	r.log.Debug(
		"recorded node",
		slog.String("tape_id", r.tape.id.String()),
		slog.Uint64("node", uint64(n.ID())),
		slog.String("kind", n.Kind().String()),
		slog.String("location", loc.String()),
		slog.Int("depth", r.depth),
	)
}

func (r *Recorder) register(loc Location, id NodeID) {
	e := &indexEntry{loc: loc, id: id}
	if got := r.index.InsertReturn(e); got != e {
		// The location ran again, later references bind to the latest node.
		got.id = id
	}
}

func constants(values []any) []TapeValue {
	res := make([]TapeValue, len(values))
	for i, v := range values {
		res[i] = Constant{Value: v}
	}
	return res
}

// indexEntry maps a location of the current scope to its latest node.
type indexEntry struct {
	loc Location
	id  NodeID
}

// Cmp orders entries by location for the rbtree.
func (e *indexEntry) Cmp(other *indexEntry) int {
	return e.loc.Compare(other.loc)
}
