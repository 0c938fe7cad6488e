package tracer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sirkon/tapegraph/internal/cfg"
	"github.com/sirkon/tapegraph/internal/interp"
	"github.com/sirkon/tapegraph/internal/tape"
	"github.com/sirkon/tapegraph/internal/transform"
)

// DefaultMaxDepth is the nesting depth used when none is configured.
const DefaultMaxDepth = 64

// Tracer records executions of cfg functions run by a machine.
type Tracer struct {
	m          *interp.Machine
	maxDepth   int
	primitives map[string]struct{}
	log        *slog.Logger

	mu    sync.Mutex
	cache map[*cfg.Function]*cfg.Function
}

var _ tape.Dispatcher = (*Tracer)(nil)

// Option configures a Tracer.
type Option func(*Tracer)

// WithMaxDepth sets the depth from which cfg functions are no longer traced
// but called as primitives. Zero records every call as primitive.
func WithMaxDepth(depth int) Option {
	return func(t *Tracer) {
		t.maxDepth = depth
	}
}

// WithPrimitives names cfg functions that are always recorded as primitives.
func WithPrimitives(names ...string) Option {
	return func(t *Tracer) {
		for _, name := range names {
			t.primitives[name] = struct{}{}
		}
	}
}

// WithLogger sets the logger of the tracer and of the recorders it starts.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracer) {
		t.log = l
	}
}

// New creates a Tracer and installs the intrinsics into m.
func New(m *interp.Machine, opts ...Option) *Tracer {
	t := &Tracer{
		m:          m,
		maxDepth:   DefaultMaxDepth,
		primitives: map[string]struct{}{},
		log:        slog.New(slog.DiscardHandler),
		cache:      map[*cfg.Function]*cfg.Function{},
	}
	for _, opt := range opts {
		opt(t)
	}

	m.DefineNatives(t.intrinsics())
	return t
}

// Instrument returns the instrumented version of fn, transforming it on the
// first request only.
func (t *Tracer) Instrument(fn *cfg.Function) (*cfg.Function, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if inst, ok := t.cache[fn]; ok {
		return inst, nil
	}

	inst, err := transform.Transform(fn)
	if err != nil {
		return nil, fmt.Errorf("instrument %s: %w", fn.Name, err)
	}
	t.cache[fn] = inst
	t.log.Debug(
		"function instrumented",
		slog.String("function", fn.Name),
		slog.Int("blocks", inst.NumBlocks()),
	)

	return inst, nil
}

// Trace runs fn with args and returns its value together with the trace of
// the run. The value is the one fn returns when run uninstrumented.
func (t *Tracer) Trace(ctx context.Context, fn *cfg.Function, args ...any) (any, *tape.Tape, error) {
	inst, err := t.Instrument(fn)
	if err != nil {
		return nil, nil, err
	}

	res, err := t.run(tape.Detach(ctx), inst, fn, args)
	if err != nil {
		return nil, nil, fmt.Errorf("trace %s: %w", fn.Name, err)
	}

	t.log.Info(
		"trace finished",
		slog.String("function", fn.Name),
		slog.String("tape_id", res.Tape.ID().String()),
		slog.Int("nodes", res.Tape.Len()),
	)
	return res.Value, res.Tape, nil
}

func (t *Tracer) run(ctx context.Context, inst, fn *cfg.Function, args []any) (tape.Result, error) {
	v, err := t.m.Invoke(ctx, inst, fn, args)
	if err != nil {
		return tape.Result{}, err
	}

	res, ok := v.(tape.Result)
	if !ok {
		return tape.Result{}, fmt.Errorf("%s returned %T instead of a trace: %w", inst.Name, v, ErrIntrinsic)
	}
	return res, nil
}

// Classify records cfg functions as nested calls while the depth allows it.
func (t *Tracer) Classify(callee any, depth int) tape.CallKind {
	fn, ok := callee.(*cfg.Function)
	if !ok {
		return tape.CallPrimitive
	}
	if _, ok := t.primitives[fn.Name]; ok {
		return tape.CallPrimitive
	}
	if depth >= t.maxDepth {
		return tape.CallPrimitive
	}

	return tape.CallNested
}

// CallPrimitive runs the callee uninstrumented.
func (t *Tracer) CallPrimitive(ctx context.Context, callee any, args []any) (any, error) {
	return t.m.Call(ctx, callee, args)
}

// CallNested runs the instrumented callee. Its recorder joins the frame ctx
// carries, so the returned root is the node the caller prepared.
func (t *Tracer) CallNested(ctx context.Context, callee any, args []any) (any, *tape.NestedCallNode, error) {
	fn, ok := callee.(*cfg.Function)
	if !ok {
		return nil, nil, fmt.Errorf("%T: %w", callee, ErrNotTraceable)
	}

	inst, err := t.Instrument(fn)
	if err != nil {
		return nil, nil, err
	}

	res, err := t.run(ctx, inst, fn, args)
	if err != nil {
		return nil, nil, err
	}
	return res.Value, res.Root, nil
}
