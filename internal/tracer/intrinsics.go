package tracer

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirkon/tapegraph/internal/interp"
	"github.com/sirkon/tapegraph/internal/tape"
	"github.com/sirkon/tapegraph/internal/transform"
)

func (t *Tracer) intrinsics() map[string]interp.Native {
	return map[string]interp.Native{
		transform.IntrinsicNew:    t.start,
		transform.IntrinsicRecord: t.record,
		transform.IntrinsicPend:   pend,
		transform.IntrinsicEnter:  enter,
		transform.IntrinsicFinish: finish,
	}
}

// start is tape.new(self, args...).
func (t *Tracer) start(ctx context.Context, args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s without self: %w", transform.IntrinsicNew, ErrIntrinsic)
	}

	rec := tape.NewRecorder(
		ctx,
		args[0],
		slices.Clone(args[1:]),
		tape.WithDispatcher(t),
		tape.WithLogger(t.log),
	)
	return rec, nil
}

// record is tape.record(rec, template, values...). It returns the value the
// original statement produced.
func (t *Tracer) record(ctx context.Context, args []any) (any, error) {
	rec, tmpl, values, err := templated(transform.IntrinsicRecord, args)
	if err != nil {
		return nil, err
	}

	d, err := rec.Describe(tmpl, values)
	if err != nil {
		return nil, err
	}
	if sd, ok := d.(*tape.SpecialDesc); ok {
		res, err := t.m.EvalSpecial(ctx, sd.Head, values)
		if err != nil {
			return nil, err
		}
		sd.Result = res
	}

	n, err := rec.Record(ctx, d)
	if err != nil {
		return nil, err
	}
	return n.Result(), nil
}

// pend is tape.pend(rec, template, values...). The description travels along
// the branch and is recorded at its destination.
func pend(ctx context.Context, args []any) (any, error) {
	rec, tmpl, values, err := templated(transform.IntrinsicPend, args)
	if err != nil {
		return nil, err
	}
	return rec.Describe(tmpl, values)
}

// enter is tape.enter(rec, jump) and returns the ID of the recorded jump.
func enter(ctx context.Context, args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s: %w", transform.IntrinsicEnter, ErrIntrinsic)
	}
	rec, ok1 := args[0].(*tape.Recorder)
	d, ok2 := args[1].(*tape.JumpDesc)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%s(%T, %T): %w", transform.IntrinsicEnter, args[0], args[1], ErrIntrinsic)
	}

	n, err := rec.Record(ctx, d)
	if err != nil {
		return nil, err
	}
	return n.ID(), nil
}

// finish is tape.finish(rec, return, value).
func finish(ctx context.Context, args []any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("%s: %w", transform.IntrinsicFinish, ErrIntrinsic)
	}
	rec, ok1 := args[0].(*tape.Recorder)
	d, ok2 := args[1].(*tape.ReturnDesc)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("%s(%T, %T): %w", transform.IntrinsicFinish, args[0], args[1], ErrIntrinsic)
	}
	return rec.Finish(ctx, d)
}

func templated(name string, args []any) (*tape.Recorder, *tape.Template, []any, error) {
	if len(args) < 2 {
		return nil, nil, nil, fmt.Errorf("%s takes a recorder and a template: %w", name, ErrIntrinsic)
	}
	rec, ok1 := args[0].(*tape.Recorder)
	tmpl, ok2 := args[1].(*tape.Template)
	if !ok1 || !ok2 {
		return nil, nil, nil, fmt.Errorf("%s(%T, %T, ...): %w", name, args[0], args[1], ErrIntrinsic)
	}
	return rec, tmpl, args[2:], nil
}
