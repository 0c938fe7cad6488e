package transform

import (
	"fmt"
	"slices"

	"github.com/sirkon/tapegraph/internal/cfg"
	"github.com/sirkon/tapegraph/internal/tape"
)

// Names of the intrinsic globals instrumented code calls.
const (
	IntrinsicNew    = "tape.new"
	IntrinsicRecord = "tape.record"
	IntrinsicPend   = "tape.pend"
	IntrinsicEnter  = "tape.enter"
	IntrinsicFinish = "tape.finish"
)

// Transform returns the instrumented version of fn. fn itself is left intact.
func Transform(fn *cfg.Function) (*cfg.Function, error) {
	if err := cfg.Validate(fn); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCFG, err)
	}

	rw := newRewriter(fn)
	if preds := rw.targets[1]; len(preds) > 0 {
		return nil, fmt.Errorf("%s: reached from blocks %v: %w", fn.Name, preds, ErrEntryIsJumpTarget)
	}

	in, entry, err := rw.initRecorder(fn.Blocks[0].Args)
	if err != nil {
		return nil, err
	}

	res := &cfg.Function{
		Name:   fn.Name,
		Blocks: make([]*cfg.Block, 0, len(fn.Blocks)+1),
	}
	for i, b := range fn.Blocks {
		var prologue []cfg.Stmt
		if i == 0 {
			prologue = append(prologue, entry)
		}
		nb, err := in.block(i+1, b, prologue)
		if err != nil {
			return nil, err
		}
		res.Blocks = append(res.Blocks, nb)
	}
	res.Blocks = append(res.Blocks, in.returnBlock())

	return res, nil
}

// rewriter is the working state before the recorder exists. It can only
// emit recording code through the instrumenter initRecorder returns.
type rewriter struct {
	fn       *cfg.Function
	targets  map[int][]int
	locs     map[cfg.VarID]tape.Location
	next     cfg.VarID
	recorder bool
}

func newRewriter(fn *cfg.Function) *rewriter {
	rw := &rewriter{
		fn:      fn,
		targets: JumpTargets(fn),
		locs:    map[cfg.VarID]tape.Location{},
		next:    fn.MaxVar() + 1,
	}
	for i, b := range fn.Blocks {
		for _, a := range b.Args {
			rw.locs[a] = tape.ArgumentAt(i+1, int(a))
		}
		for _, s := range b.Stmts {
			rw.locs[s.Var] = tape.StatementAt(i+1, int(s.Var))
		}
	}
	return rw
}

func (rw *rewriter) fresh() cfg.VarID {
	v := rw.next
	rw.next++
	return v
}

// initRecorder returns the statement creating the recorder from the entry
// block arguments and the ready state that uses it.
func (rw *rewriter) initRecorder(args []cfg.VarID) (*instrumenter, cfg.Stmt, error) {
	if rw.recorder {
		return nil, cfg.Stmt{}, fmt.Errorf("%s: %w", rw.fn.Name, ErrRecorderInitialized)
	}
	rw.recorder = true

	in := &instrumenter{
		rewriter: rw,
		rec:      rw.fresh(),
	}
	stmt := cfg.Stmt{
		Var: in.rec,
		Expr: &cfg.Call{
			Callee: cfg.Global{Name: IntrinsicNew},
			Args:   vars(args),
		},
	}
	return in, stmt, nil
}

// operand returns how op is reified at runtime.
func (rw *rewriter) operand(op cfg.Operand) tape.Operand {
	if v, ok := op.(cfg.Var); ok {
		return tape.ReferenceOperand(rw.locs[v.ID])
	}
	return tape.ConstantOperand()
}

func (rw *rewriter) operands(ops []cfg.Operand) []tape.Operand {
	res := make([]tape.Operand, len(ops))
	for i, op := range ops {
		res[i] = rw.operand(op)
	}
	return res
}

// instrumenter is the ready state of a rewrite: the recorder variable exists.
type instrumenter struct {
	*rewriter
	rec cfg.VarID
}

func (in *instrumenter) intrinsic(v cfg.VarID, name string, args ...cfg.Operand) cfg.Stmt {
	return cfg.Stmt{
		Var: v,
		Expr: &cfg.Call{
			Callee: cfg.Global{Name: name},
			Args:   append([]cfg.Operand{cfg.Var{ID: in.rec}}, args...),
		},
	}
}

func (in *instrumenter) record(v cfg.VarID, t *tape.Template, values ...cfg.Operand) cfg.Stmt {
	return in.intrinsic(v, IntrinsicRecord, append([]cfg.Operand{cfg.Literal{Value: t}}, values...)...)
}

func (in *instrumenter) pend(t *tape.Template, values ...cfg.Operand) cfg.Stmt {
	return in.intrinsic(in.fresh(), IntrinsicPend, append([]cfg.Operand{cfg.Literal{Value: t}}, values...)...)
}

// block rewrites the block with the given index.
func (in *instrumenter) block(index int, b *cfg.Block, prologue []cfg.Stmt) (*cfg.Block, error) {
	res := &cfg.Block{
		Args:  slices.Clone(b.Args),
		Stmts: prologue,
	}

	var branch cfg.Operand = cfg.Literal{Value: nil}
	if len(in.targets[index]) > 0 {
		jin := in.fresh()
		res.Args = append(res.Args, jin)
		enter := in.intrinsic(in.fresh(), IntrinsicEnter, cfg.Var{ID: jin})
		res.Stmts = append(res.Stmts, enter)
		branch = cfg.Var{ID: enter.Var}
	}

	for i, a := range b.Args {
		t := &tape.Template{
			Kind:     tape.TemplateArgument,
			Location: in.locs[a],
			Ordinal:  i + 1,
			Operands: []tape.Operand{tape.ConstantOperand()},
		}
		res.Stmts = append(res.Stmts, in.record(in.fresh(), t, cfg.Var{ID: a}, branch))
	}

	for _, s := range b.Stmts {
		stmt, err := in.statement(index, s)
		if err != nil {
			return nil, err
		}
		res.Stmts = append(res.Stmts, stmt)
	}

	for k, br := range b.Branches {
		loc := tape.BranchAt(index, k+1)
		switch br.Kind {
		case cfg.BranchJump:
			values := slices.Clone(br.Args)
			if br.Cond != nil {
				values = append(values, br.Cond)
			}
			p := in.pend(&tape.Template{
				Kind:        tape.TemplateJump,
				Location:    loc,
				Target:      br.Target,
				Operands:    in.operands(values),
				Conditional: br.Cond != nil,
			}, values...)
			res.Stmts = append(res.Stmts, p)
			res.Branches = append(res.Branches, cfg.Branch{
				Kind:   cfg.BranchJump,
				Target: br.Target,
				Args:   append(slices.Clone(br.Args), cfg.Var{ID: p.Var}),
				Cond:   br.Cond,
			})

		case cfg.BranchReturn:
			p := in.pend(&tape.Template{
				Kind:     tape.TemplateReturn,
				Location: loc,
				Operands: []tape.Operand{in.operand(br.Value)},
			}, br.Value)
			res.Stmts = append(res.Stmts, p)
			res.Branches = append(res.Branches, cfg.Jump(len(in.fn.Blocks)+1, br.Value, cfg.Var{ID: p.Var}))

		default:
			return nil, fmt.Errorf("%s: block %d: branch %d has kind %d: %w", in.fn.Name, index, k+1, br.Kind, ErrInvalidCFG)
		}
	}

	if b.FallsThrough() {
		p := in.pend(&tape.Template{
			Kind:     tape.TemplateJump,
			Location: tape.BranchAt(index, len(b.Branches)+1),
			Target:   index + 1,
		})
		res.Stmts = append(res.Stmts, p)
		res.Branches = append(res.Branches, cfg.Jump(index+1, cfg.Var{ID: p.Var}))
	}

	return res, nil
}

// statement classifies s by its shape and replaces it with its recording.
func (in *instrumenter) statement(index int, s cfg.Stmt) (cfg.Stmt, error) {
	loc := in.locs[s.Var]
	switch e := s.Expr.(type) {
	case *cfg.Call:
		values := cfg.Operands(e)
		return in.record(s.Var, &tape.Template{
			Kind:     tape.TemplateCall,
			Location: loc,
			Operands: in.operands(values),
		}, values...), nil

	case *cfg.Special:
		return in.record(s.Var, &tape.Template{
			Kind:     tape.TemplateSpecial,
			Location: loc,
			Head:     e.Head,
			Operands: in.operands(e.Args),
		}, e.Args...), nil

	case *cfg.Value:
		switch e.Operand.(type) {
		case cfg.Literal, cfg.Global:
			return in.record(s.Var, &tape.Template{
				Kind:     tape.TemplateConstant,
				Location: loc,
				Operands: []tape.Operand{tape.ConstantOperand()},
			}, e.Operand), nil
		}
		return cfg.Stmt{}, fmt.Errorf(
			"%s: block %d: %%%d binds %s: %w",
			in.fn.Name, index, s.Var, cfg.OperandString(e.Operand), ErrUnrecognizedStatement,
		)

	default:
		return cfg.Stmt{}, fmt.Errorf("%s: block %d: %%%d is %T: %w", in.fn.Name, index, s.Var, s.Expr, ErrUnrecognizedStatement)
	}
}

// returnBlock is the synthetic block every return is redirected to.
func (in *instrumenter) returnBlock() *cfg.Block {
	value := in.fresh()
	pending := in.fresh()
	finish := in.intrinsic(in.fresh(), IntrinsicFinish, cfg.Var{ID: pending}, cfg.Var{ID: value})
	return &cfg.Block{
		Args:     []cfg.VarID{value, pending},
		Stmts:    []cfg.Stmt{finish},
		Branches: []cfg.Branch{cfg.Return(cfg.Var{ID: finish.Var})},
	}
}

func vars(ids []cfg.VarID) []cfg.Operand {
	res := make([]cfg.Operand, len(ids))
	for i, v := range ids {
		res[i] = cfg.Var{ID: v}
	}
	return res
}
