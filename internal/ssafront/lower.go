package ssafront

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"

	"github.com/sirkon/tapegraph/internal/cfg"
)

// LowerFunction lowers a built SSA function.
func LowerFunction(fn *ssa.Function) (*cfg.Function, error) {
	if len(fn.Blocks) == 0 {
		return nil, unsupported(fn, fn.Pos(), "function without body")
	}
	if len(fn.FreeVars) > 0 {
		return nil, unsupported(fn, fn.Pos(), "closure")
	}
	if fn.Signature.Recv() != nil {
		return nil, unsupported(fn, fn.Pos(), "method")
	}
	if fn.Recover != nil {
		return nil, unsupported(fn, fn.Pos(), "deferred recovery")
	}

	l := &lowerer{
		fn:    fn,
		vars:  map[ssa.Value]cfg.VarID{},
		index: map[*ssa.BasicBlock]int{},
	}
	return l.lower()
}

type lowerer struct {
	fn    *ssa.Function
	vars  map[ssa.Value]cfg.VarID
	index map[*ssa.BasicBlock]int
	next  cfg.VarID
}

func (l *lowerer) lower() (*cfg.Function, error) {
	res := &cfg.Function{
		Name:   Name(l.fn, l.fn.Pkg),
		Blocks: make([]*cfg.Block, len(l.fn.Blocks)),
	}

	// Variables are numbered ahead so that uses may precede definitions in
	// block order.
	self := l.fresh()
	for i, b := range l.fn.Blocks {
		l.index[b] = i + 1
		res.Blocks[i] = &cfg.Block{}
		if i == 0 {
			res.Blocks[i].Args = append(res.Blocks[i].Args, self)
			for _, p := range l.fn.Params {
				if err := l.numeric(p.Type(), p.Pos()); err != nil {
					return nil, err
				}
				res.Blocks[i].Args = append(res.Blocks[i].Args, l.define(p))
			}
		}
		for _, instr := range b.Instrs {
			switch instr := instr.(type) {
			case *ssa.Phi:
				res.Blocks[i].Args = append(res.Blocks[i].Args, l.define(instr))
			case ssa.Value:
				l.define(instr)
			}
		}
	}

	for i, b := range l.fn.Blocks {
		if err := l.block(b, res.Blocks[i]); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (l *lowerer) fresh() cfg.VarID {
	l.next++
	return l.next
}

func (l *lowerer) define(v ssa.Value) cfg.VarID {
	id := l.fresh()
	l.vars[v] = id
	return id
}

func (l *lowerer) block(b *ssa.BasicBlock, dst *cfg.Block) error {
	for _, instr := range b.Instrs {
		switch instr := instr.(type) {
		case *ssa.Phi:
			if err := l.numeric(instr.Type(), instr.Pos()); err != nil {
				return err
			}

		case *ssa.DebugRef:

		case *ssa.Jump:
			br, err := l.jump(b, b.Succs[0], nil)
			if err != nil {
				return err
			}
			dst.Branches = append(dst.Branches, br)

		case *ssa.If:
			cond, err := l.operand(instr.Cond)
			if err != nil {
				return err
			}
			then, err := l.jump(b, b.Succs[0], cond)
			if err != nil {
				return err
			}
			els, err := l.jump(b, b.Succs[1], nil)
			if err != nil {
				return err
			}
			dst.Branches = append(dst.Branches, then, els)

		case *ssa.Return:
			br, err := l.ret(instr)
			if err != nil {
				return err
			}
			dst.Branches = append(dst.Branches, br)

		case ssa.Value:
			if err := l.numeric(instr.Type(), instr.Pos()); err != nil {
				return err
			}
			expr, err := l.expr(instr)
			if err != nil {
				return err
			}
			dst.Stmts = append(dst.Stmts, cfg.Stmt{Var: l.vars[instr], Expr: expr})

		default:
			return unsupported(l.fn, instr.Pos(), fmt.Sprintf("instruction %T", instr))
		}
	}

	return nil
}

// jump passes the phi edges of the edge from b to succ.
func (l *lowerer) jump(b, succ *ssa.BasicBlock, cond cfg.Operand) (cfg.Branch, error) {
	pred := -1
	for i, p := range succ.Preds {
		if p == b {
			pred = i
			break
		}
	}

	var args []cfg.Operand
	for _, instr := range succ.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			continue
		}
		op, err := l.operand(phi.Edges[pred])
		if err != nil {
			return cfg.Branch{}, err
		}
		args = append(args, op)
	}

	if cond != nil {
		return cfg.JumpIf(cond, l.index[succ], args...), nil
	}
	return cfg.Jump(l.index[succ], args...), nil
}

func (l *lowerer) ret(instr *ssa.Return) (cfg.Branch, error) {
	switch len(instr.Results) {
	case 0:
		return cfg.Return(cfg.Literal{Value: nil}), nil
	case 1:
		op, err := l.operand(instr.Results[0])
		if err != nil {
			return cfg.Branch{}, err
		}
		return cfg.Return(op), nil
	default:
		return cfg.Branch{}, unsupported(l.fn, instr.Pos(), "multiple results")
	}
}

var unaryNames = map[token.Token]string{
	token.SUB: "neg",
	token.NOT: "!",
	token.XOR: "compl",
}

func (l *lowerer) expr(v ssa.Value) (cfg.Expr, error) {
	switch v := v.(type) {
	case *ssa.BinOp:
		x, err := l.operand(v.X)
		if err != nil {
			return nil, err
		}
		y, err := l.operand(v.Y)
		if err != nil {
			return nil, err
		}
		return &cfg.Call{Callee: cfg.Global{Name: v.Op.String()}, Args: []cfg.Operand{x, y}}, nil

	case *ssa.UnOp:
		name, ok := unaryNames[v.Op]
		if !ok {
			return nil, unsupported(l.fn, v.Pos(), "unary "+v.Op.String())
		}
		x, err := l.operand(v.X)
		if err != nil {
			return nil, err
		}
		return &cfg.Call{Callee: cfg.Global{Name: name}, Args: []cfg.Operand{x}}, nil

	case *ssa.Call:
		return l.call(v)

	case *ssa.Convert:
		return l.convert(v, v.X)

	case *ssa.ChangeType:
		return l.convert(v, v.X)

	default:
		return nil, unsupported(l.fn, v.Pos(), fmt.Sprintf("value %T", v))
	}
}

func (l *lowerer) call(v *ssa.Call) (cfg.Expr, error) {
	common := v.Common()
	if common.IsInvoke() {
		return nil, unsupported(l.fn, v.Pos(), "interface method call")
	}
	if f, ok := common.Value.(*ssa.Function); ok && f.Signature.Recv() != nil {
		return nil, unsupported(l.fn, v.Pos(), "method call")
	}

	callee, err := l.operand(common.Value)
	if err != nil {
		return nil, err
	}
	args := make([]cfg.Operand, len(common.Args))
	for i, a := range common.Args {
		if args[i], err = l.operand(a); err != nil {
			return nil, err
		}
	}

	return &cfg.Call{Callee: callee, Args: args}, nil
}

func (l *lowerer) convert(v ssa.Value, x ssa.Value) (cfg.Expr, error) {
	basic, ok := v.Type().Underlying().(*types.Basic)
	if !ok {
		return nil, unsupported(l.fn, v.Pos(), "conversion to "+v.Type().String())
	}
	op, err := l.operand(x)
	if err != nil {
		return nil, err
	}

	return &cfg.Special{
		Head: "convert",
		Args: []cfg.Operand{cfg.Literal{Value: basic.Name()}, op},
	}, nil
}

func (l *lowerer) operand(v ssa.Value) (cfg.Operand, error) {
	switch v := v.(type) {
	case *ssa.Const:
		value, err := l.constant(v)
		if err != nil {
			return nil, err
		}
		return cfg.Literal{Value: value}, nil

	case *ssa.Function:
		if len(v.FreeVars) > 0 {
			return nil, unsupported(l.fn, v.Pos(), "closure value")
		}
		return cfg.Global{Name: Name(v, l.fn.Pkg)}, nil

	case *ssa.Builtin:
		if v.Name() != "len" {
			return nil, unsupported(l.fn, v.Pos(), "builtin "+v.Name())
		}
		return cfg.Global{Name: v.Name()}, nil
	}

	id, ok := l.vars[v]
	if !ok {
		return nil, unsupported(l.fn, v.Pos(), fmt.Sprintf("operand %T", v))
	}
	return cfg.Var{ID: id}, nil
}

func (l *lowerer) constant(c *ssa.Const) (any, error) {
	if c.Value == nil {
		return nil, nil
	}

	if err := l.numeric(c.Type(), c.Pos()); err != nil {
		return nil, err
	}

	basic, _ := c.Type().Underlying().(*types.Basic)
	switch {
	case basic == nil:
	case basic.Info()&types.IsBoolean != 0:
		return constant.BoolVal(c.Value), nil
	case basic.Info()&types.IsString != 0:
		return constant.StringVal(c.Value), nil
	case basic.Info()&types.IsFloat != 0:
		v, _ := constant.Float64Val(constant.ToFloat(c.Value))
		return v, nil
	case basic.Info()&types.IsInteger != 0:
		if v, exact := constant.Int64Val(c.Value); exact {
			return v, nil
		}
	}

	return nil, unsupported(l.fn, c.Pos(), "constant "+c.String())
}

// numeric rejects integer and float types other than int, int64 and
// float64. Values are computed as int64 and float64, narrower or unsigned
// types would not wrap and compare the way Go does.
func (l *lowerer) numeric(t types.Type, pos token.Pos) error {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok || basic.Info()&types.IsNumeric == 0 || basic.Info()&types.IsUntyped != 0 {
		return nil
	}

	switch basic.Kind() {
	case types.Int, types.Int64, types.Float64:
		return nil
	default:
		return unsupported(l.fn, pos, "numeric type "+basic.Name())
	}
}

// Name returns the global a function is called by from package from: plain
// names within the package and pkg.Name outside of it.
func Name(fn *ssa.Function, from *ssa.Package) string {
	if fn.Pkg == nil || fn.Pkg == from {
		return fn.Name()
	}
	return fn.Pkg.Pkg.Name() + "." + fn.Name()
}

func unsupported(fn *ssa.Function, pos token.Pos, what string) error {
	return &UnsupportedError{
		Function: fn.String(),
		Pos:      pos,
		What:     what,
	}
}
