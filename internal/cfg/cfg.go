package cfg

// VarID identifies a variable of a function. Zero is not a valid variable.
type VarID int

// Operand is an input of a statement or a branch.
type Operand interface {
	isOperand()
}

// Var refers to a variable defined earlier in the function.
//
//	%3
type Var struct {
	ID VarID
}

// Literal is a value known at compile time.
//
//	42, "text", true
type Literal struct {
	Value any
}

// Global refers to a named value resolved by the executor, such as
// a function or an operator.
//
//	+, math.Sqrt, helper
type Global struct {
	Name string
}

func (Var) isOperand()     {}
func (Literal) isOperand() {}
func (Global) isOperand()  {}

// Expr is the right hand side of a statement.
type Expr interface {
	isExpr()
}

// Call invokes Callee with Args.
//
//	%4 = +(%2, 1)
type Call struct {
	Callee Operand
	Args   []Operand
}

// Special is a non-call form identified by its head: type construction,
// bounds checks, foreign calls, conversions.
//
//	%5 = new(Point, %2, %3)
type Special struct {
	Head string
	Args []Operand
}

// Value binds a literal or a global to a variable.
//
//	%6 = 3.14
//	%7 = helper
type Value struct {
	Operand Operand
}

func (*Call) isExpr()    {}
func (*Special) isExpr() {}
func (*Value) isExpr()   {}

// Stmt defines variable Var with the result of Expr.
type Stmt struct {
	Var  VarID
	Expr Expr
}

// BranchKind distinguishes jumps from returns.
type BranchKind int

const (
	_ BranchKind = iota

	// BranchJump transfers control to Target passing Args.
	BranchJump

	// BranchReturn leaves the function with Value.
	BranchReturn
)

// Branch is one element of a block's branch set.
type Branch struct {
	Kind BranchKind

	// Target is the 1-based index of the block a jump transfers control to.
	Target int

	// Args are passed positionally to Target's block arguments.
	Args []Operand

	// Cond makes the jump conditional when not nil. Returns are always
	// unconditional.
	Cond Operand

	// Value is the returned operand for BranchReturn.
	Value Operand
}

// IsConditional reports whether the branch may be skipped.
func (b *Branch) IsConditional() bool {
	return b.Kind == BranchJump && b.Cond != nil
}

// Jump is a shortcut for an unconditional jump.
func Jump(target int, args ...Operand) Branch {
	return Branch{Kind: BranchJump, Target: target, Args: args}
}

// JumpIf is a shortcut for a conditional jump.
func JumpIf(cond Operand, target int, args ...Operand) Branch {
	return Branch{Kind: BranchJump, Target: target, Args: args, Cond: cond}
}

// Return is a shortcut for a return branch.
func Return(value Operand) Branch {
	return Branch{Kind: BranchReturn, Value: value}
}

// Block is a basic block.
type Block struct {
	Args     []VarID
	Stmts    []Stmt
	Branches []Branch
}

// FallsThrough reports whether control can leave the block without taking
// any of its branches.
func (b *Block) FallsThrough() bool {
	for i := range b.Branches {
		if !b.Branches[i].IsConditional() {
			return false
		}
	}
	return true
}

// Function is a control-flow graph of a single function.
type Function struct {
	Name   string
	Blocks []*Block
}

// Block returns the block with the given 1-based index or nil.
func (f *Function) Block(i int) *Block {
	if i < 1 || i > len(f.Blocks) {
		return nil
	}
	return f.Blocks[i-1]
}

// NumBlocks returns the number of blocks.
func (f *Function) NumBlocks() int {
	return len(f.Blocks)
}

// MaxVar returns the largest variable ID defined in the function.
func (f *Function) MaxVar() VarID {
	var res VarID
	for _, b := range f.Blocks {
		for _, a := range b.Args {
			res = max(res, a)
		}
		for _, s := range b.Stmts {
			res = max(res, s.Var)
		}
	}
	return res
}

// Operands lists the operands an expression reads, in order.
func Operands(e Expr) []Operand {
	switch v := e.(type) {
	case *Call:
		res := make([]Operand, 0, len(v.Args)+1)
		res = append(res, v.Callee)
		return append(res, v.Args...)
	case *Special:
		return v.Args
	case *Value:
		return []Operand{v.Operand}
	default:
		return nil
	}
}
