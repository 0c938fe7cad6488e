package cfg

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the function in a compact textual form:
//
//	f
//	#1 (%1, %2)
//	    %3 = +(%2, 1)
//	    return %3
func (f *Function) String() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteByte('\n')
	for i, blk := range f.Blocks {
		writeBlock(&b, i+1, blk)
	}
	return b.String()
}

// Label is the function as it appears among traced values.
func (f *Function) Label() string {
	return "func " + f.Name
}

func writeBlock(b *strings.Builder, index int, blk *Block) {
	fmt.Fprintf(b, "#%d (", index)
	for i, a := range blk.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%%%d", a)
	}
	b.WriteString(")\n")

	for _, s := range blk.Stmts {
		fmt.Fprintf(b, "    %%%d = %s\n", s.Var, ExprString(s.Expr))
	}
	for _, br := range blk.Branches {
		b.WriteString("    ")
		b.WriteString(br.String())
		b.WriteByte('\n')
	}
}

// String renders a branch.
func (b Branch) String() string {
	switch b.Kind {
	case BranchReturn:
		return "return " + OperandString(b.Value)
	case BranchJump:
		res := fmt.Sprintf("goto #%d(%s)", b.Target, operandList(b.Args))
		if b.Cond != nil {
			res += " if " + OperandString(b.Cond)
		}
		return res
	default:
		return fmt.Sprintf("invalid-branch(%d)", b.Kind)
	}
}

// ExprString renders an expression.
func ExprString(e Expr) string {
	switch v := e.(type) {
	case *Call:
		return fmt.Sprintf("%s(%s)", OperandString(v.Callee), operandList(v.Args))
	case *Special:
		return fmt.Sprintf("$%s(%s)", v.Head, operandList(v.Args))
	case *Value:
		return OperandString(v.Operand)
	default:
		return fmt.Sprintf("invalid-expr(%T)", e)
	}
}

// OperandString renders an operand.
func OperandString(op Operand) string {
	switch v := op.(type) {
	case Var:
		return "%" + strconv.Itoa(int(v.ID))
	case Global:
		return v.Name
	case Literal:
		if s, ok := v.Value.(string); ok {
			return strconv.Quote(s)
		}
		return fmt.Sprintf("%v", v.Value)
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("invalid-operand(%T)", op)
	}
}

func operandList(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = OperandString(op)
	}
	return strings.Join(parts, ", ")
}
