package tape

import (
	"fmt"
	"strings"
)

// Description is a reified view of one executed statement, argument or
// branch, ready to be turned into a node by Recorder.Record.
type Description interface {
	isDescription()
}

// ConstantDesc describes a literal or a global statement.
type ConstantDesc struct {
	Location Location
	Value    TapeValue
	Result   any
}

// ArgumentDesc describes a block argument. Branch is the jump that delivered
// the argument, zero at function entry.
type ArgumentDesc struct {
	Location Location
	Ordinal  int
	Value    TapeValue
	Branch   NodeID
	Result   any
}

// CallDesc describes a call. CalleeValue and ArgumentValues are the runtime
// values the call is performed with.
type CallDesc struct {
	Location       Location
	Callee         TapeValue
	Arguments      []TapeValue
	CalleeValue    any
	ArgumentValues []any
}

// SpecialDesc describes an evaluated special form.
type SpecialDesc struct {
	Location  Location
	Head      string
	Arguments []TapeValue
	Result    any
}

// JumpDesc describes a branch to Target.
type JumpDesc struct {
	Location  Location
	Target    int
	Arguments []TapeValue
	Condition TapeValue
}

// ReturnDesc describes a return.
type ReturnDesc struct {
	Location Location
	Value    TapeValue
	Result   any
}

func (*ConstantDesc) isDescription() {}
func (*ArgumentDesc) isDescription() {}
func (*CallDesc) isDescription()     {}
func (*SpecialDesc) isDescription()  {}
func (*JumpDesc) isDescription()     {}
func (*ReturnDesc) isDescription()   {}

// OperandKind tells how an operand is reified at runtime.
type OperandKind uint8

const (
	_ OperandKind = iota

	// OperandConstant reifies the runtime value as a Constant.
	OperandConstant

	// OperandReference reifies as a Reference to the node recorded at Location.
	OperandReference
)

// Operand is the compile time half of a TapeValue: it knows whether an
// operand is a variable and where that variable was defined, while the value
// itself only exists at runtime.
type Operand struct {
	Kind     OperandKind
	Location Location
}

// ConstantOperand returns an operand reified as a constant.
func ConstantOperand() Operand {
	return Operand{Kind: OperandConstant}
}

// ReferenceOperand returns an operand reified as a reference to loc.
func ReferenceOperand(loc Location) Operand {
	return Operand{Kind: OperandReference, Location: loc}
}

func (o Operand) String() string {
	if o.Kind == OperandReference {
		return "@" + o.Location.String()
	}
	return "const"
}

// TemplateKind names the description a Template produces.
type TemplateKind uint8

const (
	_ TemplateKind = iota
	TemplateConstant
	TemplateArgument
	TemplateCall
	TemplateSpecial
	TemplateJump
	TemplateReturn
)

var templateKindNames = map[TemplateKind]string{
	TemplateConstant: "constant",
	TemplateArgument: "argument",
	TemplateCall:     "call",
	TemplateSpecial:  "special",
	TemplateJump:     "jump",
	TemplateReturn:   "return",
}

func (k TemplateKind) String() string {
	v, ok := templateKindNames[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}
	return v
}

// Template is the compile time skeleton of a Description. The instrumented
// code carries templates as literals and pairs them with runtime values.
type Template struct {
	Kind     TemplateKind
	Location Location

	// Ordinal of an argument.
	Ordinal int

	// Head of a special form.
	Head string

	// Target of a jump.
	Target int

	// Operands in the order their runtime values are passed.
	Operands []Operand

	// Conditional jumps pass their condition as the last value.
	Conditional bool
}

func (t *Template) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s %s", t.Kind, t.Location)
	switch t.Kind {
	case TemplateArgument:
		fmt.Fprintf(&b, " #%d", t.Ordinal)
	case TemplateSpecial:
		fmt.Fprintf(&b, " $%s", t.Head)
	case TemplateJump:
		fmt.Fprintf(&b, " ->#%d", t.Target)
		if t.Conditional {
			b.WriteString(" cond")
		}
	}
	for _, op := range t.Operands {
		b.WriteByte(' ')
		b.WriteString(op.String())
	}
	b.WriteByte('>')
	return b.String()
}
