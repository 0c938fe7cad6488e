package tape

import (
	"encoding"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// NodeID identifies a node within its Tape. IDs follow execution order,
// zero means "no node".
type NodeID uint32

// NodeKind names a node variant.
type NodeKind int

const (
	_ NodeKind = iota
	KindConstant
	KindArgument
	KindPrimitiveCall
	KindNestedCall
	KindSpecialCall
	KindReturn
	KindJump
)

var nodeKindNames = map[NodeKind]string{
	KindConstant:      "constant",
	KindArgument:      "argument",
	KindPrimitiveCall: "primitive",
	KindNestedCall:    "nested",
	KindSpecialCall:   "special",
	KindReturn:        "return",
	KindJump:          "jump",
}

func (k NodeKind) String() string {
	v, ok := nodeKindNames[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}

	return v
}

var (
	_ encoding.TextMarshaler   = NodeKind(0)
	_ encoding.TextUnmarshaler = (*NodeKind)(nil)
)

// MarshalText for printing kinds in dumps.
func (k NodeKind) MarshalText() ([]byte, error) {
	v, ok := nodeKindNames[k]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid NodeKind(%d)", k)
	}
	return []byte(v), nil
}

// UnmarshalText for setting kinds with configs, CLI, etc.
func (k *NodeKind) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for kind, name := range nodeKindNames {
		if name == text {
			*k = kind
			return nil
		}
	}

	return fmt.Errorf("unknown node kind %q", text)
}

// Node is one recorded element of a trace.
type Node interface {
	ID() NodeID
	Location() Location
	Parent() NodeID
	Position() int
	Result() any
	Meta(key string) (any, bool)
	SetMeta(key string, value any)
	MetaKeys() []string
	Info() *NodeInfo

	// Kind returns the variant of the node.
	Kind() NodeKind

	// Operands returns the payload values of the node: callee first, then
	// arguments, then the condition for jumps.
	Operands() []TapeValue

	fmt.Stringer
	isNode()
}

// NodeInfo is the metadata every node carries.
type NodeInfo struct {
	id       NodeID
	location Location
	parent   NodeID
	position int
	result   any

	mu   sync.Mutex
	meta map[string]any
}

// ID returns the node identifier.
func (i *NodeInfo) ID() NodeID { return i.id }

// Location returns where in the original program the node comes from.
func (i *NodeInfo) Location() Location { return i.location }

// Parent returns the enclosing nested call, zero for the root.
func (i *NodeInfo) Parent() NodeID { return i.parent }

// Position returns the 1-based position among the parent's children.
func (i *NodeInfo) Position() int { return i.position }

// Result returns the runtime value the recorded element produced.
func (i *NodeInfo) Result() any { return i.result }

// Info exposes the metadata block itself.
func (i *NodeInfo) Info() *NodeInfo { return i }

// Meta returns an annotation attached by a later pass.
func (i *NodeInfo) Meta(key string) (any, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	v, ok := i.meta[key]
	return v, ok
}

// SetMeta attaches an annotation. It is the only mutation allowed after
// a node was recorded.
func (i *NodeInfo) SetMeta(key string, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.meta == nil {
		i.meta = map[string]any{}
	}
	i.meta[key] = value
}

// MetaKeys returns annotation keys in sorted order.
func (i *NodeInfo) MetaKeys() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	keys := make([]string, 0, len(i.meta))
	for k := range i.meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ConstantNode records a literal or a global.
type ConstantNode struct {
	NodeInfo
	Value TapeValue
}

// ArgumentNode records a block or function argument. Branch is the jump
// that delivered it, zero for function entry arguments.
//
// For function entry arguments Ordinal 1 is the callee itself and user
// arguments start at 2.
type ArgumentNode struct {
	NodeInfo
	Value   TapeValue
	Branch  NodeID
	Ordinal int
}

// PrimitiveCallNode records a call executed atomically.
type PrimitiveCallNode struct {
	NodeInfo
	Callee    TapeValue
	Arguments []TapeValue
}

// NestedCallNode records a call whose execution was traced recursively.
// It is the only node that has children.
type NestedCallNode struct {
	NodeInfo
	Callee    TapeValue
	Arguments []TapeValue

	children []NodeID
}

// ChildIDs returns the IDs of the children in execution order.
func (n *NestedCallNode) ChildIDs() []NodeID {
	return slices.Clone(n.children)
}

// NumChildren returns the number of children.
func (n *NestedCallNode) NumChildren() int {
	return len(n.children)
}

// SpecialCallNode records a non-call form by its head.
type SpecialCallNode struct {
	NodeInfo
	Head      string
	Arguments []TapeValue
}

// ReturnNode closes the children of a nested call.
type ReturnNode struct {
	NodeInfo
	Value TapeValue
}

// JumpNode records a taken branch. Condition is True for unconditional jumps.
type JumpNode struct {
	NodeInfo
	Target    int
	Arguments []TapeValue
	Condition TapeValue
}

func (*ConstantNode) Kind() NodeKind      { return KindConstant }
func (*ArgumentNode) Kind() NodeKind      { return KindArgument }
func (*PrimitiveCallNode) Kind() NodeKind { return KindPrimitiveCall }
func (*NestedCallNode) Kind() NodeKind    { return KindNestedCall }
func (*SpecialCallNode) Kind() NodeKind   { return KindSpecialCall }
func (*ReturnNode) Kind() NodeKind        { return KindReturn }
func (*JumpNode) Kind() NodeKind          { return KindJump }

func (n *ConstantNode) Operands() []TapeValue { return []TapeValue{n.Value} }
func (n *ArgumentNode) Operands() []TapeValue { return []TapeValue{n.Value} }
func (n *PrimitiveCallNode) Operands() []TapeValue {
	return append([]TapeValue{n.Callee}, n.Arguments...)
}
func (n *NestedCallNode) Operands() []TapeValue {
	return append([]TapeValue{n.Callee}, n.Arguments...)
}
func (n *SpecialCallNode) Operands() []TapeValue { return slices.Clone(n.Arguments) }
func (n *ReturnNode) Operands() []TapeValue      { return []TapeValue{n.Value} }
func (n *JumpNode) Operands() []TapeValue {
	return append(slices.Clone(n.Arguments), n.Condition)
}

func (*ConstantNode) isNode()      {}
func (*ArgumentNode) isNode()      {}
func (*PrimitiveCallNode) isNode() {}
func (*NestedCallNode) isNode()    {}
func (*SpecialCallNode) isNode()   {}
func (*ReturnNode) isNode()        {}
func (*JumpNode) isNode()          {}

func (n *ConstantNode) String() string {
	return fmt.Sprintf("[%d] %s = constant %s", n.id, n.location, n.Value)
}

func (n *ArgumentNode) String() string {
	res := fmt.Sprintf("[%d] %s = argument #%d %s", n.id, n.location, n.Ordinal, n.Value)
	if n.Branch != 0 {
		res += fmt.Sprintf(" via [%d]", n.Branch)
	}
	return res
}

func (n *PrimitiveCallNode) String() string {
	return fmt.Sprintf("[%d] %s = primitive %s(%s)", n.id, n.location, n.Callee, valueList(n.Arguments))
}

func (n *NestedCallNode) String() string {
	return fmt.Sprintf("[%d] %s = nested %s(%s)", n.id, n.location, n.Callee, valueList(n.Arguments))
}

func (n *SpecialCallNode) String() string {
	return fmt.Sprintf("[%d] %s = special $%s(%s)", n.id, n.location, n.Head, valueList(n.Arguments))
}

func (n *ReturnNode) String() string {
	return fmt.Sprintf("[%d] %s return %s", n.id, n.location, n.Value)
}

func (n *JumpNode) String() string {
	res := fmt.Sprintf("[%d] %s goto #%d(%s)", n.id, n.location, n.Target, valueList(n.Arguments))
	if !IsUnconditional(n.Condition) {
		res += " if " + n.Condition.String()
	}
	return res
}

func valueList(values []TapeValue) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
