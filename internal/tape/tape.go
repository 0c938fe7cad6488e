package tape

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Tape owns every node of one trace.
//
// Tape is NOT safe for concurrent use while it is being recorded. Once the
// recording invocation returned it is read-only and can be shared between
// goroutines. Node metadata stays writable and is synchronized per node.
type Tape struct {
	id    uuid.UUID
	nodes []Node
}

func newTape() *Tape {
	return &Tape{id: uuid.New()}
}

// ID returns the identifier stamped when the trace root was created.
func (t *Tape) ID() uuid.UUID {
	return t.id
}

// Root returns the trace root.
func (t *Tape) Root() *NestedCallNode {
	if len(t.nodes) == 0 {
		return nil
	}
	return t.nodes[0].(*NestedCallNode)
}

// Len returns the number of recorded nodes.
func (t *Tape) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given ID or nil.
func (t *Tape) Node(id NodeID) Node {
	if id == 0 || int(id) > len(t.nodes) {
		return nil
	}
	return t.nodes[id-1]
}

// Nodes returns every node in execution order.
func (t *Tape) Nodes() []Node {
	return slices.Clone(t.nodes)
}

// Children returns the children of n, empty for anything but a nested call.
func (t *Tape) Children(n Node) []Node {
	nested, ok := n.(*NestedCallNode)
	if !ok {
		return nil
	}
	res := make([]Node, len(nested.children))
	for i, id := range nested.children {
		res[i] = t.nodes[id-1]
	}
	return res
}

// ParentOf returns the enclosing nested call of n or nil for the root.
func (t *Tape) ParentOf(n Node) *NestedCallNode {
	p := t.Node(n.Parent())
	if p == nil {
		return nil
	}
	return p.(*NestedCallNode)
}

// Resolve returns the node a reference points to, nil for constants.
func (t *Tape) Resolve(v TapeValue) Node {
	r, ok := v.(Reference)
	if !ok {
		return nil
	}
	return t.Node(r.Target)
}

// append registers n as the last child of parent. A nil parent makes n the root.
func (t *Tape) append(parent *NestedCallNode, n Node, loc Location, result any) {
	info := n.Info()
	info.id = NodeID(len(t.nodes) + 1)
	info.location = loc
	info.result = result
	if parent != nil {
		info.parent = parent.id
		parent.children = append(parent.children, info.id)
		info.position = len(parent.children)
	}
	t.nodes = append(t.nodes, n)
}

// Validate checks the structural invariants of the trace: a single nested
// root, parent and position agreement, contiguous positions, leaves without
// children and references pointing strictly backwards in execution order.
func (t *Tape) Validate() error {
	if len(t.nodes) == 0 {
		return fmt.Errorf("empty tape: %w", ErrInvalidTape)
	}
	if _, ok := t.nodes[0].(*NestedCallNode); !ok {
		return fmt.Errorf("root is %s: %w", t.nodes[0].Kind(), ErrInvalidTape)
	}

	for i, n := range t.nodes {
		id := NodeID(i + 1)
		if n.ID() != id {
			return fmt.Errorf("node at %d has id %d: %w", id, n.ID(), ErrInvalidTape)
		}

		if i > 0 {
			parent, ok := t.Node(n.Parent()).(*NestedCallNode)
			if !ok {
				return fmt.Errorf("node %d has no nested parent: %w", id, ErrInvalidTape)
			}
			if n.Parent() >= id {
				return fmt.Errorf("node %d precedes its parent %d: %w", id, n.Parent(), ErrInvalidTape)
			}
			pos := n.Position()
			if pos < 1 || pos > len(parent.children) || parent.children[pos-1] != id {
				return fmt.Errorf("node %d is not at position %d of %d: %w", id, pos, parent.id, ErrInvalidTape)
			}
		} else if n.Parent() != 0 {
			return fmt.Errorf("root has parent %d: %w", n.Parent(), ErrInvalidTape)
		}

		if nested, ok := n.(*NestedCallNode); ok {
			prev := id
			for _, c := range nested.children {
				if c <= prev {
					return fmt.Errorf("children of %d are out of order: %w", id, ErrInvalidTape)
				}
				prev = c
			}
		}

		for _, ref := range References(n.Operands()...) {
			if ref.Target == 0 || ref.Target >= id {
				return fmt.Errorf("node %d references %d at %s: %w", id, ref.Target, ref.Location, ErrInvalidTape)
			}
		}
		if arg, ok := n.(*ArgumentNode); ok && arg.Branch != 0 {
			if _, ok := t.Node(arg.Branch).(*JumpNode); !ok || arg.Branch >= id {
				return fmt.Errorf("argument %d has bad branch %d: %w", id, arg.Branch, ErrInvalidTape)
			}
		}
	}

	return nil
}
