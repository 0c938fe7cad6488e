package query

import (
	"slices"

	"github.com/sirkon/tapegraph/internal/tape"
)

// Referenced returns the nodes the payload of n immediately depends on.
//
// Calls, jumps, returns and special forms depend on the nodes their
// references resolve to, whatever the axis. Constants depend on nothing.
// Arguments depend on nothing under Preceding and come from the enclosing
// call under Parent and PrecedingParent.
func Referenced(t *tape.Tape, n tape.Node, axis Axis) []tape.Node {
	switch n := n.(type) {
	case *tape.ConstantNode:
		return nil
	case *tape.ArgumentNode:
		if axis != Parent && axis != PrecedingParent {
			return nil
		}
		return argumentSource(t, n)
	default:
		return resolve(t, n.Operands())
	}
}

// argumentSource applies the parent rule. A function entry argument of
// ordinal 1 is the callee of the enclosing call and ordinal k is its
// (k-1)-th argument. A block argument delivered by a jump comes from the
// matching argument of that jump.
func argumentSource(t *tape.Tape, n *tape.ArgumentNode) []tape.Node {
	if n.Branch != 0 {
		jump, ok := t.Node(n.Branch).(*tape.JumpNode)
		if !ok || n.Ordinal < 1 || n.Ordinal > len(jump.Arguments) {
			return nil
		}
		return resolve(t, []tape.TapeValue{jump.Arguments[n.Ordinal-1]})
	}

	p := t.ParentOf(n)
	if p == nil {
		return nil
	}
	switch {
	case n.Ordinal == 1:
		return resolve(t, []tape.TapeValue{p.Callee})
	case n.Ordinal > 1 && n.Ordinal-2 < len(p.Arguments):
		return resolve(t, []tape.TapeValue{p.Arguments[n.Ordinal-2]})
	default:
		return nil
	}
}

func resolve(t *tape.Tape, values []tape.TapeValue) []tape.Node {
	var res []tape.Node
	for _, ref := range tape.References(values...) {
		target := t.Node(ref.Target)
		if target == nil || slices.Contains(res, target) {
			continue
		}
		res = append(res, target)
	}
	return res
}

// Dependents returns the following siblings of n whose payload references n.
func Dependents(t *tape.Tape, n tape.Node) []tape.Node {
	var res []tape.Node
	for _, f := range Query(t, n, Following) {
		if slices.Contains(Referenced(t, f, Preceding), n) {
			res = append(res, f)
		}
	}
	return res
}

// Visitor is called once per node discovered by a fixpoint traversal with
// the nodes it directly relates to.
type Visitor func(m tape.Node, related []tape.Node)

type traversal struct {
	axis    Axis
	visitor Visitor
}

// Option configures Backward and Forward.
type Option func(*traversal)

// WithAxis sets the reference axis of Backward, Preceding by default.
// Forward always walks dependents of the Preceding axis.
func WithAxis(axis Axis) Option {
	return func(tr *traversal) {
		tr.axis = axis
	}
}

// WithVisitor installs a visitor driving custom accumulation.
func WithVisitor(v Visitor) Option {
	return func(tr *traversal) {
		tr.visitor = v
	}
}

// Backward returns the transitive closure of Referenced from n in discovery
// order. n itself is not included.
func Backward(t *tape.Tape, n tape.Node, opts ...Option) []tape.Node {
	tr := newTraversal(opts)
	return tr.run(n, func(m tape.Node) []tape.Node {
		return Referenced(t, m, tr.axis)
	})
}

// Forward returns the transitive closure of Dependents from n in discovery
// order. n itself is not included.
func Forward(t *tape.Tape, n tape.Node, opts ...Option) []tape.Node {
	tr := newTraversal(opts)
	return tr.run(n, func(m tape.Node) []tape.Node {
		return Dependents(t, m)
	})
}

func newTraversal(opts []Option) *traversal {
	tr := &traversal{axis: Preceding}
	for _, opt := range opts {
		opt(tr)
	}
	return tr
}

// run expands the discovered nodes with a cursor over the growing result,
// every node is expanded once.
func (tr *traversal) run(n tape.Node, next func(tape.Node) []tape.Node) []tape.Node {
	seen := map[tape.NodeID]struct{}{n.ID(): {}}
	var res []tape.Node
	add := func(nodes []tape.Node) {
		for _, m := range nodes {
			if _, ok := seen[m.ID()]; ok {
				continue
			}
			seen[m.ID()] = struct{}{}
			res = append(res, m)
		}
	}

	add(next(n))
	for cursor := 0; cursor < len(res); cursor++ {
		m := res[cursor]
		related := next(m)
		if tr.visitor != nil {
			tr.visitor(m, related)
		}
		add(related)
	}

	return res
}
