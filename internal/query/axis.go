package query

import (
	"encoding"
	"fmt"

	"github.com/sirkon/tapegraph/internal/tape"
)

// Axis is a navigation direction over the trace tree.
type Axis int

const (
	_ Axis = iota
	Parent
	Child
	Following
	Preceding
	Ancestor
	Descendant

	// PrecedingParent is only meaningful for dependency lookups: argument
	// nodes follow the Parent rule, everything else the Preceding rule.
	PrecedingParent
)

var axisNames = map[Axis]string{
	Parent:          "parent",
	Child:           "child",
	Following:       "following",
	Preceding:       "preceding",
	Ancestor:        "ancestor",
	Descendant:      "descendant",
	PrecedingParent: "preceding-parent",
}

func (a Axis) String() string {
	v, ok := axisNames[a]
	if !ok {
		return fmt.Sprintf("invalid-axis(%d)", a)
	}
	return v
}

var (
	_ encoding.TextMarshaler   = Axis(0)
	_ encoding.TextUnmarshaler = (*Axis)(nil)
)

// MarshalText to print axes in dumps.
func (a Axis) MarshalText() ([]byte, error) {
	v, ok := axisNames[a]
	if !ok {
		return nil, fmt.Errorf("cannot marshal invalid Axis(%d)", a)
	}
	return []byte(v), nil
}

// UnmarshalText to set axes from CLI flags and configs.
func (a *Axis) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for axis, name := range axisNames {
		if name == text {
			*a = axis
			return nil
		}
	}

	return fmt.Errorf("unknown axis %q", text)
}

// Forward reports whether the axis moves towards later nodes of the trace.
func (a Axis) Forward() bool {
	switch a {
	case Child, Following, Descendant:
		return true
	default:
		return false
	}
}

// Reverse reports whether the axis moves towards earlier nodes of the trace.
func (a Axis) Reverse() bool {
	switch a {
	case Parent, Preceding, Ancestor:
		return true
	default:
		return false
	}
}

// Query returns the nodes reachable from n by the axis. It never fails:
// an axis that means nothing for n gives an empty result.
func Query(t *tape.Tape, n tape.Node, axis Axis) []tape.Node {
	switch axis {
	case Parent:
		if p := t.ParentOf(n); p != nil {
			return []tape.Node{p}
		}
		return nil

	case Child:
		return t.Children(n)

	case Following:
		siblings := siblingsOf(t, n)
		if siblings == nil {
			return nil
		}
		return siblings[n.Position():]

	case Preceding:
		siblings := siblingsOf(t, n)
		if siblings == nil {
			return nil
		}
		return siblings[:n.Position()-1]

	case Ancestor:
		var res []tape.Node
		for p := t.ParentOf(n); p != nil; p = t.ParentOf(p) {
			res = append(res, p)
		}
		return res

	case Descendant:
		res := t.Children(n)
		for cursor := 0; cursor < len(res); cursor++ {
			res = append(res, t.Children(res[cursor])...)
		}
		return res

	default:
		return nil
	}
}

func siblingsOf(t *tape.Tape, n tape.Node) []tape.Node {
	p := t.ParentOf(n)
	if p == nil {
		return nil
	}
	return t.Children(p)
}
