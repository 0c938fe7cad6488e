package main

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/tapegraph/internal/tape"
)

// dumpNode is the YAML form of a node and its subtree.
type dumpNode struct {
	ID       tape.NodeID   `yaml:"id"`
	Kind     tape.NodeKind `yaml:"kind"`
	Location string        `yaml:"location"`
	Node     string        `yaml:"node"`
	Result   string        `yaml:"result,omitempty"`
	Children []*dumpNode   `yaml:"children,omitempty"`
}

func newDump(tp *tape.Tape, n tape.Node) *dumpNode {
	res := &dumpNode{
		ID:       n.ID(),
		Kind:     n.Kind(),
		Location: n.Location().String(),
		Node:     n.String(),
	}
	if v := n.Result(); v != nil {
		res.Result = tape.Constant{Value: v}.String()
	}
	for _, c := range tp.Children(n) {
		res.Children = append(res.Children, newDump(tp, c))
	}
	return res
}

func dumpYAML(w io.Writer, tp *tape.Tape) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDump(tp, tp.Root())); err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}
	return nil
}

// dumpText prints one node per line indented by its depth.
func dumpText(w io.Writer, tp *tape.Tape) error {
	var walk func(n tape.Node, depth int) error
	walk = func(n tape.Node, depth int) error {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), n); err != nil {
			return fmt.Errorf("print trace: %w", err)
		}
		for _, c := range tp.Children(n) {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(tp.Root(), 0)
}
