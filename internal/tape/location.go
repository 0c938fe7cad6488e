package tape

import (
	"cmp"
	"fmt"
)

// LocationKind tells what a Location points at.
type LocationKind uint8

const (
	_ LocationKind = iota

	// LocationArgument is a block argument, Index is its variable.
	LocationArgument

	// LocationStatement is a statement, Index is its variable.
	LocationStatement

	// LocationBranch is a branch, Index is its 1-based ordinal in the block.
	LocationBranch
)

// Location is a place in the original control-flow graph.
type Location struct {
	Kind  LocationKind
	Block int
	Index int
}

// ArgumentAt returns a location of a block argument.
func ArgumentAt(block, v int) Location {
	return Location{Kind: LocationArgument, Block: block, Index: v}
}

// StatementAt returns a location of a statement.
func StatementAt(block, v int) Location {
	return Location{Kind: LocationStatement, Block: block, Index: v}
}

// BranchAt returns a location of a branch.
func BranchAt(block, ordinal int) Location {
	return Location{Kind: LocationBranch, Block: block, Index: ordinal}
}

// IsZero reports whether the location is unset.
func (l Location) IsZero() bool {
	return l == Location{}
}

// Compare orders locations by kind, block and index.
func (l Location) Compare(other Location) int {
	if c := cmp.Compare(l.Kind, other.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(l.Block, other.Block); c != 0 {
		return c
	}
	return cmp.Compare(l.Index, other.Index)
}

func (l Location) String() string {
	switch l.Kind {
	case LocationArgument, LocationStatement:
		return fmt.Sprintf("#%d:%%%d", l.Block, l.Index)
	case LocationBranch:
		return fmt.Sprintf("#%d:br%d", l.Block, l.Index)
	default:
		return "-"
	}
}
