package tvrules

import (
	"errors"
	"fmt"

	"github.com/sirkon/tapegraph/internal/ssafront"
	"github.com/sirkon/tapegraph/internal/transform"
)

// Rule represents a tapevet rule code.
type Rule int

const (
	ruleInvalid Rule = iota

	TGV000Unsupported
	TGV010InvalidCFG
	TGV020EntryIsJumpTarget
	TGV030UnrecognizedStatement
)

// String returns the canonical code and short name of the rule.
func (r Rule) String() string {
	switch r {
	case TGV000Unsupported:
		return "TGV000: Unsupported"
	case TGV010InvalidCFG:
		return "TGV010: InvalidCFG"
	case TGV020EntryIsJumpTarget:
		return "TGV020: EntryIsJumpTarget"
	case TGV030UnrecognizedStatement:
		return "TGV030: UnrecognizedStatement"
	default:
		return fmt.Sprintf("rule-unknown(%d)", r)
	}
}

// Description returns the human-readable explanation of the rule.
func (r Rule) Description() string {
	switch r {
	case TGV000Unsupported:
		return "The function uses a construct the lowering has no counterpart for."
	case TGV010InvalidCFG:
		return "The lowered control-flow graph is malformed."
	case TGV020EntryIsJumpTarget:
		return "The entry block must not be a jump target."
	case TGV030UnrecognizedStatement:
		return "A statement has a shape the transformer cannot record."
	default:
		return fmt.Sprintf("unknown-rule(%d)", r)
	}
}

// Of returns the rule an error of lowering or instrumentation violates.
// Errors of other origins give an invalid rule.
func Of(err error) Rule {
	switch {
	case errors.Is(err, ssafront.ErrUnsupported):
		return TGV000Unsupported
	case errors.Is(err, transform.ErrEntryIsJumpTarget):
		return TGV020EntryIsJumpTarget
	case errors.Is(err, transform.ErrUnrecognizedStatement):
		return TGV030UnrecognizedStatement
	case errors.Is(err, transform.ErrInvalidCFG):
		return TGV010InvalidCFG
	default:
		return ruleInvalid
	}
}

// Valid reports whether r is a known rule.
func (r Rule) Valid() bool {
	return r > ruleInvalid && r <= TGV030UnrecognizedStatement
}

func Unsupported() Rule           { return TGV000Unsupported }
func InvalidCFG() Rule            { return TGV010InvalidCFG }
func EntryIsJumpTarget() Rule     { return TGV020EntryIsJumpTarget }
func UnrecognizedStatement() Rule { return TGV030UnrecognizedStatement }
