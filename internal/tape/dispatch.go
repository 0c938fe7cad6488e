package tape

import (
	"context"
	"fmt"
	"log/slog"
)

// CallKind is the decision of a Dispatcher about a callee.
type CallKind int

const (
	_ CallKind = iota

	// CallPrimitive records the call as an atomic leaf.
	CallPrimitive

	// CallNested traces the callee recursively.
	CallNested
)

func (k CallKind) String() string {
	switch k {
	case CallPrimitive:
		return "primitive"
	case CallNested:
		return "nested"
	default:
		return fmt.Sprintf("invalid-call-kind(%d)", k)
	}
}

// Dispatcher is the policy a Recorder consults for every call.
type Dispatcher interface {
	// Classify decides how a callee is recorded. Depth is the nesting depth
	// of the recording scope, zero for the trace root.
	Classify(callee any, depth int) CallKind

	// CallPrimitive performs the call without tracing it.
	CallPrimitive(ctx context.Context, callee any, args []any) (any, error)

	// CallNested runs the instrumented callee with ctx. The callee's Recorder
	// picks the pending node up from ctx, and CallNested must return that
	// node as the trace root together with the call result.
	CallNested(ctx context.Context, callee any, args []any) (any, *NestedCallNode, error)
}

// frame is a nested call waiting for its callee to start recording.
type frame struct {
	tape       *Tape
	node       *NestedCallNode
	depth      int
	dispatcher Dispatcher
	log        *slog.Logger
	claimed    bool
}

type frameKey struct{}

func withFrame(ctx context.Context, f *frame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

// claimFrame returns the pending frame from ctx unless somebody took it already.
func claimFrame(ctx context.Context) *frame {
	f, _ := ctx.Value(frameKey{}).(*frame)
	if f == nil || f.claimed {
		return nil
	}
	f.claimed = true
	return f
}

// Detach returns a context that does not carry a pending nested call, for
// running something independently traced from within a call.
func Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, frameKey{}, (*frame)(nil))
}
