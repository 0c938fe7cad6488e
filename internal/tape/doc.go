// Package tape implements the recorder tape: a hierarchical trace of every
// value computed, every call made and every branch taken by one execution of
// an instrumented function.
//
// # Model
//
// A trace is a tree of nodes kept by a Tape. The root is always a
// NestedCallNode; every other node has exactly one parent, which is a
// NestedCallNode, and sits in its parent's children at its 1-based Position.
// Children appear in execution order.
//
// Node payloads refer to earlier nodes with TapeValue references. A
// reference keeps the Location of the referenced statement or argument
// together with the ID of the node recorded for it. ArgumentNode.Branch and
// NodeInfo.Parent are plain IDs resolved through the Tape as well, so the
// parent to child edges are the only ownership edges of the graph.
//
// # Lifecycle
//
// A Recorder is created once per instrumented invocation. Nodes are appended
// exactly once, in execution order, and never removed or reordered. After
// recording completes the Tape is read-only, except for node metadata which is
// guarded by a mutex and can be attached by later passes.
//
// # Nesting
//
// For a call the Recorder asks its Dispatcher whether the callee is primitive
// or nested. A nested callee runs its own instrumented code which creates its
// own Recorder; that Recorder finds the caller's pending NestedCallNode in the
// context and records into it, so one Tape holds the whole tree.
package tape
