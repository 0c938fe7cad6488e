// Package tracer runs cfg functions with recording enabled.
//
// A Tracer installs the tape.* intrinsics into an interpreter machine and
// acts as the dispatch policy of every Recorder it starts: calls of cfg
// functions are traced recursively, natives and configured primitives are
// recorded as leaves.
package tracer
