// Package cfg defines the control-flow graph representation consumed and
// produced by the instrumentation pass.
//
// A Function is a list of blocks indexed from 1. Every block has an ordered
// list of block arguments, an ordered list of statements and a branch set.
// Each statement and each block argument defines exactly one variable; the
// variable IDs are unique within a function.
//
// Conventions shared by every producer and consumer of this package:
//
//   - Block 1 is the entry block. Its first argument receives the function
//     value itself, the remaining ones receive the call arguments.
//   - Block 1 is never a jump target.
//   - Branches are tried in order. A conditional jump is taken when its
//     condition is true, an unconditional jump or a return is always taken.
//   - When no branch of a block is taken control falls through to the next
//     block.
package cfg
