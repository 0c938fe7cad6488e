// Package transform rewrites a control-flow graph into an equivalent one
// that records a trace of its own execution.
//
// The instrumented function has one block more than the original. Recording
// is expressed as ordinary calls of the intrinsic globals below, whose first
// literal operand is a tape.Template:
//
//	%r  = tape.new(%self, args...)             entry block, before anything else
//	%jn = tape.enter(%r, %jin)                 jump targets, records the incoming jump
//	%_  = tape.record(%r, <argument>, %a, %jn) each block argument
//	%v  = tape.record(%r, <call>, callee, ...) each statement keeps its variable
//	%p  = tape.pend(%r, <jump>, args..., cond) each branch, passed along the edge
//	%t  = tape.finish(%r, %p, %v)              synthetic return block
//
// Jumps and returns are only known to be taken once control arrives at their
// destination, so a branch prepares its description with tape.pend and the
// destination records it. Returns are redirected to the synthetic block which
// finishes the recording and returns the tape.Result.
package transform
