// Package tvrules defines the TGV-series rule codes reported by tapevet.
//
// Every rule names one reason a function cannot be traced. Codes are stable
// so that findings can be filtered and referenced across runs:
//
//	000–009  Lowering from SSA
//	010–049  Instrumentation of the control-flow graph
//
// Example:
//
//	tvrules.TGV000Unsupported.String()      → "TGV000: Unsupported"
//	tvrules.TGV000Unsupported.Description() → "The function uses a construct the lowering has no counterpart for."
package tvrules
