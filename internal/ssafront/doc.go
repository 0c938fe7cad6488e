// Package ssafront lowers go/ssa functions into control-flow graphs the
// transformer instruments.
//
// SSA block i becomes block i+1. The entry block receives the function itself
// followed by the parameters, phi nodes become arguments of their block and
// every predecessor passes its phi edges along the jump. The numeric types
// are int and int64, lowered to int64, and float64. Other widths are
// unsupported.
package ssafront
