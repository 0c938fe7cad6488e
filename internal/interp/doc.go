// Package interp executes cfg functions.
//
// Values are plain Go values: int64, float64, string, bool, Object and
// whatever natives return. Globals resolve to natives, to other cfg
// functions or to arbitrary values. A block argument list starts with the
// function value itself, see package cfg.
package interp
