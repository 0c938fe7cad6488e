package main

import "strconv"

// parseArg reads a command line argument as the most specific basic value.
func parseArg(s string) any {
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	if v, err := strconv.Unquote(s); err == nil {
		return v
	}
	return s
}
