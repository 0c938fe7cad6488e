package main

import (
	"encoding"
	"fmt"

	"github.com/spf13/pflag"
)

type textValue interface {
	encoding.TextUnmarshaler
	fmt.Stringer
}

// textFlagValue exposes a text unmarshalable enum as a flag.
type textFlagValue struct {
	dst      textValue
	typeName string
}

var _ pflag.Value = (*textFlagValue)(nil)

func textFlag(dst textValue, typeName string) *textFlagValue {
	return &textFlagValue{dst: dst, typeName: typeName}
}

func (v *textFlagValue) String() string {
	return v.dst.String()
}

func (v *textFlagValue) Set(s string) error {
	return v.dst.UnmarshalText([]byte(s))
}

func (v *textFlagValue) Type() string {
	return v.typeName
}
