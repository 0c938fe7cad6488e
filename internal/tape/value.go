package tape

import "fmt"

// TapeValue is an operand stored in a node payload.
type TapeValue interface {
	isTapeValue()
	fmt.Stringer
}

// Constant is a value known without further resolution.
type Constant struct {
	Value any
}

// Reference points to an earlier node. Location is where the value was
// defined in the original program, Target is the node recorded for it.
type Reference struct {
	Location Location
	Target   NodeID
}

func (Constant) isTapeValue()  {}
func (Reference) isTapeValue() {}

// Labeler is implemented by values printed by a short label in payloads.
type Labeler interface {
	Label() string
}

func (c Constant) String() string {
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case Labeler:
		return v.Label()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (r Reference) String() string {
	return fmt.Sprintf("@%s", r.Location)
}

// True is the condition of an unconditional jump.
var True TapeValue = Constant{Value: true}

// IsUnconditional reports whether a jump condition encodes an unconditional jump.
func IsUnconditional(cond TapeValue) bool {
	c, ok := cond.(Constant)
	if !ok {
		return false
	}
	v, ok := c.Value.(bool)
	return ok && v
}

// References returns the references among the values, in order.
func References(values ...TapeValue) []Reference {
	var res []Reference
	for _, v := range values {
		if r, ok := v.(Reference); ok {
			res = append(res, r)
		}
	}
	return res
}
