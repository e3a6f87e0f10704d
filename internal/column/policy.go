package column

import "fmt"

// WidenPolicy selects how a repack sizes the new slots.
type WidenPolicy int

const (
	// WidenDemand sizes pending columns to their projected merge result and
	// gives every other column coef times its length as slack.
	WidenDemand WidenPolicy = iota
	// WidenUniform multiplies every slot by the growth coefficient.
	WidenUniform
)

func (p WidenPolicy) String() string {
	switch p {
	case WidenDemand:
		return "demand"
	case WidenUniform:
		return "uniform"
	default:
		return fmt.Sprintf("WidenPolicy(%d)", int(p))
	}
}

// ParsePolicy parses "demand" or "uniform".
func ParsePolicy(s string) (WidenPolicy, error) {
	switch s {
	case "demand", "":
		return WidenDemand, nil
	case "uniform":
		return WidenUniform, nil
	default:
		return 0, fmt.Errorf("unknown widen policy %q", s)
	}
}
