package mutate

import "fmt"

// Policy controls which connection multiplicities are rejected. Fan-out
// (one OUT port feeding several connections) is always forbidden by the
// default policy; fan-in (several connections into one IN port) is
// forbidden only by the exclusive policy.
type Policy struct {
	ForbidFanOut bool
	ForbidFanIn  bool
}

// Named policies accepted in config.
const (
	PolicyFanOutOnly = "fan-out-only"
	PolicyExclusive  = "exclusive"
)

// DefaultPolicy forbids fan-out only.
func DefaultPolicy() Policy {
	return Policy{ForbidFanOut: true}
}

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", PolicyFanOutOnly:
		return Policy{ForbidFanOut: true}, nil
	case PolicyExclusive:
		return Policy{ForbidFanOut: true, ForbidFanIn: true}, nil
	default:
		return Policy{}, fmt.Errorf("unknown connection policy %q", name)
	}
}
