package planner

import (
	"fmt"
	"strings"

	"chronoclean/internal/services"
)

// CollisionPolicy selects how a proposal whose destination is already taken
// is handled.
type CollisionPolicy int

const (
	// CheckHash skips byte-identical duplicates and disambiguates the rest.
	CheckHash CollisionPolicy = iota
	// Rename always disambiguates without comparing content.
	Rename
	// Skip drops the colliding proposal.
	Skip
	// Fail aborts planning on the first collision.
	Fail
)

var policyNames = map[CollisionPolicy]string{
	CheckHash: "check_hash",
	Rename:    "rename",
	Skip:      "skip",
	Fail:      "fail",
}

// ParsePolicy converts a configured policy name into a CollisionPolicy.
// Unknown names are rejected.
func ParsePolicy(name string) (CollisionPolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for policy, policyName := range policyNames {
		if policyName == normalized {
			return policy, nil
		}
	}
	return 0, services.Wrap(services.ErrValidation, "planner", "parse policy",
		fmt.Sprintf("unknown collision policy %q (want check_hash, rename, skip, or fail)", name), nil)
}

func (p CollisionPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("CollisionPolicy(%d)", int(p))
}

// MarshalText renders the policy using its configuration name.
func (p CollisionPolicy) MarshalText() ([]byte, error) {
	if _, ok := policyNames[p]; !ok {
		return nil, fmt.Errorf("invalid collision policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText parses a configuration name.
func (p *CollisionPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
