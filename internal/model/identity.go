package model

import (
	"fmt"
	"strconv"
)

// Identity is the numeric key an operator assigns to one enrolled fingerprint
type Identity int

// NoIdentity is never a valid enrolled identity
const NoIdentity Identity = 0

// String returns the decimal form of the identity
func (id Identity) String() string {
	return strconv.Itoa(int(id))
}

// ParseIdentity parses a decimal identity; it does not check any range
func ParseIdentity(s string) (Identity, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return NoIdentity, fmt.Errorf("%w: %q is not a number", ErrInvalidIdentity, s)
	}
	return Identity(n), nil
}

// IdentityRange is an inclusive range of assignable identities
type IdentityRange struct {
	Min Identity
	Max Identity
}

// DefaultIdentityRange returns the four-digit range used by the reference deployment
func DefaultIdentityRange() IdentityRange {
	return IdentityRange{Min: 1000, Max: 9999}
}

// Contains reports whether id lies within the range, bounds included
func (r IdentityRange) Contains(id Identity) bool {
	return id >= r.Min && id <= r.Max
}

// Validate checks that the range is not empty
func (r IdentityRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("invalid identity range %s: min exceeds max", r)
	}
	return nil
}

func (r IdentityRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}
