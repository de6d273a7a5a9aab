package model

import (
	"fmt"
	"strings"
	"time"
)

// StatusLabel is the occupancy state reported for a room
type StatusLabel string

const (
	StatusVacant   StatusLabel = "Vacant"
	StatusOccupied StatusLabel = "Occupied"
)

// Valid returns true for the known labels
func (l StatusLabel) Valid() bool {
	return l == StatusVacant || l == StatusOccupied
}

// ParseStatusLabel parses a label case-insensitively
func ParseStatusLabel(s string) (StatusLabel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vacant":
		return StatusVacant, nil
	case "occupied":
		return StatusOccupied, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// StatusReport is one authenticated status change, consumed by a single submit
type StatusReport struct {
	Room      string
	Identity  Identity
	Status    StatusLabel
	CreatedAt time.Time
}

// Outcome is the result of submitting a StatusReport
type Outcome string

const (
	OutcomeAccepted     Outcome = "accepted"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeServerError  Outcome = "server_error"
	OutcomeUnreachable  Outcome = "unreachable"
)
