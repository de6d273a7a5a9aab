package model

import (
	"fmt"
	"time"
)

// AccessPhase names the two states of the access controller
type AccessPhase string

const (
	AccessAwaitAuthentication AccessPhase = "await_authentication"
	AccessAuthenticated       AccessPhase = "authenticated"
)

// AccessState is the state of the access controller.
// The authenticated identity is only reachable while in AccessAuthenticated,
// so a reset can never leave a stale identity behind.
type AccessState struct {
	phase    AccessPhase
	identity Identity
	since    time.Time
}

// AwaitingAuthentication returns the idle access state
func AwaitingAuthentication() AccessState {
	return AccessState{phase: AccessAwaitAuthentication}
}

// AuthenticatedAs returns the state for a resolved identity
func AuthenticatedAs(id Identity, at time.Time) AccessState {
	return AccessState{phase: AccessAuthenticated, identity: id, since: at}
}

// Phase returns the current phase; the zero value is AccessAwaitAuthentication
func (s AccessState) Phase() AccessPhase {
	if s.phase == "" {
		return AccessAwaitAuthentication
	}
	return s.phase
}

// IsAuthenticated returns true in AccessAuthenticated
func (s AccessState) IsAuthenticated() bool {
	return s.phase == AccessAuthenticated
}

// Identity returns the authenticated identity, if any
func (s AccessState) Identity() (Identity, bool) {
	if !s.IsAuthenticated() {
		return NoIdentity, false
	}
	return s.identity, true
}

// Since returns when the identity was authenticated (zero when idle)
func (s AccessState) Since() time.Time {
	return s.since
}

func (s AccessState) String() string {
	if id, ok := s.Identity(); ok {
		return fmt.Sprintf("%s(%d)", AccessAuthenticated, id)
	}
	return string(AccessAwaitAuthentication)
}
