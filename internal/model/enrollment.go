package model

import "time"

// EnrollmentState is a step of the enrollment state machine
type EnrollmentState string

const (
	EnrollmentAwaitIdentityInput      EnrollmentState = "await_identity_input"
	EnrollmentCheckIdentityFree       EnrollmentState = "check_identity_free"
	EnrollmentCheckDuplicateBiometric EnrollmentState = "check_duplicate_biometric"
	EnrollmentCaptureFirstSample      EnrollmentState = "capture_first_sample"
	EnrollmentAwaitFingerRemoval      EnrollmentState = "await_finger_removal"
	EnrollmentCaptureSecondSample     EnrollmentState = "capture_second_sample"
	EnrollmentCommit                  EnrollmentState = "commit"
	EnrollmentSuccess                 EnrollmentState = "success" // Terminal
	EnrollmentFailed                  EnrollmentState = "failed"  // Terminal
)

// IsTerminal returns true for Success and Failed
func (s EnrollmentState) IsTerminal() bool {
	return s == EnrollmentSuccess || s == EnrollmentFailed
}

// FailureReason explains why an enrollment ended in EnrollmentFailed
type FailureReason string

const (
	FailureInvalidIdentity    FailureReason = "invalid_identity"
	FailureIdentityInUse      FailureReason = "identity_in_use"
	FailureDuplicateBiometric FailureReason = "duplicate_biometric"
	FailureSensorFault        FailureReason = "sensor_fault"
	FailureCommitError        FailureReason = "commit_error"
	FailureTimeout            FailureReason = "timeout"
	FailureCancelled          FailureReason = "cancelled"
)

// EnrollmentSession is the transient state of one enrollment attempt
type EnrollmentSession struct {
	Identity    Identity
	State       EnrollmentState
	Reason      FailureReason // Set when State is EnrollmentFailed
	DuplicateOf Identity      // Set for FailureDuplicateBiometric
	Err         error         // Wrapped cause of a failure
	History     []EnrollmentState
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewEnrollmentSession starts a session in EnrollmentAwaitIdentityInput
func NewEnrollmentSession(id Identity, now time.Time) *EnrollmentSession {
	return &EnrollmentSession{
		Identity:  id,
		State:     EnrollmentAwaitIdentityInput,
		History:   []EnrollmentState{EnrollmentAwaitIdentityInput},
		StartedAt: now,
	}
}

// Enter moves the session to the next step
func (s *EnrollmentSession) Enter(state EnrollmentState) {
	s.State = state
	s.History = append(s.History, state)
}

// Fail moves the session to EnrollmentFailed with the given reason
func (s *EnrollmentSession) Fail(reason FailureReason, now time.Time) {
	s.Reason = reason
	s.Enter(EnrollmentFailed)
	s.FinishedAt = now
}

// Succeed moves the session to EnrollmentSuccess
func (s *EnrollmentSession) Succeed(now time.Time) {
	s.Enter(EnrollmentSuccess)
	s.FinishedAt = now
}

// Succeeded returns true if the enrollment committed
func (s *EnrollmentSession) Succeeded() bool {
	return s.State == EnrollmentSuccess
}

// Visited reports whether the session passed through state
func (s *EnrollmentSession) Visited(state EnrollmentState) bool {
	for _, st := range s.History {
		if st == state {
			return true
		}
	}
	return false
}
