package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// ErrValidation wraps field-level input errors
	ErrValidation = errors.New("validation failed")

	// Enrollment errors
	ErrInvalidIdentity    = errors.New("identity out of range")
	ErrIdentityInUse      = errors.New("identity already enrolled")
	ErrDuplicateBiometric = errors.New("fingerprint already enrolled")
	ErrSensorFault        = errors.New("sensor fault")
	ErrCommitFailed       = errors.New("enrollment commit failed")
	ErrTimeout            = errors.New("timed out waiting for the sensor")

	// Access errors
	ErrNotAuthenticated = errors.New("no authenticated identity")
	ErrInvalidStatus    = errors.New("status must be Vacant or Occupied")

	// Admin errors
	ErrAdminNotFound            = errors.New("admin not found")
	ErrAdminExists              = errors.New("admin with this username, email or fingerprint already exists")
	ErrNotSuperAdmin            = errors.New("super admin access required")
	ErrCannotDeleteSelf         = errors.New("admins cannot delete themselves")
	ErrCannotDemoteSelf         = errors.New("admins cannot remove their own super admin flag")
	ErrUnauthorizedFingerprint  = errors.New("unauthorized fingerprint id")
	ErrAdminNotAuthorizedInRoom = errors.New("admin not authorized for this room")

	// Room errors
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomExists        = errors.New("room already exists")
	ErrInvalidRoomNumber = errors.New("room number is required")
	ErrTimeSlotConflict  = errors.New("time slot conflict")
)

// DuplicateBiometricError reports the identity already holding a scanned finger
type DuplicateBiometricError struct {
	Existing Identity
}

func (e *DuplicateBiometricError) Error() string {
	return fmt.Sprintf("%s with id %d", ErrDuplicateBiometric, e.Existing)
}

// Is makes errors.Is(err, ErrDuplicateBiometric) succeed
func (e *DuplicateBiometricError) Is(target error) bool {
	return target == ErrDuplicateBiometric
}
