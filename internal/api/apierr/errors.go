package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeNotSuperAdmin           = "NOT_SUPER_ADMIN"
	CodeCannotDeleteSelf        = "CANNOT_DELETE_SELF"
	CodeCannotDemoteSelf        = "CANNOT_DEMOTE_SELF"
	CodeAdminNotFound           = "ADMIN_NOT_FOUND"
	CodeAdminExists             = "ADMIN_EXISTS"
	CodeRoomNotFound            = "ROOM_NOT_FOUND"
	CodeRoomExists              = "ROOM_EXISTS"
	CodeTimeSlotConflict        = "TIME_SLOT_CONFLICT"
	CodeUnauthorizedFingerprint = "UNAUTHORIZED_FINGERPRINT"
	CodeAdminNotAuthorized      = "ADMIN_NOT_AUTHORIZED"
	CodeNotFound                = "NOT_FOUND"
	CodeInternalError           = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status an error is written with
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Validation errors carry their own message
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidRoomNumber),
		errors.Is(err, model.ErrInvalidStatus):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

	// Map admin errors
	case errors.Is(err, model.ErrNotSuperAdmin):
		return &httpError{http.StatusForbidden, APIError{CodeNotSuperAdmin, "Only super admins can perform this action"}}
	case errors.Is(err, model.ErrCannotDeleteSelf):
		return &httpError{http.StatusBadRequest, APIError{CodeCannotDeleteSelf, "Cannot delete your own account"}}
	case errors.Is(err, model.ErrCannotDemoteSelf):
		return &httpError{http.StatusBadRequest, APIError{CodeCannotDemoteSelf, "Cannot remove your own super admin flag"}}
	case errors.Is(err, model.ErrAdminNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAdminNotFound, "Admin not found"}}
	case errors.Is(err, model.ErrAdminExists):
		return &httpError{http.StatusConflict, APIError{CodeAdminExists, err.Error()}}

	// Map room errors
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomExists):
		return &httpError{http.StatusConflict, APIError{CodeRoomExists, "Room already exists"}}
	case errors.Is(err, model.ErrTimeSlotConflict):
		return &httpError{http.StatusBadRequest, APIError{CodeTimeSlotConflict, err.Error()}}
	case errors.Is(err, model.ErrUnauthorizedFingerprint):
		return &httpError{http.StatusForbidden, APIError{CodeUnauthorizedFingerprint, "Fingerprint is not registered to any admin"}}
	case errors.Is(err, model.ErrAdminNotAuthorizedInRoom):
		return &httpError{http.StatusForbidden, APIError{CodeAdminNotAuthorized, "Admin is not authorized for this room"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewNotFoundError creates a not found error for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
}

// NewInternalError creates an internal server error.
// A non-empty requestID is included in the message.
func NewInternalError(requestID string) error {
	msg := "Internal server error"
	if requestID != "" {
		msg += " (request " + requestID + ")"
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, msg}}
}
