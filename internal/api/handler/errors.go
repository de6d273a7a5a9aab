package handler

import (
	"net/http"

	"github.com/mcoot/veriloc/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest          = apierr.CodeInvalidRequest
	CodeUnauthorized            = apierr.CodeUnauthorized
	CodeInvalidCredentials      = apierr.CodeInvalidCredentials
	CodeNotSuperAdmin           = apierr.CodeNotSuperAdmin
	CodeCannotDeleteSelf        = apierr.CodeCannotDeleteSelf
	CodeCannotDemoteSelf        = apierr.CodeCannotDemoteSelf
	CodeAdminNotFound           = apierr.CodeAdminNotFound
	CodeAdminExists             = apierr.CodeAdminExists
	CodeRoomNotFound            = apierr.CodeRoomNotFound
	CodeRoomExists              = apierr.CodeRoomExists
	CodeTimeSlotConflict        = apierr.CodeTimeSlotConflict
	CodeUnauthorizedFingerprint = apierr.CodeUnauthorizedFingerprint
	CodeAdminNotAuthorized      = apierr.CodeAdminNotAuthorized
	CodeInternalError           = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}
