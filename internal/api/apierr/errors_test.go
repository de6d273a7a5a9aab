package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/auth"
)

func TestToHTTPError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad email", model.ErrValidation), http.StatusBadRequest, CodeInvalidRequest},
		{model.ErrInvalidStatus, http.StatusBadRequest, CodeInvalidRequest},
		{model.ErrNotSuperAdmin, http.StatusForbidden, CodeNotSuperAdmin},
		{model.ErrCannotDeleteSelf, http.StatusBadRequest, CodeCannotDeleteSelf},
		{model.ErrCannotDemoteSelf, http.StatusBadRequest, CodeCannotDemoteSelf},
		{model.ErrAdminNotFound, http.StatusNotFound, CodeAdminNotFound},
		{fmt.Errorf("%w: username", model.ErrAdminExists), http.StatusConflict, CodeAdminExists},
		{model.ErrRoomNotFound, http.StatusNotFound, CodeRoomNotFound},
		{model.ErrRoomExists, http.StatusConflict, CodeRoomExists},
		{&model.TimeSlotConflictError{Room: "101"}, http.StatusBadRequest, CodeTimeSlotConflict},
		{fmt.Errorf("%w: 4242", model.ErrUnauthorizedFingerprint), http.StatusForbidden, CodeUnauthorizedFingerprint},
		{model.ErrAdminNotAuthorizedInRoom, http.StatusForbidden, CodeAdminNotAuthorized},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{auth.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized},
		{NewInvalidRequestError("nope"), http.StatusBadRequest, CodeInvalidRequest},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			he := toHTTPError(tc.err)
			assert.Equal(t, tc.status, he.status)
			assert.Equal(t, tc.code, he.apiError.Code)
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, model.ErrRoomNotFound)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, CodeRoomNotFound, resp.Error.Code)
	assert.Equal(t, "Room not found", resp.Error.Message)
}

func TestInternalErrorsHideDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.New("redis: connection refused"))

	assert.NotContains(t, rr.Body.String(), "redis")
}
