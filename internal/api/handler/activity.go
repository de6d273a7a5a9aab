package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/veriloc/internal/api/response"
	"github.com/mcoot/veriloc/internal/services/activity"
)

// ActivityHandler serves the activity log
type ActivityHandler struct {
	activityService *activity.Service
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *activity.Service) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// List handles GET /api/v1/activity?limit=
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := activity.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.activityService.Recent(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ActivitiesFromModel(entries))
}
