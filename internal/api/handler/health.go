package handler

import (
	"net/http"

	"github.com/mcoot/veriloc/internal/api/response"
)

// HealthHandler reports server liveness
type HealthHandler struct {
	storageType string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storageType string) *HealthHandler {
	return &HealthHandler{storageType: storageType}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: h.storageType})
}
