package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/veriloc/internal/api/apierr"
	"github.com/mcoot/veriloc/internal/middleware"
)

// Recovery turns panics into INTERNAL_ERROR JSON responses
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError(middleware.RequestID(r.Context())))
	})
}
