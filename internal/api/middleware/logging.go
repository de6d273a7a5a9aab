package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/veriloc/internal/middleware"
)

// Logging logs API requests with the component attribute set
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "api")))
}
