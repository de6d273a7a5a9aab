package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/veriloc/internal/api/apierr"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/auth"
)

type contextKey string

const (
	adminContextKey   contextKey = "admin"
	sessionContextKey contextKey = "session"
)

// Auth creates authentication middleware
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, sessionContextKey, session)
			ctx = context.WithValue(ctx, adminContextKey, &session.Admin)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperAdmin rejects admins without the super admin flag.
// It must run after Auth.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin := GetAdmin(r.Context())
		if admin == nil {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		if !admin.IsSuperAdmin {
			apierr.WriteError(w, model.ErrNotSuperAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetAdmin returns the authenticated admin from the request context
func GetAdmin(ctx context.Context) *model.Admin {
	admin, _ := ctx.Value(adminContextKey).(*model.Admin)
	return admin
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetAdmin returns the authenticated admin or panics
func MustGetAdmin(ctx context.Context) *model.Admin {
	admin := GetAdmin(ctx)
	if admin == nil {
		panic("no admin in context - auth middleware not applied?")
	}
	return admin
}
