// Package middleware holds HTTP middleware shared by the server's routes.
// Request ID, recovery, and timeout middleware come from chi; this package
// adds what is specific to this system.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"paygate/internal/domain"
	dErrors "paygate/pkg/domain-errors"
	"paygate/pkg/platform/httputil"
)

// TokenValidator checks a bearer token and returns the operator it names.
type TokenValidator interface {
	Validate(token string) (domain.User, error)
}

type contextKeyUser struct{}

// UserFromContext retrieves the authenticated operator, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser{}).(domain.User)
	return user, ok
}

// WithUser returns a context carrying the operator, used by tests that call
// handlers directly.
func WithUser(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, contextKeyUser{}, user)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// operator in the request context for downstream handlers.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.Warn("unauthorized request, missing bearer token",
					"path", r.URL.Path, "request_id", chimw.GetReqID(r.Context()))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}
			user, err := validator.Validate(token)
			if err != nil {
				logger.Warn("unauthorized request, token rejected",
					"path", r.URL.Path, "request_id", chimw.GetReqID(r.Context()), "error", err)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireRole gates a route subtree to specific roles. It must run after
// RequireAuth.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}
			if _, ok := allowed[user.Role]; !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role not permitted for this operation"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
