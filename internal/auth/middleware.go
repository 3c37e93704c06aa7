package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/karobar-erp/karobar-erp/internal/platform/httpx"
)

type contextKey struct{}

// ContextWithClaims stores claims in the context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// ClaimsFromContext returns the authenticated claims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(contextKey{}).(*Claims)
	return claims
}

// Middleware wires bearer-token authentication and role checks.
type Middleware struct {
	Tokens *TokenIssuer
	Logger *slog.Logger
}

// Authenticate rejects requests without a valid bearer token and stores the
// claims in the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.Fail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := m.Tokens.Parse(token)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("token rejected", slog.String("path", r.URL.Path))
			}
			httpx.Fail(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// Require ensures the authenticated role grants the action.
func (m Middleware) Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httpx.Fail(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !Allowed(claims.Role, action) {
				httpx.Fail(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
