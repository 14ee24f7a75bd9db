package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-wanandroid/internal/model"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*model.GatewayClaims, error)
}

type sessionChecker interface {
	LoggedIn(ctx context.Context) bool
}

type contextKey string

const gatewayClaimsContextKey contextKey = "gateway_claims"

// AuthMiddleware guards the gateway. Bearer tokens are only checked when a
// validator is configured; without one the gateway is open to local callers.
type AuthMiddleware struct {
	validator tokenValidator
	session   sessionChecker
}

func NewAuthMiddleware(validator tokenValidator, session sessionChecker) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, session: session}
}

func (m *AuthMiddleware) Enabled() bool {
	return m.validator != nil
}

func (m *AuthMiddleware) RequireToken(next http.Handler) http.Handler {
	if m.validator == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeUnauthorized(w, "UNAUTHORIZED", "missing or invalid authorization header")
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			writeUnauthorized(w, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), gatewayClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession rejects requests while no upstream user is logged in.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.session == nil || !m.session.LoggedIn(r.Context()) {
			writeUnauthorized(w, "UNAUTHORIZED", "login required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (*model.GatewayClaims, bool) {
	claims, ok := ctx.Value(gatewayClaimsContextKey).(*model.GatewayClaims)
	return claims, ok
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter since browsers cannot set headers on a
// websocket handshake.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}

	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

func writeUnauthorized(w http.ResponseWriter, code string, message string) {
	writeError(w, http.StatusUnauthorized, code, message)
}
