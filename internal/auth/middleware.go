package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/colemarsh/gatehouse/internal/models"
	pkghttp "github.com/colemarsh/gatehouse/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// extractBearerToken pulls the token out of an Authorization: Bearer header.
// Returns "" for missing or malformed headers; callers must not distinguish
// the two cases in their response.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// RequireAuth validates the access token and injects the verified claims into
// the request context. Any failure (missing header, malformed header, bad
// signature, expired token) short-circuits with the same generic 401.
func RequireAuth(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			claims, err := tm.ValidateAccessToken(tokenString)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles enforces role-based access. Must be composed after RequireAuth.
// An authenticated identity with a role outside the allow-set gets 403, which
// is deliberately distinct from the 401 an unauthenticated request gets.
func RequireRoles(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			if !allowed[claims.Role] {
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth attaches verified claims to the context when a valid token is
// present and otherwise passes the request through unchanged. It never fails
// the request.
func OptionalAuth(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tm.ValidateAccessToken(tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
