package auth

import (
	"context"
	"net/http"
	"strings"

	"chatrelay/pkg/logger"
	"chatrelay/pkg/utils"
)

type ctxUserKey struct{}

// Require verifies the Authorization bearer token and injects the verified
// username into the request context. Requests are rejected before any
// repository access.
func Require(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				utils.JSONError(w, http.StatusUnauthorized, "Access token required", "Must provide a valid token in Authorization header")
				return
			}
			claims, err := ParseToken(raw, secret)
			if err != nil {
				logger.Warn("auth_failed", "path", r.URL.Path, "remote", r.RemoteAddr, "error", err)
				utils.JSONError(w, http.StatusUnauthorized, "Invalid token", "The provided token is not valid or has expired")
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UsernameFromContext returns the verified username or empty string.
func UsernameFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxUserKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}
