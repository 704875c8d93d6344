package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/naokiys/emprecord/internal/events"
	"github.com/naokiys/emprecord/internal/reqctx"
)

// Identity resolves the acting user from a bearer token when one is present.
// Requests without an Authorization header pass through as anonymous; a
// malformed or expired token is rejected with 401 and recorded as a security
// event. The resolved subject claim replaces the user ID on the request
// carrier, so every downstream log and audit entry names the real principal.
func Identity(secret []byte, ev *events.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				ev.LogSecurityEvent(r.Context(), "invalid_token", "WARNING", map[string]any{
					"path": r.URL.Path,
				})
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				ev.LogSecurityEvent(r.Context(), "token_missing_subject", "WARNING", map[string]any{
					"path": r.URL.Path,
				})
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(reqctx.WithUser(r.Context(), sub)))
		})
	}
}
