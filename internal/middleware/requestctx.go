package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/naokiys/emprecord/internal/reqctx"
)

// RequestContext establishes the correlation carrier for the request: request
// ID (from chi's RequestID middleware), session ID (X-Session-Id header, or a
// fresh UUID when the client sends none), client IP, and user agent. Mount it
// after RequestID and before anything that logs or audits.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-Id")
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		ctx := reqctx.With(r.Context(), reqctx.Context{
			RequestID: chimw.GetReqID(r.Context()),
			SessionID: sessionID,
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
