package middleware

import (
	"net/http"
	"time"

	"github.com/naokiys/emprecord/internal/events"
)

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// RequestLog emits one API-call event per request with method, path, status,
// and duration. Mount after RequestContext so the correlation fields ride
// along on every line.
func RequestLog(ev *events.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrap, r)
			ev.LogAPICall(r.Context(), r.Method, r.URL.Path, wrap.status, time.Since(start))
		})
	}
}
