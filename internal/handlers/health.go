package handlers

import (
	"database/sql"
	"net/http"
)

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	DB *sql.DB
}

// Health handles GET /health. Returns 200 with the database state; a broken
// database still answers, with "degraded", so load balancers can tell the
// process is alive.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := h.DB.PingContext(r.Context()); err != nil {
		status = "degraded"
	}
	writeJSON(w, map[string]string{"status": status})
}
