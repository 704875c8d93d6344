package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/naokiys/emprecord/internal/audit"
	"github.com/naokiys/emprecord/internal/models"
)

// AuditHandler serves the audit trail query endpoints. All query endpoints
// are read-only; cleanup is the only mutating route.
type AuditHandler struct {
	Recorder *audit.Recorder
	Store    *audit.Store
}

func writeEntries(w http.ResponseWriter, entries []models.AuditLogEntry, err error) {
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// timeRange parses startTime and endTime query parameters (RFC 3339).
func timeRange(r *http.Request) (from, to time.Time, ok bool) {
	from, err1 := time.Parse(time.RFC3339, r.URL.Query().Get("startTime"))
	to, err2 := time.Parse(time.RFC3339, r.URL.Query().Get("endTime"))
	return from, to, err1 == nil && err2 == nil
}

// Stats handles GET /audit/database/stats.
func (h *AuditHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Recorder.GetStatistics(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

// ByOperationType handles GET /audit/database/logs/operation/{type}.
func (h *AuditHandler) ByOperationType(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindByOperationType(r.Context(), chi.URLParam(r, "type"))
	writeEntries(w, entries, err)
}

// ByTable handles GET /audit/database/logs/table/{name}.
func (h *AuditHandler) ByTable(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindByTableName(r.Context(), chi.URLParam(r, "name"))
	writeEntries(w, entries, err)
}

// ByUser handles GET /audit/database/logs/user/{id}.
func (h *AuditHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindByUserID(r.Context(), chi.URLParam(r, "id"))
	writeEntries(w, entries, err)
}

// BySession handles GET /audit/database/logs/session/{id}.
func (h *AuditHandler) BySession(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindBySessionID(r.Context(), chi.URLParam(r, "id"))
	writeEntries(w, entries, err)
}

// ByRequest handles GET /audit/database/logs/request/{id}.
func (h *AuditHandler) ByRequest(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindByRequestID(r.Context(), chi.URLParam(r, "id"))
	writeEntries(w, entries, err)
}

// ByRecord handles GET /audit/database/logs/record/{id}.
func (h *AuditHandler) ByRecord(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindByRecordID(r.Context(), chi.URLParam(r, "id"))
	writeEntries(w, entries, err)
}

// ByStatus handles GET /audit/database/logs/status/{status}.
func (h *AuditHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindByOperationStatus(r.Context(), chi.URLParam(r, "status"))
	writeEntries(w, entries, err)
}

// ByTimeRange handles GET /audit/database/logs/time-range?startTime&endTime.
func (h *AuditHandler) ByTimeRange(w http.ResponseWriter, r *http.Request) {
	from, to, ok := timeRange(r)
	if !ok {
		JSONError(w, "startTime and endTime must be RFC 3339 timestamps", http.StatusBadRequest)
		return
	}
	entries, err := h.Store.FindByCreatedAtBetween(r.Context(), from, to)
	writeEntries(w, entries, err)
}

// ByTableAndRecord handles GET /audit/database/logs/table/{name}/record/{id}.
func (h *AuditHandler) ByTableAndRecord(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindByTableAndRecord(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "id"))
	writeEntries(w, entries, err)
}

// ByUserAndTimeRange handles GET /audit/database/logs/user/{id}/time-range?startTime&endTime.
func (h *AuditHandler) ByUserAndTimeRange(w http.ResponseWriter, r *http.Request) {
	from, to, ok := timeRange(r)
	if !ok {
		JSONError(w, "startTime and endTime must be RFC 3339 timestamps", http.StatusBadRequest)
		return
	}
	entries, err := h.Store.FindByUserAndTimeRange(r.Context(), chi.URLParam(r, "id"), from, to)
	writeEntries(w, entries, err)
}

// ByTypeAndTable handles GET /audit/database/logs/operation/{type}/table/{name}.
func (h *AuditHandler) ByTypeAndTable(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindByTypeAndTable(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "name"))
	writeEntries(w, entries, err)
}

// Recent handles GET /audit/database/logs/recent?limit (default 50, max 500).
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 500 {
			limit = val
		}
	}
	entries, err := h.Store.FindRecent(r.Context(), limit)
	writeEntries(w, entries, err)
}

// Errors handles GET /audit/database/logs/errors?startTime&endTime.
func (h *AuditHandler) Errors(w http.ResponseWriter, r *http.Request) {
	from, to, ok := timeRange(r)
	if !ok {
		JSONError(w, "startTime and endTime must be RFC 3339 timestamps", http.StatusBadRequest)
		return
	}
	entries, err := h.Store.FindErrors(r.Context(), from, to)
	writeEntries(w, entries, err)
}

// ErrorsByUser handles GET /audit/database/logs/errors/user/{id}.
func (h *AuditHandler) ErrorsByUser(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.FindErrorsByUser(r.Context(), chi.URLParam(r, "id"))
	writeEntries(w, entries, err)
}

// Cleanup handles DELETE /audit/database/logs/cleanup?retentionDays=N.
func (h *AuditHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	retentionDays, err := strconv.Atoi(r.URL.Query().Get("retentionDays"))
	if err != nil || retentionDays < 0 {
		JSONError(w, "retentionDays must be a non-negative integer", http.StatusBadRequest)
		return
	}

	deleted, err := h.Recorder.CleanupOldLogs(r.Context(), retentionDays)
	if err != nil {
		JSONError(w, "audit cleanup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message":       "audit logs cleaned up",
		"deletedCount":  deleted,
		"retentionDays": retentionDays,
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}
