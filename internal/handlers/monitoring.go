package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naokiys/emprecord/internal/cache"
	"github.com/naokiys/emprecord/internal/stats"
)

// MonitoringHandler serves the in-process statistics endpoints. Snapshots are
// computed per request; nothing here blocks on anything but the live
// database statistics queries.
type MonitoringHandler struct {
	LogStats  *stats.LogStats
	TxStats   *stats.TransactionStats
	CacheSts  *stats.CacheStats
	DBMonitor *stats.DatabaseMonitor
	Caches    *cache.Registry
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// CacheStats handles GET /monitoring/cache/stats.
func (h *MonitoringHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.CacheSts.Snapshot())
}

// ClearAllCaches handles DELETE /monitoring/cache/clear.
func (h *MonitoringHandler) ClearAllCaches(w http.ResponseWriter, r *http.Request) {
	h.Caches.ClearAll()
	writeJSON(w, map[string]any{"message": "all caches cleared", "caches": h.Caches.Names()})
}

// ClearCache handles DELETE /monitoring/cache/clear/{name}.
func (h *MonitoringHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Caches.Clear(name); err != nil {
		JSONError(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"message": "cache cleared", "cache": name})
}

// LogStatsSnapshot handles GET /monitoring/logs/stats.
func (h *MonitoringHandler) LogStatsSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.LogStats.Snapshot())
}

// LogHealth handles GET /monitoring/logs/health.
func (h *MonitoringHandler) LogHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.LogStats.Health())
}

// ResetLogStats handles POST /monitoring/logs/reset.
func (h *MonitoringHandler) ResetLogStats(w http.ResponseWriter, r *http.Request) {
	h.LogStats.Reset()
	writeJSON(w, map[string]string{"message": "log statistics reset"})
}

// TransactionStats handles GET /monitoring/transaction/stats.
func (h *MonitoringHandler) TransactionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.TxStats.Snapshot())
}

// DatabaseConnectionStats handles GET /monitoring/database/connection/stats.
func (h *MonitoringHandler) DatabaseConnectionStats(w http.ResponseWriter, r *http.Request) {
	conns, err := h.DBMonitor.ConnectionStats(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, conns)
}

// DatabasePerformanceStats handles GET /monitoring/database/performance/stats.
func (h *MonitoringHandler) DatabasePerformanceStats(w http.ResponseWriter, r *http.Request) {
	perf, err := h.DBMonitor.PerformanceStats(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, perf)
}

// DatabaseHealth handles GET /monitoring/database/health/stats. Always 200;
// an unreachable database reports status DOWN in the body.
func (h *MonitoringHandler) DatabaseHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.DBMonitor.Health(r.Context()))
}

// DatabaseTableStats handles GET /monitoring/database/table/stats.
func (h *MonitoringHandler) DatabaseTableStats(w http.ResponseWriter, r *http.Request) {
	tables, err := h.DBMonitor.TableStats(r.Context())
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, tables)
}

// DatabaseStats handles GET /monitoring/database/stats: the composite
// snapshot with per-facet degradation.
func (h *MonitoringHandler) DatabaseStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.DBMonitor.Snapshot(r.Context()))
}
