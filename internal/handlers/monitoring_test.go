package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/naokiys/emprecord/internal/cache"
	"github.com/naokiys/emprecord/internal/models"
	"github.com/naokiys/emprecord/internal/stats"
)

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newMonitoringHandler() *MonitoringHandler {
	cacheSts := stats.NewCacheStats()
	return &MonitoringHandler{
		LogStats: stats.NewLogStats(),
		TxStats:  stats.NewTransactionStats(),
		CacheSts: cacheSts,
		Caches:   cache.NewRegistry(cache.DefaultConfig(), cacheSts, cache.EmployeeByID, cache.EmployeeSearch),
	}
}

func TestMonitoringHandler_LogHealth(t *testing.T) {
	h := newMonitoringHandler()
	for i := 0; i < 100; i++ {
		h.LogStats.RecordLog(stats.CategoryRequest, time.Microsecond)
	}
	for i := 0; i < 3; i++ {
		h.LogStats.RecordError(stats.ErrTypeSystem)
	}

	w := httptest.NewRecorder()
	h.LogHealth(w, httptest.NewRequest("GET", "/monitoring/logs/health", nil))

	var health models.LogHealth
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != models.HealthWarning {
		t.Errorf("status = %s, want WARNING at 3%%", health.Status)
	}
	if health.TotalLogs != 100 || health.TotalErrors != 3 {
		t.Errorf("unexpected health: %+v", health)
	}
}

func TestMonitoringHandler_ResetLogStats(t *testing.T) {
	h := newMonitoringHandler()
	h.LogStats.RecordLog(stats.CategoryAudit, time.Microsecond)

	w := httptest.NewRecorder()
	h.ResetLogStats(w, httptest.NewRequest("POST", "/monitoring/logs/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := h.LogStats.Snapshot().TotalLogs; got != 0 {
		t.Errorf("total logs after reset = %d, want 0", got)
	}
}

func TestMonitoringHandler_ClearCache(t *testing.T) {
	h := newMonitoringHandler()
	h.Caches.Set(cache.EmployeeByID, "1", "emp")

	w := httptest.NewRecorder()
	h.ClearCache(w, requestWithChiURLParams("DELETE", "/monitoring/cache/clear/employee_by_id",
		map[string]string{"name": cache.EmployeeByID}))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if _, ok := h.Caches.Get(cache.EmployeeByID, "1"); ok {
		t.Error("cache entry survived clear")
	}

	w = httptest.NewRecorder()
	h.ClearCache(w, requestWithChiURLParams("DELETE", "/monitoring/cache/clear/nope",
		map[string]string{"name": "nope"}))
	if w.Code != http.StatusNotFound {
		t.Errorf("status for unknown cache = %d, want 404", w.Code)
	}
}

func TestMonitoringHandler_TransactionStats(t *testing.T) {
	h := newMonitoringHandler()
	h.TxStats.RecordStart("employee.create")
	h.TxStats.RecordCommit("employee.create", time.Now().Add(-time.Millisecond))

	w := httptest.NewRecorder()
	h.TransactionStats(w, httptest.NewRequest("GET", "/monitoring/transaction/stats", nil))

	var snap models.TransactionStats
	if err := json.NewDecoder(w.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Starts != 1 || snap.Commits != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}
