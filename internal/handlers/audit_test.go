package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/naokiys/emprecord/internal/audit"
	"github.com/naokiys/emprecord/internal/events"
	"github.com/naokiys/emprecord/internal/stats"
)

func newAuditHandler(t *testing.T) (*AuditHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := audit.NewStore(db)
	ev := events.New(slog.New(slog.NewTextHandler(io.Discard, nil)), stats.NewLogStats())
	return &AuditHandler{Recorder: audit.NewRecorder(store, ev), Store: store}, mock
}

func TestAuditHandler_Cleanup(t *testing.T) {
	h, mock := newAuditHandler(t)

	mock.ExpectExec(`DELETE FROM audit_log WHERE created_at < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	w := httptest.NewRecorder()
	h.Cleanup(w, httptest.NewRequest("DELETE", "/audit/database/logs/cleanup?retentionDays=90", nil))
	if w.Code != 200 {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message       string `json:"message"`
		DeletedCount  int64  `json:"deletedCount"`
		RetentionDays int    `json:"retentionDays"`
		Timestamp     string `json:"timestamp"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DeletedCount != 3 || resp.RetentionDays != 90 || resp.Timestamp == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditHandler_Cleanup_InvalidRetention(t *testing.T) {
	h, _ := newAuditHandler(t)

	w := httptest.NewRecorder()
	h.Cleanup(w, httptest.NewRequest("DELETE", "/audit/database/logs/cleanup?retentionDays=abc", nil))
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuditHandler_Recent_EmptyIsJSONArray(t *testing.T) {
	h, mock := newAuditHandler(t)

	mock.ExpectQuery(`FROM audit_log ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := httptest.NewRecorder()
	h.Recent(w, httptest.NewRequest("GET", "/audit/database/logs/recent", nil))
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

func TestAuditHandler_TimeRange_BadInput(t *testing.T) {
	h, _ := newAuditHandler(t)

	w := httptest.NewRecorder()
	h.ByTimeRange(w, httptest.NewRequest("GET", "/audit/database/logs/time-range?startTime=yesterday", nil))
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
