package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/naokiys/emprecord/internal/reqctx"
	"github.com/naokiys/emprecord/internal/stats"
)

func testContext() context.Context {
	return reqctx.With(context.Background(), reqctx.Context{
		RequestID: "req-42",
		SessionID: "sess-42",
		IPAddress: "192.0.2.1",
		UserAgent: "test-agent",
		UserID:    "alice",
	})
}

func TestLogger_MergesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	ls := stats.NewLogStats()
	l := New(slog.New(slog.NewJSONHandler(&buf, nil)), ls)

	l.LogDataAccess(testContext(), "INSERT", "employees", "new_record", 12, 1)

	var event map[string]any
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	for k, want := range map[string]string{
		"channel":    "audit",
		"category":   stats.CategoryAudit,
		"request_id": "req-42",
		"user_id":    "alice",
		"table_name": "employees",
	} {
		if event[k] != want {
			t.Errorf("event[%q] = %v, want %q", k, event[k], want)
		}
	}
}

func TestLogger_CountsCategories(t *testing.T) {
	ls := stats.NewLogStats()
	l := New(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), ls)
	ctx := testContext()

	l.LogUserOperation(ctx, "create", "employee", nil)
	l.LogSecurityEvent(ctx, "login_failed", "high", nil)
	l.LogAPICall(ctx, "GET", "/v1/employees", 200, time.Millisecond)
	l.LogError(ctx, stats.ErrTypeBusiness, "employee.create", errors.New("duplicate"))

	snap := ls.Snapshot()
	if snap.TotalLogs != 4 {
		t.Errorf("total logs = %d, want 4", snap.TotalLogs)
	}
	if snap.ByCategory[stats.CategoryAudit] != 1 ||
		snap.ByCategory[stats.CategorySecurity] != 1 ||
		snap.ByCategory[stats.CategoryRequest] != 1 ||
		snap.ByCategory[stats.CategoryError] != 1 {
		t.Errorf("unexpected category counts: %v", snap.ByCategory)
	}
	if snap.TotalErrors != 1 || snap.ByErrorType[stats.ErrTypeBusiness] != 1 {
		t.Errorf("unexpected error counts: errors=%d byType=%v", snap.TotalErrors, snap.ByErrorType)
	}
}

type panickyHandler struct{}

func (panickyHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (panickyHandler) Handle(context.Context, slog.Record) error { panic("sink broken") }
func (h panickyHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h panickyHandler) WithGroup(string) slog.Handler           { return h }

func TestLogger_NeverPanics(t *testing.T) {
	ls := stats.NewLogStats()
	l := New(slog.New(panickyHandler{}), ls)

	// Must not propagate the sink's panic to the caller.
	l.LogSystemEvent(testContext(), "startup", map[string]any{"version": "1"})

	if got := ls.Snapshot().TotalLogs; got != 1 {
		t.Errorf("total logs = %d, want 1 (event still counted)", got)
	}
}
