// Package events is the structured event logger for the audit pipeline. It
// emits categorized events on named slog channels (audit, security,
// performance, application), tagging every event with the request context.
//
// Emitting an event never fails and never panics: the business operation that
// triggered it must proceed unaffected no matter what the sink does.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/naokiys/emprecord/internal/reqctx"
	"github.com/naokiys/emprecord/internal/stats"
)

// Logger emits structured events on channel-scoped loggers and feeds the log
// aggregator. All methods are side effects only; none return an error.
type Logger struct {
	audit       *slog.Logger
	security    *slog.Logger
	performance *slog.Logger
	app         *slog.Logger
	logStats    *stats.LogStats
}

// New builds a Logger whose channels derive from base.
func New(base *slog.Logger, logStats *stats.LogStats) *Logger {
	return &Logger{
		audit:       base.With("channel", "audit"),
		security:    base.With("channel", "security"),
		performance: base.With("channel", "performance"),
		app:         base.With("channel", "application"),
		logStats:    logStats,
	}
}

// emit writes one event and counts it. A panicking handler (broken sink,
// unserializable attribute) is recovered and reported on the default logger;
// the caller is never affected.
func (l *Logger) emit(ctx context.Context, target *slog.Logger, level slog.Level, category, msg string, attrs ...slog.Attr) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("event logger recovered", "category", category, "panic", r)
		}
		l.logStats.RecordLog(category, time.Since(start))
	}()

	rc := reqctx.From(ctx)
	all := make([]slog.Attr, 0, len(attrs)+6)
	all = append(all,
		slog.String("category", category),
		slog.String("request_id", rc.RequestID),
		slog.String("session_id", rc.SessionID),
		slog.String("ip_address", rc.IPAddress),
		slog.String("user_agent", rc.UserAgent),
		slog.String("user_id", rc.UserID),
	)
	all = append(all, attrs...)
	target.LogAttrs(ctx, level, msg, all...)
}

// LogUserOperation records a user-initiated action on a resource.
func (l *Logger) LogUserOperation(ctx context.Context, operation, resource string, details map[string]any) {
	l.emit(ctx, l.audit, slog.LevelInfo, stats.CategoryAudit, "user operation",
		slog.String("operation", operation),
		slog.String("resource", resource),
		slog.Any("details", details))
}

// LogDataAccess records one observed database operation.
func (l *Logger) LogDataAccess(ctx context.Context, operationType, tableName, recordID string, executionTimeMs, affectedRows int64) {
	l.emit(ctx, l.audit, slog.LevelInfo, stats.CategoryAudit, "data access",
		slog.String("operation_type", operationType),
		slog.String("table_name", tableName),
		slog.String("record_id", recordID),
		slog.Int64("execution_time_ms", executionTimeMs),
		slog.Int64("affected_rows", affectedRows))
}

// LogSecurityEvent records an authentication or authorization event.
func (l *Logger) LogSecurityEvent(ctx context.Context, event, severity string, details map[string]any) {
	l.emit(ctx, l.security, slog.LevelWarn, stats.CategorySecurity, "security event",
		slog.String("event", event),
		slog.String("severity", severity),
		slog.Any("details", details))
}

// LogPerformance records the duration of a named operation.
func (l *Logger) LogPerformance(ctx context.Context, operation string, elapsed time.Duration) {
	l.emit(ctx, l.performance, slog.LevelInfo, stats.CategoryPerformance, "performance",
		slog.String("operation", operation),
		slog.Int64("elapsed_ms", elapsed.Milliseconds()))
}

// LogAPICall records one completed HTTP request.
func (l *Logger) LogAPICall(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	l.emit(ctx, l.app, slog.LevelInfo, stats.CategoryRequest, "api call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Int64("elapsed_ms", elapsed.Milliseconds()))
}

// LogBusinessOperation records a business-level operation outcome.
func (l *Logger) LogBusinessOperation(ctx context.Context, operation string, details map[string]any) {
	l.emit(ctx, l.app, slog.LevelInfo, stats.CategoryApplication, "business operation",
		slog.String("operation", operation),
		slog.Any("details", details))
}

// LogSystemEvent records a process-level event (startup, shutdown, scheduler runs).
func (l *Logger) LogSystemEvent(ctx context.Context, event string, details map[string]any) {
	l.emit(ctx, l.app, slog.LevelInfo, stats.CategoryApplication, "system event",
		slog.String("event", event),
		slog.Any("details", details))
}

// LogError records an error of the given type (stats.ErrType*) during operation.
// It also feeds the per-error-type counters behind the log health verdict.
func (l *Logger) LogError(ctx context.Context, errType, operation string, err error) {
	l.logStats.RecordError(errType)
	l.emit(ctx, l.app, slog.LevelError, stats.CategoryError, "operation error",
		slog.String("error_type", errType),
		slog.String("operation", operation),
		slog.Any("error", err))
}
