// Package audit records one immutable audit entry per observed database
// operation. Writes are fire-and-forget: they run detached from the request
// and their failures are logged and dropped, never surfaced to the caller.
// Reads (queries, statistics) and the retention cleanup report errors
// normally.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naokiys/emprecord/internal/events"
	"github.com/naokiys/emprecord/internal/models"
	"github.com/naokiys/emprecord/internal/reqctx"
	"github.com/naokiys/emprecord/internal/stats"
)

// Recorder builds audit entries from the request context and persists them in
// the background.
type Recorder struct {
	store  *Store
	events *events.Logger

	wg sync.WaitGroup
}

// NewRecorder returns a Recorder writing through store and reporting on ev.
func NewRecorder(store *Store, ev *events.Logger) *Recorder {
	return &Recorder{store: store, events: ev}
}

// LogDatabaseOperation builds an entry from the request context carried by
// ctx plus the arguments, and persists it on a detached goroutine. It returns
// immediately; persistence failures are counted, reported at error level, and
// dropped. A cancelled request cannot abort a write already in flight.
func (r *Recorder) LogDatabaseOperation(ctx context.Context, operationType, tableName, recordID string,
	oldValues, newValues map[string]any, statementText string, executionTimeMs, affectedRows int64,
	status string, errMessage string) {

	rc := reqctx.From(ctx)
	entry := &models.AuditLogEntry{
		OperationType:   operationType,
		TableName:       tableName,
		RecordID:        recordID,
		UserID:          rc.UserID,
		SessionID:       rc.SessionID,
		RequestID:       rc.RequestID,
		IPAddress:       rc.IPAddress,
		UserAgent:       rc.UserAgent,
		OldValues:       r.marshalValues(ctx, oldValues),
		NewValues:       r.marshalValues(ctx, newValues),
		StatementText:   statementText,
		ExecutionTimeMs: executionTimeMs,
		AffectedRows:    affectedRows,
		OperationStatus: status,
		CreatedAt:       time.Now(),
		CreatedBy:       rc.UserID,
	}
	if errMessage != "" {
		entry.ErrorMessage = &errMessage
	}

	dctx := reqctx.Detach(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.store.Insert(dctx, entry); err != nil {
			stats.RecordAuditWriteFailure()
			r.events.LogError(dctx, stats.ErrTypeSystem, "audit.persist", err)
			return
		}
		stats.RecordAuditEntry(entry.OperationStatus)
		r.events.LogDataAccess(dctx, entry.OperationType, entry.TableName, entry.RecordID,
			entry.ExecutionTimeMs, entry.AffectedRows)
	}()
}

// marshalValues serializes a snapshot map. A value that cannot be marshalled
// is reported and recorded as nil; the entry is still written.
func (r *Recorder) marshalValues(ctx context.Context, values map[string]any) *string {
	if values == nil {
		return nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		r.events.LogError(ctx, stats.ErrTypeSystem, "audit.marshal", err)
		return nil
	}
	s := string(b)
	return &s
}

// Wait blocks until all in-flight audit writes have settled. Called on
// shutdown so detached writes are not lost to process exit.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

// LogSuccessfulOperation records a SUCCESS entry.
func (r *Recorder) LogSuccessfulOperation(ctx context.Context, operationType, tableName, recordID string,
	oldValues, newValues map[string]any, statementText string, executionTimeMs, affectedRows int64) {
	r.LogDatabaseOperation(ctx, operationType, tableName, recordID, oldValues, newValues,
		statementText, executionTimeMs, affectedRows, models.StatusSuccess, "")
}

// LogFailedOperation records a FAILURE entry with the operation's error.
func (r *Recorder) LogFailedOperation(ctx context.Context, operationType, tableName, recordID string,
	statementText string, executionTimeMs int64, opErr error) {
	r.LogDatabaseOperation(ctx, operationType, tableName, recordID, nil, nil,
		statementText, executionTimeMs, 0, models.StatusFailure, opErr.Error())
}

// LogRollbackOperation records a ROLLBACK entry with the cause.
func (r *Recorder) LogRollbackOperation(ctx context.Context, operationType, tableName, recordID string,
	statementText string, executionTimeMs int64, cause error) {
	r.LogDatabaseOperation(ctx, operationType, tableName, recordID, nil, nil,
		statementText, executionTimeMs, 0, models.StatusRollback, cause.Error())
}

// LogInsertOperation records a successful INSERT with the new values.
func (r *Recorder) LogInsertOperation(ctx context.Context, tableName, recordID string,
	newValues map[string]any, statementText string, executionTimeMs, affectedRows int64) {
	r.LogSuccessfulOperation(ctx, models.OpInsert, tableName, recordID, nil, newValues,
		statementText, executionTimeMs, affectedRows)
}

// LogUpdateOperation records a successful UPDATE with before and after values.
func (r *Recorder) LogUpdateOperation(ctx context.Context, tableName, recordID string,
	oldValues, newValues map[string]any, statementText string, executionTimeMs, affectedRows int64) {
	r.LogSuccessfulOperation(ctx, models.OpUpdate, tableName, recordID, oldValues, newValues,
		statementText, executionTimeMs, affectedRows)
}

// LogDeleteOperation records a successful DELETE with the removed values.
func (r *Recorder) LogDeleteOperation(ctx context.Context, tableName, recordID string,
	oldValues map[string]any, statementText string, executionTimeMs, affectedRows int64) {
	r.LogSuccessfulOperation(ctx, models.OpDelete, tableName, recordID, oldValues, nil,
		statementText, executionTimeMs, affectedRows)
}

// LogSelectOperation records a successful SELECT.
func (r *Recorder) LogSelectOperation(ctx context.Context, tableName, statementText string,
	executionTimeMs, rowsRead int64) {
	r.LogSuccessfulOperation(ctx, models.OpSelect, tableName, models.RecordIDUnknown, nil, nil,
		statementText, executionTimeMs, rowsRead)
}

// GetStatistics runs the count queries concurrently and merges them into one
// snapshot. Unlike the write path, a failed count fails the whole call.
func (r *Recorder) GetStatistics(ctx context.Context) (models.AuditStatistics, error) {
	now := time.Now()
	var st models.AuditStatistics

	g, gctx := errgroup.WithContext(ctx)
	countSince := func(dst *int64, since time.Time) {
		g.Go(func() error {
			n, err := r.store.CountSince(gctx, since)
			*dst = n
			return err
		})
	}
	countType := func(dst *int64, operationType string) {
		g.Go(func() error {
			n, err := r.store.CountByOperationType(gctx, operationType)
			*dst = n
			return err
		})
	}
	countStatus := func(dst *int64, status string) {
		g.Go(func() error {
			n, err := r.store.CountByStatus(gctx, status)
			*dst = n
			return err
		})
	}

	countSince(&st.Last24Hours, now.Add(-24*time.Hour))
	countSince(&st.Last7Days, now.AddDate(0, 0, -7))
	countSince(&st.Last30Days, now.AddDate(0, 0, -30))
	countType(&st.TotalInserts, models.OpInsert)
	countType(&st.TotalUpdates, models.OpUpdate)
	countType(&st.TotalDeletes, models.OpDelete)
	countType(&st.TotalSelects, models.OpSelect)
	countStatus(&st.TotalSuccess, models.StatusSuccess)
	countStatus(&st.TotalFailures, models.StatusFailure)
	countStatus(&st.TotalRollbacks, models.StatusRollback)

	if err := g.Wait(); err != nil {
		return models.AuditStatistics{}, err
	}
	st.Timestamp = now
	return st, nil
}

// CleanupOldLogs deletes entries older than retentionDays and returns the
// number removed. This path fails loudly: silent retention failure is worse
// than a failed scheduler run.
func (r *Recorder) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := r.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	r.events.LogSystemEvent(ctx, "audit_cleanup", map[string]any{
		"retention_days": retentionDays,
		"deleted_count":  deleted,
	})
	return deleted, nil
}
