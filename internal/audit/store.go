package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/naokiys/emprecord/internal/models"
)

// auditColumns is the select list for audit_log, matching scanEntry.
const auditColumns = `id, operation_type, table_name, record_id, user_id, session_id, request_id,
	ip_address, user_agent, old_values, new_values, statement_text,
	execution_time_ms, affected_rows, error_message, operation_status, created_at, created_by`

// Store persists and queries audit_log rows. Rows are insert-only; the only
// delete path is the retention cleanup.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert persists one entry and fills in its assigned id.
func (s *Store) Insert(ctx context.Context, e *models.AuditLogEntry) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO audit_log (operation_type, table_name, record_id, user_id, session_id, request_id,
			ip_address, user_agent, old_values, new_values, statement_text,
			execution_time_ms, affected_rows, error_message, operation_status, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`,
		e.OperationType, e.TableName, e.RecordID, e.UserID, e.SessionID, e.RequestID,
		e.IPAddress, e.UserAgent, e.OldValues, e.NewValues, e.StatementText,
		e.ExecutionTimeMs, e.AffectedRows, e.ErrorMessage, e.OperationStatus, e.CreatedAt, e.CreatedBy,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// find runs a query with an optional WHERE clause (placeholders $1..) and
// returns entries newest first.
func (s *Store) find(ctx context.Context, where string, limit int, args ...any) ([]models.AuditLogEntry, error) {
	q := `SELECT ` + auditColumns + ` FROM audit_log`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY created_at DESC`
	if limit > 0 {
		q += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (models.AuditLogEntry, error) {
	var e models.AuditLogEntry
	var oldV, newV, errMsg sql.NullString
	err := rows.Scan(&e.ID, &e.OperationType, &e.TableName, &e.RecordID, &e.UserID, &e.SessionID,
		&e.RequestID, &e.IPAddress, &e.UserAgent, &oldV, &newV, &e.StatementText,
		&e.ExecutionTimeMs, &e.AffectedRows, &errMsg, &e.OperationStatus, &e.CreatedAt, &e.CreatedBy)
	if err != nil {
		return e, fmt.Errorf("scan audit entry: %w", err)
	}
	if oldV.Valid {
		e.OldValues = &oldV.String
	}
	if newV.Valid {
		e.NewValues = &newV.String
	}
	if errMsg.Valid {
		e.ErrorMessage = &errMsg.String
	}
	return e, nil
}

// FindByOperationType returns entries for one operation type (INSERT, UPDATE, DELETE, SELECT).
func (s *Store) FindByOperationType(ctx context.Context, operationType string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `operation_type = $1`, 0, operationType)
}

// FindByTableName returns entries for one table.
func (s *Store) FindByTableName(ctx context.Context, tableName string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `table_name = $1`, 0, tableName)
}

// FindByUserID returns entries recorded for one user.
func (s *Store) FindByUserID(ctx context.Context, userID string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `user_id = $1`, 0, userID)
}

// FindBySessionID returns entries for one session.
func (s *Store) FindBySessionID(ctx context.Context, sessionID string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `session_id = $1`, 0, sessionID)
}

// FindByRequestID returns entries for one request.
func (s *Store) FindByRequestID(ctx context.Context, requestID string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `request_id = $1`, 0, requestID)
}

// FindByRecordID returns entries for one record id (including placeholders).
func (s *Store) FindByRecordID(ctx context.Context, recordID string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `record_id = $1`, 0, recordID)
}

// FindByOperationStatus returns entries with one status (SUCCESS, FAILURE, ROLLBACK).
func (s *Store) FindByOperationStatus(ctx context.Context, status string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `operation_status = $1`, 0, status)
}

// FindByCreatedAtBetween returns entries created in [from, to].
func (s *Store) FindByCreatedAtBetween(ctx context.Context, from, to time.Time) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `created_at BETWEEN $1 AND $2`, 0, from, to)
}

// FindByTableAndRecord returns the history of one record in one table.
func (s *Store) FindByTableAndRecord(ctx context.Context, tableName, recordID string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `table_name = $1 AND record_id = $2`, 0, tableName, recordID)
}

// FindByUserAndTimeRange returns one user's entries in [from, to].
func (s *Store) FindByUserAndTimeRange(ctx context.Context, userID string, from, to time.Time) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `user_id = $1 AND created_at BETWEEN $2 AND $3`, 0, userID, from, to)
}

// FindByTypeAndTable returns entries for one operation type on one table.
func (s *Store) FindByTypeAndTable(ctx context.Context, operationType, tableName string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `operation_type = $1 AND table_name = $2`, 0, operationType, tableName)
}

// FindRecent returns the newest limit entries.
func (s *Store) FindRecent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	return s.find(ctx, ``, limit)
}

// FindErrors returns non-SUCCESS entries in [from, to].
func (s *Store) FindErrors(ctx context.Context, from, to time.Time) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `operation_status <> $1 AND created_at BETWEEN $2 AND $3`, 0, models.StatusSuccess, from, to)
}

// FindErrorsByUser returns one user's non-SUCCESS entries.
func (s *Store) FindErrorsByUser(ctx context.Context, userID string) ([]models.AuditLogEntry, error) {
	return s.find(ctx, `operation_status <> $1 AND user_id = $2`, 0, models.StatusSuccess, userID)
}

// CountSince counts entries created at or after t.
func (s *Store) CountSince(ctx context.Context, t time.Time) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM audit_log WHERE created_at >= $1`, t)
}

// CountByOperationType counts entries of one operation type.
func (s *Store) CountByOperationType(ctx context.Context, operationType string) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM audit_log WHERE operation_type = $1`, operationType)
}

// CountByStatus counts entries with one status.
func (s *Store) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM audit_log WHERE operation_status = $1`, status)
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes entries created before cutoff and returns how many
// rows were removed. Deleting from an empty window is a no-op.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
