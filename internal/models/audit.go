package models

import "time"

// Operation types recorded in the audit trail.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
	OpSelect = "SELECT"
)

// Outcome of the audited operation.
const (
	StatusSuccess  = "SUCCESS"
	StatusFailure  = "FAILURE"
	StatusRollback = "ROLLBACK"
)

// Placeholder record ids used when the statement text does not yield a real one.
const (
	RecordIDNew       = "new_record"
	RecordIDFromWhere = "extracted_from_where"
	RecordIDUnknown   = "unknown"
)

// AuditLogEntry is one immutable row of the audit trail: a single database
// operation's occurrence, outcome, and request correlation context.
// Entries are never updated after insert; they are only removed by the
// retention job.
type AuditLogEntry struct {
	ID              int64     `json:"id"`
	OperationType   string    `json:"operation_type"`
	TableName       string    `json:"table_name"`
	RecordID        string    `json:"record_id"`
	UserID          string    `json:"user_id"`
	SessionID       string    `json:"session_id"`
	RequestID       string    `json:"request_id"`
	IPAddress       string    `json:"ip_address"`
	UserAgent       string    `json:"user_agent"`
	OldValues       *string   `json:"old_values,omitempty"` // JSON snapshot, nil when not captured
	NewValues       *string   `json:"new_values,omitempty"` // JSON snapshot, nil when not captured
	StatementText   string    `json:"statement_text"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	AffectedRows    int64     `json:"affected_rows"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
	OperationStatus string    `json:"operation_status"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       string    `json:"created_by"`
}

// AuditStatistics is a point-in-time summary of the audit trail, computed
// from concurrent count queries.
type AuditStatistics struct {
	Last24Hours    int64     `json:"last_24_hours"`
	Last7Days      int64     `json:"last_7_days"`
	Last30Days     int64     `json:"last_30_days"`
	TotalInserts   int64     `json:"total_inserts"`
	TotalUpdates   int64     `json:"total_updates"`
	TotalDeletes   int64     `json:"total_deletes"`
	TotalSelects   int64     `json:"total_selects"`
	TotalSuccess   int64     `json:"total_success"`
	TotalFailures  int64     `json:"total_failures"`
	TotalRollbacks int64     `json:"total_rollbacks"`
	Timestamp      time.Time `json:"timestamp"`
}
