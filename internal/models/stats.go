package models

import "time"

// Log health classifications derived from the rolling error rate.
const (
	HealthHealthy  = "HEALTHY"
	HealthWarning  = "WARNING"
	HealthCritical = "CRITICAL"
)

// LogStats is a snapshot of the in-process log counters.
type LogStats struct {
	TotalLogs        int64            `json:"total_logs"`
	TotalErrors      int64            `json:"total_errors"`
	ErrorRate        float64          `json:"error_rate"`
	ByCategory       map[string]int64 `json:"by_category"`
	ByErrorType      map[string]int64 `json:"by_error_type"`
	MeanProcessingMs float64          `json:"mean_processing_ms"`
	Timestamp        time.Time        `json:"timestamp"`
}

// LogHealth is the verdict computed from LogStats.
type LogHealth struct {
	Status      string    `json:"status"`
	ErrorRate   float64   `json:"error_rate"`
	TotalLogs   int64     `json:"total_logs"`
	TotalErrors int64     `json:"total_errors"`
	Timestamp   time.Time `json:"timestamp"`
}

// TransactionStats is a snapshot of the business-transaction counters.
type TransactionStats struct {
	Starts         int64            `json:"starts"`
	Commits        int64            `json:"commits"`
	Rollbacks      int64            `json:"rollbacks"`
	Errors         int64            `json:"errors"`
	Active         int64            `json:"active"`
	MeanDurationMs float64          `json:"mean_duration_ms"`
	ByOperation    map[string]int64 `json:"by_operation,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// CacheCounters holds hit/miss/put/evict counts for one named cache.
type CacheCounters struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Puts    int64   `json:"puts"`
	Evicts  int64   `json:"evicts"`
	HitRate float64 `json:"hit_rate"`
}

// CacheStats aggregates counters across all named caches.
type CacheStats struct {
	TotalHits   int64                    `json:"total_hits"`
	TotalMisses int64                    `json:"total_misses"`
	HitRate     float64                  `json:"hit_rate"`
	Caches      map[string]CacheCounters `json:"caches"`
	Timestamp   time.Time                `json:"timestamp"`
}

// ConnectionStats reports connection counts from the database plus the local pool.
type ConnectionStats struct {
	Active        int64 `json:"active"`
	Idle          int64 `json:"idle"`
	Total         int64 `json:"total"`
	Max           int64 `json:"max"`
	PoolOpen      int64 `json:"pool_open"`
	PoolInUse     int64 `json:"pool_in_use"`
	PoolIdle      int64 `json:"pool_idle"`
	PoolWaitCount int64 `json:"pool_wait_count"`
}

// TableStats reports per-table row and write counts.
type TableStats struct {
	TableName string `json:"table_name"`
	RowCount  int64  `json:"row_count"`
	Inserts   int64  `json:"inserts"`
	Updates   int64  `json:"updates"`
	Deletes   int64  `json:"deletes"`
}

// DatabaseHealth reports reachability and server identity.
type DatabaseHealth struct {
	Status          string `json:"status"` // UP or DOWN
	Version         string `json:"version,omitempty"`
	CurrentDatabase string `json:"current_database,omitempty"`
	CurrentUser     string `json:"current_user,omitempty"`
	Error           string `json:"error,omitempty"`
}

// DatabasePerformance reports server-wide activity counters.
type DatabasePerformance struct {
	Commits        int64   `json:"commits"`
	Rollbacks      int64   `json:"rollbacks"`
	BlocksRead     int64   `json:"blocks_read"`
	BlocksHit      int64   `json:"blocks_hit"`
	CacheHitRatio  float64 `json:"cache_hit_ratio"`
	TuplesFetched  int64   `json:"tuples_fetched"`
	TuplesInserted int64   `json:"tuples_inserted"`
	TuplesUpdated  int64   `json:"tuples_updated"`
	TuplesDeleted  int64   `json:"tuples_deleted"`
}

// DatabaseStats is the composite snapshot. Facets degrade independently: a
// failed facet is zeroed (or DOWN for health) without failing the whole snapshot.
type DatabaseStats struct {
	Connections ConnectionStats     `json:"connections"`
	Tables      []TableStats        `json:"tables"`
	Performance DatabasePerformance `json:"performance"`
	Health      DatabaseHealth      `json:"health"`
	Timestamp   time.Time           `json:"timestamp"`
}
