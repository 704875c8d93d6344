// Package stats owns the in-process metric aggregators for the audit and
// monitoring pipeline: log, transaction, cache, and database statistics.
// Counters are lock-free (xsync) because they are hit from every request
// path; snapshots are computed on demand and never stored.
package stats

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/naokiys/emprecord/internal/models"
)

// Log event categories.
const (
	CategoryAudit       = "AUDIT"
	CategorySecurity    = "SECURITY"
	CategoryPerformance = "PERFORMANCE"
	CategoryError       = "ERROR"
	CategoryRequest     = "REQUEST"
	CategoryApplication = "APPLICATION"
)

// Error classifications tracked alongside the category counters.
const (
	ErrTypeValidation = "VALIDATION_ERROR"
	ErrTypeBusiness   = "BUSINESS_ERROR"
	ErrTypeSystem     = "SYSTEM_ERROR"
	ErrTypeSecurity   = "SECURITY_ERROR"
)

// Error-rate thresholds for the health verdict.
const (
	warningErrorRate  = 0.01
	criticalErrorRate = 0.05
)

// LogStats aggregates per-category log counters for the process lifetime.
// All methods are safe for concurrent use.
type LogStats struct {
	total       *xsync.Counter
	errors      *xsync.Counter
	procMicros  *xsync.Counter
	byCategory  *xsync.MapOf[string, *xsync.Counter]
	byErrorType *xsync.MapOf[string, *xsync.Counter]
}

// NewLogStats returns a zeroed aggregator.
func NewLogStats() *LogStats {
	return &LogStats{
		total:       xsync.NewCounter(),
		errors:      xsync.NewCounter(),
		procMicros:  xsync.NewCounter(),
		byCategory:  xsync.NewMapOf[string, *xsync.Counter](),
		byErrorType: xsync.NewMapOf[string, *xsync.Counter](),
	}
}

func counterFor(m *xsync.MapOf[string, *xsync.Counter], key string) *xsync.Counter {
	c, _ := m.LoadOrCompute(key, xsync.NewCounter)
	return c
}

// RecordLog counts one emitted log event in the given category.
// elapsed is the time spent producing the event (serialization + write).
func (s *LogStats) RecordLog(category string, elapsed time.Duration) {
	s.total.Inc()
	s.procMicros.Add(elapsed.Microseconds())
	counterFor(s.byCategory, category).Inc()
}

// RecordError counts one error of the given type. Callers that also emit an
// ERROR-category event count that event separately via RecordLog.
func (s *LogStats) RecordError(errType string) {
	s.errors.Inc()
	counterFor(s.byErrorType, errType).Inc()
}

// Snapshot returns the current counter values.
func (s *LogStats) Snapshot() models.LogStats {
	total := s.total.Value()
	errs := s.errors.Value()

	byCat := make(map[string]int64)
	s.byCategory.Range(func(k string, c *xsync.Counter) bool {
		byCat[k] = c.Value()
		return true
	})
	byErr := make(map[string]int64)
	s.byErrorType.Range(func(k string, c *xsync.Counter) bool {
		byErr[k] = c.Value()
		return true
	})

	var meanMs float64
	if total > 0 {
		meanMs = float64(s.procMicros.Value()) / float64(total) / 1000.0
	}
	return models.LogStats{
		TotalLogs:        total,
		TotalErrors:      errs,
		ErrorRate:        errorRate(errs, total),
		ByCategory:       byCat,
		ByErrorType:      byErr,
		MeanProcessingMs: meanMs,
		Timestamp:        time.Now(),
	}
}

// Health classifies the current error rate: HEALTHY below 1%, WARNING below
// 5%, CRITICAL at or above 5%. Zero logs counts as HEALTHY.
func (s *LogStats) Health() models.LogHealth {
	total := s.total.Value()
	errs := s.errors.Value()
	rate := errorRate(errs, total)

	status := models.HealthHealthy
	switch {
	case rate >= criticalErrorRate:
		status = models.HealthCritical
	case rate >= warningErrorRate:
		status = models.HealthWarning
	}
	return models.LogHealth{
		Status:      status,
		ErrorRate:   rate,
		TotalLogs:   total,
		TotalErrors: errs,
		Timestamp:   time.Now(),
	}
}

// Reset zeroes all counters.
func (s *LogStats) Reset() {
	s.total.Reset()
	s.errors.Reset()
	s.procMicros.Reset()
	s.byCategory.Clear()
	s.byErrorType.Clear()
}

func errorRate(errs, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(errs) / float64(total)
}
