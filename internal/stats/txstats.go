package stats

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/naokiys/emprecord/internal/models"
)

// TransactionStats tracks business-level transaction outcomes. A transaction
// is STARTED exactly once and settles exactly once as committed, rolled back,
// or errored; Active in the snapshot is starts minus settled.
type TransactionStats struct {
	starts      *xsync.Counter
	commits     *xsync.Counter
	rollbacks   *xsync.Counter
	errors      *xsync.Counter
	settled     *xsync.Counter
	durMicros   *xsync.Counter
	byOperation *xsync.MapOf[string, *xsync.Counter]
}

// NewTransactionStats returns a zeroed aggregator.
func NewTransactionStats() *TransactionStats {
	return &TransactionStats{
		starts:      xsync.NewCounter(),
		commits:     xsync.NewCounter(),
		rollbacks:   xsync.NewCounter(),
		errors:      xsync.NewCounter(),
		settled:     xsync.NewCounter(),
		durMicros:   xsync.NewCounter(),
		byOperation: xsync.NewMapOf[string, *xsync.Counter](),
	}
}

// RecordStart marks one transaction started for the named operation.
func (s *TransactionStats) RecordStart(operation string) {
	s.starts.Inc()
	counterFor(s.byOperation, operation).Inc()
}

// RecordCommit settles a started transaction as committed.
func (s *TransactionStats) RecordCommit(operation string, start time.Time) {
	s.commits.Inc()
	s.settle(start)
}

// RecordRollback settles a started transaction as rolled back.
func (s *TransactionStats) RecordRollback(operation string, start time.Time) {
	s.rollbacks.Inc()
	s.settle(start)
}

// RecordError settles a started transaction as errored.
func (s *TransactionStats) RecordError(operation string, start time.Time, err error) {
	s.errors.Inc()
	s.settle(start)
}

func (s *TransactionStats) settle(start time.Time) {
	s.settled.Inc()
	s.durMicros.Add(time.Since(start).Microseconds())
}

// Monitor wraps fn as one monitored transaction: start is recorded before fn
// runs, commit or error when it settles. fn's error is returned unchanged.
func (s *TransactionStats) Monitor(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	s.RecordStart(operation)
	err := fn(ctx)
	if err != nil {
		s.RecordError(operation, start, err)
		return err
	}
	s.RecordCommit(operation, start)
	return nil
}

// Snapshot returns the current counter values.
func (s *TransactionStats) Snapshot() models.TransactionStats {
	starts := s.starts.Value()
	settled := s.settled.Value()

	var meanMs float64
	if settled > 0 {
		meanMs = float64(s.durMicros.Value()) / float64(settled) / 1000.0
	}
	byOp := make(map[string]int64)
	s.byOperation.Range(func(k string, c *xsync.Counter) bool {
		byOp[k] = c.Value()
		return true
	})
	return models.TransactionStats{
		Starts:         starts,
		Commits:        s.commits.Value(),
		Rollbacks:      s.rollbacks.Value(),
		Errors:         s.errors.Value(),
		Active:         starts - settled,
		MeanDurationMs: meanMs,
		ByOperation:    byOp,
		Timestamp:      time.Now(),
	}
}
