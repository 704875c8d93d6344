package stats

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naokiys/emprecord/internal/models"
)

// DatabaseMonitor answers live statistics queries against the storage engine.
// Unlike the in-memory aggregators it holds no state of its own; every call
// hits the database.
type DatabaseMonitor struct {
	db *sql.DB
}

// NewDatabaseMonitor returns a monitor over db.
func NewDatabaseMonitor(db *sql.DB) *DatabaseMonitor {
	return &DatabaseMonitor{db: db}
}

// ConnectionStats reports server-side connection counts for the current
// database plus the local sql.DB pool counters.
func (m *DatabaseMonitor) ConnectionStats(ctx context.Context) (models.ConnectionStats, error) {
	var out models.ConnectionStats

	err := m.db.QueryRowContext(ctx, `
		SELECT
			count(*) FILTER (WHERE state = 'active'),
			count(*) FILTER (WHERE state = 'idle'),
			count(*),
			(SELECT setting::bigint FROM pg_settings WHERE name = 'max_connections')
		FROM pg_stat_activity
		WHERE datname = current_database()`,
	).Scan(&out.Active, &out.Idle, &out.Total, &out.Max)
	if err != nil {
		return models.ConnectionStats{}, fmt.Errorf("connection stats: %w", err)
	}

	pool := m.db.Stats()
	out.PoolOpen = int64(pool.OpenConnections)
	out.PoolInUse = int64(pool.InUse)
	out.PoolIdle = int64(pool.Idle)
	out.PoolWaitCount = pool.WaitCount
	return out, nil
}

// TableStats reports row and write counts for every user table. For freshly
// created or unanalyzed tables n_live_tup can read zero even when rows exist,
// so it falls back to the planner's reltuples estimate. Both are estimates.
func (m *DatabaseMonitor) TableStats(ctx context.Context) ([]models.TableStats, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT s.relname, s.n_live_tup, c.reltuples::bigint,
		       s.n_tup_ins, s.n_tup_upd, s.n_tup_del
		FROM pg_stat_user_tables s
		JOIN pg_class c ON c.oid = s.relid
		ORDER BY s.relname`)
	if err != nil {
		return nil, fmt.Errorf("table stats: %w", err)
	}
	defer rows.Close()

	var out []models.TableStats
	for rows.Next() {
		var t models.TableStats
		var liveTup, relTuples int64
		if err := rows.Scan(&t.TableName, &liveTup, &relTuples, &t.Inserts, &t.Updates, &t.Deletes); err != nil {
			return nil, fmt.Errorf("table stats scan: %w", err)
		}
		t.RowCount = liveTup
		if t.RowCount == 0 && relTuples > 0 {
			t.RowCount = relTuples
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Health reports reachability, server version, and current database/user.
// It returns a DOWN result rather than an error so callers can embed it in a
// composite snapshot directly.
func (m *DatabaseMonitor) Health(ctx context.Context) models.DatabaseHealth {
	var h models.DatabaseHealth
	err := m.db.QueryRowContext(ctx,
		`SELECT version(), current_database(), current_user`,
	).Scan(&h.Version, &h.CurrentDatabase, &h.CurrentUser)
	if err != nil {
		return models.DatabaseHealth{Status: "DOWN", Error: err.Error()}
	}
	h.Status = "UP"
	return h
}

// PerformanceStats reports server-wide activity counters for the current
// database from pg_stat_database.
func (m *DatabaseMonitor) PerformanceStats(ctx context.Context) (models.DatabasePerformance, error) {
	var p models.DatabasePerformance
	err := m.db.QueryRowContext(ctx, `
		SELECT xact_commit, xact_rollback, blks_read, blks_hit,
		       tup_fetched, tup_inserted, tup_updated, tup_deleted
		FROM pg_stat_database
		WHERE datname = current_database()`,
	).Scan(&p.Commits, &p.Rollbacks, &p.BlocksRead, &p.BlocksHit,
		&p.TuplesFetched, &p.TuplesInserted, &p.TuplesUpdated, &p.TuplesDeleted)
	if err != nil {
		return models.DatabasePerformance{}, fmt.Errorf("performance stats: %w", err)
	}
	if reads := p.BlocksRead + p.BlocksHit; reads > 0 {
		p.CacheHitRatio = float64(p.BlocksHit) / float64(reads)
	}
	return p, nil
}

// Snapshot queries all facets concurrently and merges them. A failed facet is
// logged and degraded to its zero value (DOWN for health); the snapshot itself
// never fails.
func (m *DatabaseMonitor) Snapshot(ctx context.Context) models.DatabaseStats {
	out := models.DatabaseStats{Timestamp: time.Now()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conns, err := m.ConnectionStats(gctx)
		if err != nil {
			slog.Warn("database snapshot facet failed", "facet", "connections", "error", err)
			return nil
		}
		out.Connections = conns
		return nil
	})
	g.Go(func() error {
		tables, err := m.TableStats(gctx)
		if err != nil {
			slog.Warn("database snapshot facet failed", "facet", "tables", "error", err)
			return nil
		}
		out.Tables = tables
		return nil
	})
	g.Go(func() error {
		perf, err := m.PerformanceStats(gctx)
		if err != nil {
			slog.Warn("database snapshot facet failed", "facet", "performance", "error", err)
			return nil
		}
		out.Performance = perf
		return nil
	})
	g.Go(func() error {
		out.Health = m.Health(gctx)
		return nil
	})
	// Facet goroutines swallow their own errors, so Wait cannot fail.
	_ = g.Wait()
	return out
}
