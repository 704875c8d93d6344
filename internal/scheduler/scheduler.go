// Package scheduler runs the audit retention job on a cron timetable.
package scheduler

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/naokiys/emprecord/internal/audit"
	"github.com/naokiys/emprecord/internal/reqctx"
)

// Scheduler owns the cron runner for background maintenance.
type Scheduler struct {
	cron          *cron.Cron
	rec           *audit.Recorder
	retentionDays int
}

// New builds a scheduler that deletes audit entries older than retentionDays
// whenever cronExpr fires. The job runs under a system identity so its own
// activity shows up in the logs with a traceable request ID.
func New(rec *audit.Recorder, cronExpr string, retentionDays int) (*Scheduler, error) {
	s := &Scheduler{
		cron:          cron.New(),
		rec:           rec,
		retentionDays: retentionDays,
	}
	if _, err := s.cron.AddFunc(cronExpr, s.runCleanup); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) runCleanup() {
	ctx := reqctx.System("audit-retention-job")
	deleted, err := s.rec.CleanupOldLogs(ctx, s.retentionDays)
	if err != nil {
		slog.Error("audit retention job failed",
			"retention_days", s.retentionDays,
			"error", err)
		return
	}
	slog.Info("audit retention job finished",
		"retention_days", s.retentionDays,
		"deleted", deleted)
}

// Start begins firing jobs in the cron's own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels future runs and waits for an in-flight job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
