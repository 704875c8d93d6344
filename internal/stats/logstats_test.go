package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/naokiys/emprecord/internal/models"
)

func recordLogs(s *LogStats, n int, category string) {
	for i := 0; i < n; i++ {
		s.RecordLog(category, time.Millisecond)
	}
}

func TestLogStats_Snapshot(t *testing.T) {
	s := NewLogStats()
	recordLogs(s, 3, CategoryAudit)
	recordLogs(s, 2, CategorySecurity)
	s.RecordError(ErrTypeValidation)

	snap := s.Snapshot()
	if snap.TotalLogs != 5 {
		t.Errorf("total logs = %d, want 5", snap.TotalLogs)
	}
	if snap.TotalErrors != 1 {
		t.Errorf("total errors = %d, want 1", snap.TotalErrors)
	}
	if snap.ByCategory[CategoryAudit] != 3 || snap.ByCategory[CategorySecurity] != 2 {
		t.Errorf("unexpected category counts: %v", snap.ByCategory)
	}
	if snap.ByErrorType[ErrTypeValidation] != 1 {
		t.Errorf("unexpected error type counts: %v", snap.ByErrorType)
	}
	if snap.MeanProcessingMs <= 0 {
		t.Errorf("mean processing = %f, want > 0", snap.MeanProcessingMs)
	}
}

func TestLogStats_Health(t *testing.T) {
	cases := []struct {
		name   string
		logs   int
		errors int
		want   string
	}{
		{"no logs", 0, 0, models.HealthHealthy},
		{"zero errors", 100, 0, models.HealthHealthy},
		{"three percent", 100, 3, models.HealthWarning},
		{"six percent", 100, 6, models.HealthCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewLogStats()
			recordLogs(s, tc.logs, CategoryApplication)
			for i := 0; i < tc.errors; i++ {
				s.RecordError(ErrTypeSystem)
			}
			if got := s.Health().Status; got != tc.want {
				t.Errorf("health = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestLogStats_ConcurrentIncrements(t *testing.T) {
	s := NewLogStats()
	const workers = 64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordLog(CategoryRequest, time.Microsecond)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	if snap.TotalLogs != workers {
		t.Errorf("total logs = %d, want %d (lost updates)", snap.TotalLogs, workers)
	}
	if snap.ByCategory[CategoryRequest] != workers {
		t.Errorf("category count = %d, want %d", snap.ByCategory[CategoryRequest], workers)
	}
}

func TestLogStats_Reset(t *testing.T) {
	s := NewLogStats()
	recordLogs(s, 10, CategoryAudit)
	s.RecordError(ErrTypeBusiness)

	s.Reset()

	snap := s.Snapshot()
	if snap.TotalLogs != 0 || snap.TotalErrors != 0 || len(snap.ByCategory) != 0 {
		t.Errorf("expected zeroed stats, got %+v", snap)
	}
	if got := s.Health().Status; got != models.HealthHealthy {
		t.Errorf("health after reset = %s, want HEALTHY", got)
	}
}
