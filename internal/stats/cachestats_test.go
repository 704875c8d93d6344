package stats

import "testing"

func TestCacheStats_HitRate(t *testing.T) {
	s := NewCacheStats()
	for i := 0; i < 3; i++ {
		s.RecordHit("employee_by_id")
	}
	s.RecordMiss("employee_by_id")
	s.RecordPut("employee_by_id")
	s.RecordEvict("employee_search", 5)

	snap := s.Snapshot()
	byID := snap.Caches["employee_by_id"]
	if byID.Hits != 3 || byID.Misses != 1 || byID.Puts != 1 {
		t.Errorf("unexpected counters: %+v", byID)
	}
	if byID.HitRate != 0.75 {
		t.Errorf("hit rate = %f, want 0.75", byID.HitRate)
	}
	if snap.Caches["employee_search"].Evicts != 5 {
		t.Errorf("evicts = %d, want 5", snap.Caches["employee_search"].Evicts)
	}
	if snap.HitRate != 0.75 {
		t.Errorf("global hit rate = %f, want 0.75", snap.HitRate)
	}
}

func TestCacheStats_ZeroLookupsZeroRate(t *testing.T) {
	s := NewCacheStats()
	s.RecordPut("employee_by_id")

	snap := s.Snapshot()
	if snap.HitRate != 0 {
		t.Errorf("hit rate = %f, want 0 with no lookups", snap.HitRate)
	}
	if snap.Caches["employee_by_id"].HitRate != 0 {
		t.Errorf("per-cache hit rate = %f, want 0", snap.Caches["employee_by_id"].HitRate)
	}
}
