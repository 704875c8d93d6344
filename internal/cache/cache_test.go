package cache

import (
	"testing"

	"github.com/naokiys/emprecord/internal/stats"
)

func newTestRegistry() (*Registry, *stats.CacheStats) {
	st := stats.NewCacheStats()
	return NewRegistry(DefaultConfig(), st, EmployeeByID, EmployeeSearch), st
}

func TestRegistry_GetSet(t *testing.T) {
	r, st := newTestRegistry()

	if _, ok := r.Get(EmployeeByID, "1"); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	r.Set(EmployeeByID, "1", "emp-1")
	v, ok := r.Get(EmployeeByID, "1")
	if !ok || v != "emp-1" {
		t.Fatalf("unexpected value: %v, %v", v, ok)
	}

	snap := st.Snapshot()
	c := snap.Caches[EmployeeByID]
	if c.Hits != 1 || c.Misses != 1 || c.Puts != 1 {
		t.Errorf("unexpected counters: %+v", c)
	}
}

func TestRegistry_UnknownCacheIsMiss(t *testing.T) {
	r, _ := newTestRegistry()
	if _, ok := r.Get("nope", "k"); ok {
		t.Fatal("unexpected hit on unknown cache")
	}
}

func TestRegistry_ClearDropsEntriesAndCountsEvictions(t *testing.T) {
	r, st := newTestRegistry()
	r.Set(EmployeeSearch, "q=sato", []string{"EMP100"})
	r.Set(EmployeeSearch, "q=suzuki", []string{"EMP101"})

	if err := r.Clear(EmployeeSearch); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := r.Get(EmployeeSearch, "q=sato"); ok {
		t.Fatal("entry survived clear")
	}
	if got := st.Snapshot().Caches[EmployeeSearch].Evicts; got != 2 {
		t.Errorf("evicts = %d, want 2", got)
	}

	if err := r.Clear("nope"); err == nil {
		t.Error("expected error clearing unknown cache")
	}
}

func TestRegistry_Names(t *testing.T) {
	r, _ := newTestRegistry()
	names := r.Names()
	if len(names) != 2 || names[0] != EmployeeByID || names[1] != EmployeeSearch {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestRegistry_ClearAll(t *testing.T) {
	r, _ := newTestRegistry()
	r.Set(EmployeeByID, "1", "a")
	r.Set(EmployeeSearch, "q", "b")
	r.ClearAll()
	if _, ok := r.Get(EmployeeByID, "1"); ok {
		t.Fatal("employee_by_id survived ClearAll")
	}
	if _, ok := r.Get(EmployeeSearch, "q"); ok {
		t.Fatal("employee_search survived ClearAll")
	}
}
