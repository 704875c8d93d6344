package repo

import (
	"context"
	"database/sql/driver"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/naokiys/emprecord/internal/audit"
	"github.com/naokiys/emprecord/internal/cache"
	"github.com/naokiys/emprecord/internal/events"
	"github.com/naokiys/emprecord/internal/models"
	"github.com/naokiys/emprecord/internal/stats"
)

var employeeCols = []string{
	"id", "employee_number", "last_name", "first_name", "last_name_kana", "first_name_kana",
	"email", "department", "hired_at", "created_at", "updated_at",
}

func employeeRow(id int, number, lastName string) []driver.Value {
	now := time.Now()
	return []driver.Value{id, number, lastName, "Taro", "サトウ", "タロウ", "taro@example.com", "engineering", nil, now, now}
}

// newTestRepo wires a repo against one mocked database. Audit writes go to a
// second mocked database with no expectations, so they fail and are dropped,
// which is exactly the isolation the write path promises.
func newTestRepo(t *testing.T) (*EmployeeRepo, sqlmock.Sqlmock, *stats.TransactionStats) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	auditDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	ls := stats.NewLogStats()
	ev := events.New(slog.New(slog.NewTextHandler(io.Discard, nil)), ls)
	rec := audit.NewRecorder(audit.NewStore(auditDB), ev)
	tx := stats.NewTransactionStats()
	reg := cache.NewRegistry(cache.DefaultConfig(), stats.NewCacheStats(), cache.EmployeeByID, cache.EmployeeSearch)

	t.Cleanup(func() {
		rec.Wait()
		db.Close()
		auditDB.Close()
	})
	return NewEmployeeRepo(db, audit.NewInterceptor(rec), tx, reg), mock, tx
}

func TestEmployeeRepo_Create(t *testing.T) {
	r, mock, tx := newTestRepo(t)

	mock.ExpectQuery(`INSERT INTO employees`).
		WithArgs("EMP100", "Sato", "Taro", "サトウ", "タロウ", "taro@example.com", "engineering", nil).
		WillReturnRows(sqlmock.NewRows(employeeCols).AddRow(employeeRow(1, "EMP100", "Sato")...))

	emp, err := r.Create(context.Background(), models.EmployeeInput{
		EmployeeNumber: "EMP100",
		LastName:       "Sato",
		FirstName:      "Taro",
		LastNameKana:   "サトウ",
		FirstNameKana:  "タロウ",
		Email:          "taro@example.com",
		Department:     "engineering",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if emp.ID != 1 || emp.EmployeeNumber != "EMP100" {
		t.Errorf("unexpected employee: %+v", emp)
	}
	if got := tx.Snapshot().Commits; got != 1 {
		t.Errorf("commits = %d, want 1", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestEmployeeRepo_Get_CachesSecondRead(t *testing.T) {
	r, mock, _ := newTestRepo(t)

	// One database round trip only; the second Get must hit the cache.
	mock.ExpectQuery(`SELECT .+ FROM employees WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(employeeCols).AddRow(employeeRow(1, "EMP100", "Sato")...))

	for i := 0; i < 2; i++ {
		emp, err := r.Get(context.Background(), 1)
		if err != nil {
			t.Fatalf("Get #%d: %v", i+1, err)
		}
		if emp.ID != 1 {
			t.Errorf("unexpected employee: %+v", emp)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestEmployeeRepo_Get_NotFound(t *testing.T) {
	r, mock, _ := newTestRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM employees WHERE id = \$1`).
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows(employeeCols))

	if _, err := r.Get(context.Background(), 999); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmployeeRepo_Update(t *testing.T) {
	r, mock, _ := newTestRepo(t)

	mock.ExpectQuery(`UPDATE employees SET`).
		WithArgs("EMP100", "Suzuki", "Taro", "スズキ", "タロウ", "taro@example.com", "engineering", nil, 1).
		WillReturnRows(sqlmock.NewRows(employeeCols).AddRow(employeeRow(1, "EMP100", "Suzuki")...))

	emp, err := r.Update(context.Background(), 1, models.EmployeeInput{
		EmployeeNumber: "EMP100",
		LastName:       "Suzuki",
		FirstName:      "Taro",
		LastNameKana:   "スズキ",
		FirstNameKana:  "タロウ",
		Email:          "taro@example.com",
		Department:     "engineering",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if emp.LastName != "Suzuki" {
		t.Errorf("unexpected employee: %+v", emp)
	}
}

func TestEmployeeRepo_Delete(t *testing.T) {
	r, mock, _ := newTestRepo(t)

	mock.ExpectExec(`DELETE FROM employees WHERE id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestEmployeeRepo_Delete_NotFound(t *testing.T) {
	r, mock, _ := newTestRepo(t)

	mock.ExpectExec(`DELETE FROM employees WHERE id = \$1`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := r.Delete(context.Background(), 42); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmployeeRepo_Search(t *testing.T) {
	r, mock, _ := newTestRepo(t)

	mock.ExpectQuery(`ILIKE \$1`).
		WithArgs("%サトウ%", 10, 0).
		WillReturnRows(sqlmock.NewRows(employeeCols).AddRow(employeeRow(1, "EMP100", "Sato")...))

	emps, err := r.Search(context.Background(), "サトウ", 10, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(emps) != 1 || emps[0].EmployeeNumber != "EMP100" {
		t.Errorf("unexpected result: %+v", emps)
	}

	// Second identical search is served from the cache.
	emps, err = r.Search(context.Background(), "サトウ", 10, 0)
	if err != nil || len(emps) != 1 {
		t.Fatalf("cached Search: %v %v", emps, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
