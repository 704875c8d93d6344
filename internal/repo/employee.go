// Package repo implements data access for employee records. Every SQL call
// runs through the audit interceptor and the transaction monitor, so the
// repository is the main instrumentation point of the service.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/naokiys/emprecord/internal/audit"
	"github.com/naokiys/emprecord/internal/cache"
	"github.com/naokiys/emprecord/internal/models"
	"github.com/naokiys/emprecord/internal/stats"
)

// ErrNotFound is returned when an employee id does not exist.
var ErrNotFound = errors.New("employee not found")

const employeeColumns = `id, employee_number, last_name, first_name, last_name_kana, first_name_kana,
	email, department, hired_at, created_at, updated_at`

// Statement texts are package constants so the audit interceptor sees the
// same text that runs against the database.
const (
	stmtInsertEmployee = `INSERT INTO employees (employee_number, last_name, first_name, last_name_kana, first_name_kana, email, department, hired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + employeeColumns
	stmtGetEmployee = `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	stmtUpdateEmployee = `UPDATE employees SET employee_number = $1, last_name = $2, first_name = $3, last_name_kana = $4,
		first_name_kana = $5, email = $6, department = $7, hired_at = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + employeeColumns
	stmtDeleteEmployee = `DELETE FROM employees WHERE id = $1`
	stmtListEmployees  = `SELECT ` + employeeColumns + ` FROM employees ORDER BY id LIMIT $1 OFFSET $2`
	stmtSearchEmployees = `SELECT ` + employeeColumns + ` FROM employees
		WHERE last_name ILIKE $1 OR first_name ILIKE $1 OR last_name_kana ILIKE $1 OR first_name_kana ILIKE $1
		ORDER BY id LIMIT $2 OFFSET $3`
)

// EmployeeRepo persists employee records.
type EmployeeRepo struct {
	db     *sql.DB
	ic     *audit.Interceptor
	tx     *stats.TransactionStats
	caches *cache.Registry
}

// NewEmployeeRepo returns a new EmployeeRepo.
func NewEmployeeRepo(db *sql.DB, ic *audit.Interceptor, tx *stats.TransactionStats, caches *cache.Registry) *EmployeeRepo {
	return &EmployeeRepo{db: db, ic: ic, tx: tx, caches: caches}
}

func scanEmployee(row *sql.Row) (models.Employee, error) {
	var e models.Employee
	var department sql.NullString
	err := row.Scan(&e.ID, &e.EmployeeNumber, &e.LastName, &e.FirstName, &e.LastNameKana, &e.FirstNameKana,
		&e.Email, &department, &e.HiredAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Department = department.String
	return e, nil
}

func scanEmployees(rows *sql.Rows) ([]models.Employee, error) {
	defer rows.Close()
	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		var department sql.NullString
		if err := rows.Scan(&e.ID, &e.EmployeeNumber, &e.LastName, &e.FirstName, &e.LastNameKana, &e.FirstNameKana,
			&e.Email, &department, &e.HiredAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Department = department.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create inserts a new employee.
func (r *EmployeeRepo) Create(ctx context.Context, in models.EmployeeInput) (models.Employee, error) {
	var emp models.Employee
	err := r.tx.Monitor(ctx, "employee.create", func(ctx context.Context) error {
		return r.ic.InterceptInsert(ctx, stmtInsertEmployee, func(ctx context.Context) (int64, error) {
			var err error
			emp, err = scanEmployee(r.db.QueryRowContext(ctx, stmtInsertEmployee,
				in.EmployeeNumber, in.LastName, in.FirstName, in.LastNameKana, in.FirstNameKana,
				in.Email, nullableString(in.Department), in.HiredAt))
			if err != nil {
				return 0, err
			}
			return 1, nil
		})
	})
	if err != nil {
		return models.Employee{}, err
	}
	r.caches.Set(cache.EmployeeByID, strconv.Itoa(emp.ID), emp)
	// Search results may now be stale.
	_ = r.caches.Clear(cache.EmployeeSearch)
	return emp, nil
}

// Get returns one employee by id, served from cache when possible.
func (r *EmployeeRepo) Get(ctx context.Context, id int) (models.Employee, error) {
	key := strconv.Itoa(id)
	if v, ok := r.caches.Get(cache.EmployeeByID, key); ok {
		if emp, ok := v.(models.Employee); ok {
			return emp, nil
		}
	}

	var emp models.Employee
	err := r.ic.InterceptSelect(ctx, stmtGetEmployee, func(ctx context.Context) (int64, error) {
		var err error
		emp, err = scanEmployee(r.db.QueryRowContext(ctx, stmtGetEmployee, id))
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		if err != nil {
			return 0, err
		}
		return 1, nil
	})
	if err != nil {
		return models.Employee{}, err
	}
	r.caches.Set(cache.EmployeeByID, key, emp)
	return emp, nil
}

// Update replaces an employee's fields.
func (r *EmployeeRepo) Update(ctx context.Context, id int, in models.EmployeeInput) (models.Employee, error) {
	var emp models.Employee
	err := r.tx.Monitor(ctx, "employee.update", func(ctx context.Context) error {
		return r.ic.InterceptUpdate(ctx, stmtUpdateEmployee, func(ctx context.Context) (int64, error) {
			var err error
			emp, err = scanEmployee(r.db.QueryRowContext(ctx, stmtUpdateEmployee,
				in.EmployeeNumber, in.LastName, in.FirstName, in.LastNameKana, in.FirstNameKana,
				in.Email, nullableString(in.Department), in.HiredAt, id))
			if errors.Is(err, sql.ErrNoRows) {
				return 0, ErrNotFound
			}
			if err != nil {
				return 0, err
			}
			return 1, nil
		})
	})
	if err != nil {
		return models.Employee{}, err
	}
	r.caches.Delete(cache.EmployeeByID, strconv.Itoa(id))
	_ = r.caches.Clear(cache.EmployeeSearch)
	return emp, nil
}

// Delete removes an employee by id.
func (r *EmployeeRepo) Delete(ctx context.Context, id int) error {
	err := r.tx.Monitor(ctx, "employee.delete", func(ctx context.Context) error {
		return r.ic.InterceptDelete(ctx, stmtDeleteEmployee, func(ctx context.Context) (int64, error) {
			res, err := r.db.ExecContext(ctx, stmtDeleteEmployee, id)
			if err != nil {
				return 0, err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, err
			}
			if n == 0 {
				return 0, ErrNotFound
			}
			return n, nil
		})
	})
	if err != nil {
		return err
	}
	r.caches.Delete(cache.EmployeeByID, strconv.Itoa(id))
	_ = r.caches.Clear(cache.EmployeeSearch)
	return nil
}

// List returns employees ordered by id.
func (r *EmployeeRepo) List(ctx context.Context, limit, offset int) ([]models.Employee, error) {
	var out []models.Employee
	err := r.ic.InterceptSelect(ctx, stmtListEmployees, func(ctx context.Context) (int64, error) {
		rows, err := r.db.QueryContext(ctx, stmtListEmployees, limit, offset)
		if err != nil {
			return 0, err
		}
		out, err = scanEmployees(rows)
		return int64(len(out)), err
	})
	return out, err
}

// Search returns employees whose name or furigana matches query. Results are
// cached per query+page until the next write.
func (r *EmployeeRepo) Search(ctx context.Context, query string, limit, offset int) ([]models.Employee, error) {
	key := fmt.Sprintf("q=%s&limit=%d&offset=%d", query, limit, offset)
	if v, ok := r.caches.Get(cache.EmployeeSearch, key); ok {
		if emps, ok := v.([]models.Employee); ok {
			return emps, nil
		}
	}

	var out []models.Employee
	err := r.ic.InterceptSelect(ctx, stmtSearchEmployees, func(ctx context.Context) (int64, error) {
		rows, err := r.db.QueryContext(ctx, stmtSearchEmployees, "%"+query+"%", limit, offset)
		if err != nil {
			return 0, err
		}
		out, err = scanEmployees(rows)
		return int64(len(out)), err
	})
	if err != nil {
		return nil, err
	}
	r.caches.Set(cache.EmployeeSearch, key, out)
	return out, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
