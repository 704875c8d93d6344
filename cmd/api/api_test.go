package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/naokiys/emprecord/internal/config"
)

func newTestServer(t *testing.T) (*httptest.Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	cfg := config.Config{
		JWTSecret:            "test-secret-for-integration",
		CacheCapacity:        100,
		CacheShards:          4,
		CacheTTL:             time.Minute,
		CacheEvictionPercent: 10,
	}
	a := buildApp(db, cfg)
	srv := httptest.NewServer(newRouter(db, cfg, a))

	t.Cleanup(func() {
		srv.Close()
		a.recorder.Wait()
		db.Close()
	})
	return srv, mock
}

// TestAPI_CreateThenGetEmployee is an integration test: it builds the full
// router with a sqlmock-backed DB, creates an employee, then reads it back.
// The second read hits the by-id cache, so only one SELECT is expected.
func TestAPI_CreateThenGetEmployee(t *testing.T) {
	srv, mock := newTestServer(t)
	mock.MatchExpectationsInOrder(false)
	now := time.Now()

	cols := []string{
		"id", "employee_number", "last_name", "first_name", "last_name_kana", "first_name_kana",
		"email", "department", "hired_at", "created_at", "updated_at",
	}
	mock.ExpectQuery(`INSERT INTO employees`).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "EMP001", "Suzuki", "Hanako", "スズキ", "ハナコ", "hanako@example.com", nil, nil, now, now))
	mock.ExpectQuery(`SELECT .+ FROM employees WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "EMP001", "Suzuki", "Hanako", "スズキ", "ハナコ", "hanako@example.com", nil, nil, now, now))

	body, _ := json.Marshal(map[string]string{
		"employee_number": "EMP001",
		"last_name":       "Suzuki",
		"first_name":      "Hanako",
		"last_name_kana":  "スズキ",
		"first_name_kana": "ハナコ",
		"email":           "hanako@example.com",
	})
	resp, err := http.Post(srv.URL+"/v1/employees", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201", resp.StatusCode)
	}

	for i := 0; i < 2; i++ {
		getResp, err := http.Get(srv.URL + "/v1/employees/1")
		if err != nil {
			t.Fatalf("get request: %v", err)
		}
		var emp struct {
			ID             int    `json:"id"`
			EmployeeNumber string `json:"employee_number"`
		}
		if err := json.NewDecoder(getResp.Body).Decode(&emp); err != nil {
			t.Fatalf("decode employee: %v", err)
		}
		getResp.Body.Close()
		if getResp.StatusCode != http.StatusOK || emp.EmployeeNumber != "EMP001" {
			t.Fatalf("get #%d: status %d, employee %+v", i+1, getResp.StatusCode, emp)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_LogHealthAfterTraffic drives a few requests through the router and
// checks the rolling log health verdict stays HEALTHY.
func TestAPI_LogHealthAfterTraffic(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 5; i++ {
		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			t.Fatalf("health request: %v", err)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(srv.URL + "/monitoring/logs/health")
	if err != nil {
		t.Fatalf("log health request: %v", err)
	}
	defer resp.Body.Close()
	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "HEALTHY" {
		t.Errorf("log health = %q, want HEALTHY", health.Status)
	}
}

// TestAPI_InvalidToken rejects a malformed bearer token with 401.
func TestAPI_InvalidToken(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest("GET", srv.URL+"/v1/employees", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
