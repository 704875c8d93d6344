package audit

import "testing"

func TestTableName(t *testing.T) {
	cases := []struct {
		stmt string
		want string
	}{
		{"INSERT INTO employees (last_name) VALUES ($1)", "employees"},
		{"insert into audit_log(user_id) values ($1)", "audit_log"},
		{"UPDATE employees SET last_name = $1 WHERE id = $2", "employees"},
		{"DELETE FROM employees WHERE id = $1", "employees"},
		{"SELECT id, last_name FROM employees WHERE id = $1", "employees"},
		{`SELECT * FROM "employees";`, "employees"},
		{"TRUNCATE employees", "unknown"},
		{"SELECT 1", "unknown"},
		{"", "unknown"},
	}
	for _, tc := range cases {
		if got := TableName(tc.stmt); got != tc.want {
			t.Errorf("TableName(%q) = %q, want %q", tc.stmt, got, tc.want)
		}
	}
}

func TestRecordID(t *testing.T) {
	cases := []struct {
		stmt string
		want string
	}{
		{"INSERT INTO employees (last_name) VALUES ($1)", "new_record"},
		{"UPDATE employees SET last_name = $1 WHERE id = $2", "extracted_from_where"},
		{"DELETE FROM employees WHERE id = 7", "extracted_from_where"},
		{"SELECT * FROM employees WHERE department = $1", "unknown"},
		{"SELECT * FROM employees", "unknown"},
	}
	for _, tc := range cases {
		if got := RecordID(tc.stmt); got != tc.want {
			t.Errorf("RecordID(%q) = %q, want %q", tc.stmt, got, tc.want)
		}
	}
}

func TestVerb(t *testing.T) {
	if got := Verb("select * from employees", "fallback"); got != "SELECT" {
		t.Errorf("Verb = %q, want SELECT", got)
	}
	if got := Verb("EXPLAIN SELECT 1", "fallback"); got != "fallback" {
		t.Errorf("Verb = %q, want fallback", got)
	}
}
