package models

import "time"

// Employee represents one employee record.
type Employee struct {
	ID             int        `json:"id"`
	EmployeeNumber string     `json:"employee_number"` // e.g. EMP100
	LastName       string     `json:"last_name"`
	FirstName      string     `json:"first_name"`
	LastNameKana   string     `json:"last_name_kana"`
	FirstNameKana  string     `json:"first_name_kana"`
	Email          string     `json:"email"`
	Department     string     `json:"department,omitempty"`
	HiredAt        *time.Time `json:"hired_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EmployeeInput is the payload for creating or updating an employee.
type EmployeeInput struct {
	EmployeeNumber string     `json:"employee_number" validate:"required,min=2,max=20"`
	LastName       string     `json:"last_name" validate:"required,max=100"`
	FirstName      string     `json:"first_name" validate:"required,max=100"`
	LastNameKana   string     `json:"last_name_kana" validate:"max=100"`
	FirstNameKana  string     `json:"first_name_kana" validate:"max=100"`
	Email          string     `json:"email" validate:"required,email"`
	Department     string     `json:"department" validate:"max=100"`
	HiredAt        *time.Time `json:"hired_at"`
}
