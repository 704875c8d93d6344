package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/naokiys/emprecord/internal/events"
	"github.com/naokiys/emprecord/internal/models"
	"github.com/naokiys/emprecord/internal/repo"
	"github.com/naokiys/emprecord/internal/stats"
)

// EmployeeHandler serves the employee CRUD and search endpoints.
type EmployeeHandler struct {
	Repo   *repo.EmployeeRepo
	Events *events.Logger
}

var validate = validator.New()

func decodeEmployeeInput(w http.ResponseWriter, r *http.Request, ev *events.Logger) (models.EmployeeInput, bool) {
	var in models.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return in, false
	}
	if err := validate.Struct(in); err != nil {
		ev.LogError(r.Context(), stats.ErrTypeValidation, "employee.input", err)
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return in, false
	}
	return in, true
}

// CreateEmployee handles POST /v1/employees.
func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeEmployeeInput(w, r, h.Events)
	if !ok {
		return
	}

	emp, err := h.Repo.Create(r.Context(), in)
	if err != nil {
		h.Events.LogError(r.Context(), stats.ErrTypeBusiness, "employee.create", err)
		JSONError(w, "failed to create employee", http.StatusInternalServerError)
		return
	}

	h.Events.LogUserOperation(r.Context(), "create", "employee", map[string]any{
		"employee_number": emp.EmployeeNumber,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(emp)
}

// GetEmployee handles GET /v1/employees/{id}.
func (h *EmployeeHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid employee id", http.StatusBadRequest)
		return
	}

	emp, err := h.Repo.Get(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "employee not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(emp)
}

// ListEmployees handles GET /v1/employees. Query: q (name or furigana search),
// limit (default 20, max 100), offset.
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 100 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	var emps []models.Employee
	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		emps, err = h.Repo.Search(r.Context(), q, limit, offset)
	} else {
		emps, err = h.Repo.List(r.Context(), limit, offset)
	}
	if err != nil {
		JSONError(w, "failed to fetch employees", http.StatusInternalServerError)
		return
	}
	if emps == nil {
		emps = []models.Employee{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(emps)
}

// UpdateEmployee handles PUT /v1/employees/{id}.
func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid employee id", http.StatusBadRequest)
		return
	}

	in, ok := decodeEmployeeInput(w, r, h.Events)
	if !ok {
		return
	}

	emp, err := h.Repo.Update(r.Context(), id, in)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "employee not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Events.LogError(r.Context(), stats.ErrTypeBusiness, "employee.update", err)
		JSONError(w, "failed to update employee", http.StatusInternalServerError)
		return
	}

	h.Events.LogUserOperation(r.Context(), "update", "employee", map[string]any{
		"employee_number": emp.EmployeeNumber,
	})
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(emp)
}

// DeleteEmployee handles DELETE /v1/employees/{id}.
func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid employee id", http.StatusBadRequest)
		return
	}

	err = h.Repo.Delete(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "employee not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Events.LogError(r.Context(), stats.ErrTypeBusiness, "employee.delete", err)
		JSONError(w, "failed to delete employee", http.StatusInternalServerError)
		return
	}

	h.Events.LogUserOperation(r.Context(), "delete", "employee", map[string]any{"id": id})
	w.WriteHeader(http.StatusNoContent)
}
