package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/staffdesk/apiserver/internal/services"
	"github.com/staffdesk/apiserver/internal/store"
	"github.com/staffdesk/apiserver/types"
)

// EmployeeHandler provides CRUD and export endpoints for employee
// records.
type EmployeeHandler struct {
	employees *services.EmployeeService
	export    *services.ExportService
}

func NewEmployeeHandler(employees *services.EmployeeService, export *services.ExportService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, export: export}
}

// EmployeeRouter registers employee routes. Every route requires a
// valid token; listing and exporting additionally require ADMIN or
// OWNER, and updates require ADMIN.
func EmployeeRouter(r chi.Router, employees *services.EmployeeService, export *services.ExportService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewEmployeeHandler(employees, export)

	adminOrOwner := RequireRole(types.RoleAdmin, types.RoleOwner)
	adminOnly := RequireRole(types.RoleAdmin)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.With(adminOrOwner).Get("/", handler.List)
		r.With(adminOrOwner).Post("/export", handler.Export)
		r.Get("/{employeeID}", handler.Get)
		r.Post("/", handler.Create)
		r.With(adminOnly).Put("/{employeeID}", handler.Update)
		r.Delete("/{employeeID}", handler.Delete)
	})
}

type EmployeeRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Salary int64  `json:"salary"`
}

func (req *EmployeeRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.Email == "" {
		return errors.New("email is required")
	}
	if req.Salary < 0 {
		return errors.New("salary must not be negative")
	}
	return nil
}

type ListEmployeesResponse struct {
	Employees []types.Employee `json:"employees"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
}

type ExportEmployeesResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	employees, total, err := h.employees.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list employees")
		return
	}
	if employees == nil {
		employees = []types.Employee{}
	}

	writeJSON(w, http.StatusOK, ListEmployeesResponse{
		Employees: employees,
		Total:     total,
		Page:      page,
		Limit:     limit,
	})
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r, "employeeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	employee, err := h.employees.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "employee not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get employee")
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	employee, err := h.employees.Create(r.Context(), types.Employee{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Salary: req.Salary,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create employee")
		return
	}

	writeJSON(w, http.StatusCreated, employee)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r, "employeeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	var req EmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	employee, err := h.employees.Update(r.Context(), types.Employee{
		ID:     id,
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Salary: req.Salary,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "employee not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update employee")
		return
	}

	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r, "employeeID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}

	if err := h.employees.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "employee not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete employee")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export writes a CSV roster snapshot to object storage and returns
// the object key. Returns 503 when no storage backend is configured.
func (h *EmployeeHandler) Export(w http.ResponseWriter, r *http.Request) {
	key, count, err := h.export.ExportEmployees(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrExportDisabled) {
			writeError(w, http.StatusServiceUnavailable, "export storage is not configured")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to export employees")
		return
	}

	writeJSON(w, http.StatusOK, ExportEmployeesResponse{Key: key, Count: count})
}
