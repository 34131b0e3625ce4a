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

// StudentHandler provides CRUD endpoints for student records.
type StudentHandler struct {
	students *services.StudentService
}

func NewStudentHandler(students *services.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// StudentRouter registers student routes. All routes require a valid
// token but no particular role.
func StudentRouter(r chi.Router, students *services.StudentService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewStudentHandler(students)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.List)
		r.Get("/{studentID}", handler.Get)
		r.Post("/", handler.Create)
		r.Put("/{studentID}", handler.Update)
		r.Delete("/{studentID}", handler.Delete)
	})
}

type StudentRequest struct {
	Name   string `json:"name"`
	School string `json:"school"`
	Grade  string `json:"grade,omitempty"`
}

func (req *StudentRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.School = strings.TrimSpace(req.School)
	req.Grade = strings.TrimSpace(req.Grade)
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.School == "" {
		return errors.New("school is required")
	}
	return nil
}

type ListStudentsResponse struct {
	Students []types.Student `json:"students"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	students, total, err := h.students.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	if students == nil {
		students = []types.Student{}
	}

	writeJSON(w, http.StatusOK, ListStudentsResponse{
		Students: students,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r, "studentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get student")
		return
	}

	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	student, err := h.students.Create(r.Context(), types.Student{
		Name:   req.Name,
		School: req.School,
		Grade:  req.Grade,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create student")
		return
	}

	writeJSON(w, http.StatusCreated, student)
}

func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r, "studentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	var req StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	student, err := h.students.Update(r.Context(), types.Student{
		ID:     id,
		Name:   req.Name,
		School: req.School,
		Grade:  req.Grade,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update student")
		return
	}

	writeJSON(w, http.StatusOK, student)
}

func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r, "studentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	if err := h.students.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete student")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
