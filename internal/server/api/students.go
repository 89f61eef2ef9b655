package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/wavein/internal/store"
)

// StudentHandler manages the roster. Adding a student starts their enrollment.
type StudentHandler struct {
	store *store.Store
	reg   Registrar
}

// NewStudentHandler creates a StudentHandler. reg may be nil, in which case
// new students are only added to the roster.
func NewStudentHandler(s *store.Store, reg Registrar) *StudentHandler {
	return &StudentHandler{store: s, reg: reg}
}

type createStudentRequest struct {
	Name       string `json:"name"`
	StudentID  string `json:"id"`
	Department string `json:"department"`
}

type studentResponse struct {
	UUID         string `json:"uuid"`
	Name         string `json:"name"`
	StudentID    string `json:"id"`
	Department   string `json:"department"`
	RegisteredAt string `json:"registered_at"`
}

type createStudentResponse struct {
	Student   studentResponse `json:"student"`
	Enrolling bool            `json:"enrolling"`
}

type listStudentsResponse struct {
	Students []studentResponse `json:"students"`
}

func toStudentResponse(s *store.Student) studentResponse {
	return studentResponse{
		UUID:         s.ID,
		Name:         s.Name,
		StudentID:    s.StudentID,
		Department:   s.Department,
		RegisteredAt: formatTime(s.RegisteredAt),
	}
}

// List handles GET /api/students.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.Students().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students")
		return
	}

	resp := listStudentsResponse{Students: make([]studentResponse, 0, len(students))}
	for _, s := range students {
		resp.Students = append(resp.Students, toStudentResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/students/{id}.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Students().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get student")
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(s))
}

// Create handles POST /api/students.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	s := &store.Student{
		Name:       req.Name,
		StudentID:  strings.TrimSpace(req.StudentID),
		Department: strings.TrimSpace(req.Department),
	}
	if err := h.store.Students().Create(s); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create student")
		return
	}

	resp := createStudentResponse{Student: toStudentResponse(s)}
	if h.reg != nil {
		if err := h.reg.Start(s.Name); err != nil {
			log.Printf("Failed to start enrollment for %s: %v", s.Name, err)
		} else {
			resp.Enrolling = true
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Delete handles DELETE /api/students/{id}. Gallery samples are kept.
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Students().Delete(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
