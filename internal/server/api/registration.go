package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/wavein/internal/enroll"
)

// Registrar is the enrollment slot as seen from the dashboard.
type Registrar interface {
	Start(name string) error
	Ensure(name string) error
	Status() enroll.Status
	ManualCapture() (enroll.Status, error)
	Complete() error
}

// RegistrationHandler drives face enrollment.
type RegistrationHandler struct {
	reg Registrar
}

// NewRegistrationHandler creates a handler over reg.
func NewRegistrationHandler(reg Registrar) *RegistrationHandler {
	return &RegistrationHandler{reg: reg}
}

// Status handles GET /api/registration_status.
func (h *RegistrationHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.Status())
}

// Start handles POST /api/register/{name}.
func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.reg.Start(chi.URLParam(r, "name")); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.reg.Status())
}

// ManualCapture handles POST /api/manual_capture/{name}. It counts one sample
// for name, starting its enrollment if needed.
func (h *RegistrationHandler) ManualCapture(w http.ResponseWriter, r *http.Request) {
	if err := h.reg.Ensure(chi.URLParam(r, "name")); err != nil {
		h.fail(w, err)
		return
	}
	st, err := h.reg.ManualCapture()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Complete handles POST /api/complete_registration/{name}. The gallery is
// saved even when no enrollment is running.
func (h *RegistrationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if st := h.reg.Status(); st.Active && st.Name != name {
		writeError(w, http.StatusConflict, "Enrollment in progress for "+st.Name)
		return
	}
	if err := h.reg.Complete(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save face gallery")
		return
	}
	writeJSON(w, http.StatusOK, h.reg.Status())
}

func (h *RegistrationHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, enroll.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "Name is required")
	case errors.Is(err, enroll.ErrInactive):
		writeError(w, http.StatusConflict, "No enrollment in progress")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
