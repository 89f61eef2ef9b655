package api

import (
	"net/http"
	"time"

	"github.com/ayusman/wavein/internal/attendance"
)

// AttendanceHandler serves the attendance ledger.
type AttendanceHandler struct {
	ledger *attendance.Ledger
}

// NewAttendanceHandler creates a handler over ledger.
func NewAttendanceHandler(ledger *attendance.Ledger) *AttendanceHandler {
	return &AttendanceHandler{ledger: ledger}
}

type listAttendanceResponse struct {
	Records []attendance.Record `json:"records"`
}

// List handles GET /api/attendance. The optional date query (YYYY-MM-DD)
// limits the result to one day; date=today uses the ledger's clock.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		records []attendance.Record
		err     error
	)

	switch date := r.URL.Query().Get("date"); date {
	case "":
		records, err = h.ledger.List()
	case "today":
		records, err = h.ledger.Today()
	default:
		if _, perr := time.Parse(attendance.DateLayout, date); perr != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		records, err = h.ledger.ByDate(date)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read attendance")
		return
	}

	if records == nil {
		records = []attendance.Record{}
	}
	writeJSON(w, http.StatusOK, listAttendanceResponse{Records: records})
}

// Export handles GET /api/attendance/export and downloads the ledger as CSV.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
	if err := h.ledger.Export(w); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export attendance")
	}
}
