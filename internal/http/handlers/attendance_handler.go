package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"service-attendance/internal/domain"
	"service-attendance/internal/service"
)

type AttendanceHandler struct {
	service *service.AttendanceService
}

func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

func (h *AttendanceHandler) Register(r chi.Router) {
	r.Post("/classes/{classID}/attendance", h.handleCommit)
	r.Get("/classes/{classID}/attendance", h.handleClassRecords)
	r.Get("/students/{studentID}/attendance", h.handleStudentRecords)
}

type commitRequest struct {
	Subject string        `json:"subject"`
	Date    string        `json:"date"`
	Marks   []markRequest `json:"marks"`
}

type markRequest struct {
	StudentID string `json:"student_id"`
	Present   bool   `json:"present"`
}

type recordResponse struct {
	StudentID string `json:"student_id"`
	Date      string `json:"date"`
	Subject   string `json:"subject"`
	Present   bool   `json:"present"`
}

func (h *AttendanceHandler) handleCommit(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	var req commitRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}

	marks := make([]domain.StudentMark, 0, len(req.Marks))
	for _, mark := range req.Marks {
		studentID, err := uuid.Parse(mark.StudentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_student_id")
			return
		}
		marks = append(marks, domain.StudentMark{StudentID: studentID, Present: mark.Present})
	}

	if err := h.service.Commit(r.Context(), classID, req.Subject, date, marks); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AttendanceHandler) handleStudentRecords(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	records, err := h.service.RecordsForStudent(r.Context(), studentID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordsToResponses(records))
}

func (h *AttendanceHandler) handleClassRecords(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	records, err := h.service.RecordsForClass(r.Context(), classID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, recordsToResponses(records))
}

// parseDateRange reads optional from/to query parameters as inclusive
// calendar-day bounds.
func parseDateRange(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from")
			return nil, nil, false
		}
		from = &parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to")
			return nil, nil, false
		}
		to = &parsed
	}
	return from, to, true
}

func recordsToResponses(records []domain.AttendanceRecord) []recordResponse {
	responses := make([]recordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, recordResponse{
			StudentID: record.StudentID.String(),
			Date:      record.Date.Format("2006-01-02"),
			Subject:   record.Subject,
			Present:   record.Present,
		})
	}
	return responses
}
