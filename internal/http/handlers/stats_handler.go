package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"service-attendance/internal/service"
)

type StatsHandler struct {
	service *service.StatsService
}

func NewStatsHandler(svc *service.StatsService) *StatsHandler {
	return &StatsHandler{service: svc}
}

func (h *StatsHandler) Register(r chi.Router) {
	r.Get("/students/{studentID}/percentage", h.handleStudentPercentage)
	r.Get("/classes/{classID}/subjects", h.handleSubjectBreakdown)
	r.Get("/classes/{classID}/alerts", h.handleAlerts)
	r.Get("/activity", h.handleDailyActivity)
}

type percentageResponse struct {
	StudentID  string `json:"student_id"`
	Percentage int    `json:"percentage"`
}

type subjectBreakdownResponse struct {
	Subject         string `json:"subject"`
	TotalSessions   int    `json:"total_sessions"`
	PresentSessions int    `json:"present_sessions"`
	Percentage      int    `json:"percentage"`
}

type activityResponse struct {
	ClassID       string `json:"class_id"`
	TotalStudents int    `json:"total_students"`
	PresentCount  int    `json:"present_count"`
	AbsentCount   int    `json:"absent_count"`
}

type alertResponse struct {
	StudentID  string `json:"student_id"`
	Percentage int    `json:"percentage"`
	Threshold  int    `json:"threshold"`
}

func (h *StatsHandler) handleStudentPercentage(w http.ResponseWriter, r *http.Request) {
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_student_id")
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	percentage, err := h.service.StudentPercentage(r.Context(), studentID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, percentageResponse{
		StudentID:  studentID.String(),
		Percentage: percentage,
	})
}

func (h *StatsHandler) handleSubjectBreakdown(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	breakdown, err := h.service.PerSubjectBreakdown(r.Context(), classID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]subjectBreakdownResponse, 0, len(breakdown))
	for _, entry := range breakdown {
		responses = append(responses, subjectBreakdownResponse{
			Subject:         entry.Subject,
			TotalSessions:   entry.TotalSessions,
			PresentSessions: entry.PresentSessions,
			Percentage:      entry.Percentage,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *StatsHandler) handleDailyActivity(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing_date")
		return
	}
	date, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}

	activity, err := h.service.DailyActivity(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]activityResponse, 0, len(activity))
	for _, entry := range activity {
		responses = append(responses, activityResponse{
			ClassID:       entry.ClassID.String(),
			TotalStudents: entry.TotalStudents,
			PresentCount:  entry.PresentCount,
			AbsentCount:   entry.AbsentCount,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *StatsHandler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	alerts, err := h.service.LowAttendanceAlerts(r.Context(), classID, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]alertResponse, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, alertResponse{
			StudentID:  alert.StudentID.String(),
			Percentage: alert.Percentage,
			Threshold:  alert.Threshold,
		})
	}
	writeJSON(w, http.StatusOK, responses)
}
