package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"service-attendance/internal/domain"
	"service-attendance/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeServiceError maps service failures to status codes, surfacing the
// specific reason so the caller can correct the request.
func writeServiceError(w http.ResponseWriter, err error) {
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "slot_conflict",
			"conflicting_slot": map[string]any{
				"id":         conflict.Existing.ID.String(),
				"subject":    conflict.Existing.Subject,
				"start_time": domain.FormatClock(conflict.Existing.StartMinute),
				"end_time":   domain.FormatClock(conflict.Existing.EndMinute),
			},
		})
		return
	}
	var denied *service.DeniedError
	if errors.As(err, &denied) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":  "attendance_denied",
			"reason": denied.Reason,
		})
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_time_range")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
