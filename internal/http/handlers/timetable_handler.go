package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"service-attendance/internal/domain"
	"service-attendance/internal/service"
)

// LiveCache bounds live-session staleness to the polling cadence.
type LiveCache interface {
	GetLiveSlot(ctx context.Context, classID uuid.UUID) ([]byte, bool)
	SetLiveSlot(ctx context.Context, classID uuid.UUID, payload []byte, ttl time.Duration)
}

type TimetableHandler struct {
	service      *service.TimetableService
	cache        LiveCache
	liveCacheTTL time.Duration
}

func NewTimetableHandler(svc *service.TimetableService, cache LiveCache, liveCacheTTL time.Duration) *TimetableHandler {
	return &TimetableHandler{
		service:      svc,
		cache:        cache,
		liveCacheTTL: liveCacheTTL,
	}
}

func (h *TimetableHandler) Register(r chi.Router) {
	r.Post("/classes/{classID}/slots", h.handleAddSlot)
	r.Get("/classes/{classID}/slots", h.handleListSlots)
	r.Get("/classes/{classID}/live", h.handleLiveSlot)
	r.Put("/slots/{slotID}", h.handleUpdateSlot)
	r.Delete("/slots/{slotID}", h.handleDeleteSlot)
}

type slotRequest struct {
	Weekday    int    `json:"weekday"`
	Subject    string `json:"subject"`
	Instructor string `json:"instructor"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type slotResponse struct {
	ID         string `json:"id"`
	ClassID    string `json:"class_id"`
	Weekday    int    `json:"weekday"`
	Subject    string `json:"subject"`
	Instructor string `json:"instructor"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type liveSlotResponse struct {
	Live bool          `json:"live"`
	Slot *slotResponse `json:"slot,omitempty"`
}

func (h *TimetableHandler) handleAddSlot(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	req, start, end, ok := decodeSlotRequest(w, r)
	if !ok {
		return
	}

	slot, err := h.service.AddSlot(r.Context(), classID, req.Weekday, req.Subject, req.Instructor, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, slotToResponse(slot))
}

func (h *TimetableHandler) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slot_id")
		return
	}

	req, start, end, ok := decodeSlotRequest(w, r)
	if !ok {
		return
	}

	slot, err := h.service.UpdateSlot(r.Context(), slotID, req.Weekday, req.Subject, req.Instructor, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, slotToResponse(slot))
}

func (h *TimetableHandler) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slot_id")
		return
	}

	if err := h.service.DeleteSlot(r.Context(), slotID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TimetableHandler) handleListSlots(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	slots, err := h.service.SlotsFor(r.Context(), classID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	responses := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		responses = append(responses, slotToResponse(slot))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *TimetableHandler) handleLiveSlot(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	if cached, ok := h.cache.GetLiveSlot(r.Context(), classID); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	slot, live, err := h.service.LiveSlotFor(r.Context(), classID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := liveSlotResponse{Live: live}
	if live {
		converted := slotToResponse(slot)
		response.Slot = &converted
	}

	payload, err := json.Marshal(response)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	h.cache.SetLiveSlot(r.Context(), classID, payload, h.liveCacheTTL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func decodeSlotRequest(w http.ResponseWriter, r *http.Request) (slotRequest, int, int, bool) {
	var req slotRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return req, 0, 0, false
	}

	start, err := domain.ParseClock(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start_time")
		return req, 0, 0, false
	}
	end, err := domain.ParseClock(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end_time")
		return req, 0, 0, false
	}
	return req, start, end, true
}

func slotToResponse(slot domain.Slot) slotResponse {
	return slotResponse{
		ID:         slot.ID.String(),
		ClassID:    slot.ClassID.String(),
		Weekday:    slot.Weekday,
		Subject:    slot.Subject,
		Instructor: slot.Instructor,
		StartTime:  domain.FormatClock(slot.StartMinute),
		EndTime:    domain.FormatClock(slot.EndMinute),
	}
}
