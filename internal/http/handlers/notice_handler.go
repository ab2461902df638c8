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

type NoticeHandler struct {
	service *service.NoticeService
}

func NewNoticeHandler(svc *service.NoticeService) *NoticeHandler {
	return &NoticeHandler{service: svc}
}

func (h *NoticeHandler) Register(r chi.Router) {
	r.Post("/classes/{classID}/notices", h.handlePost)
	r.Get("/classes/{classID}/notices", h.handleList)
	r.Get("/classes/{classID}/notices/unseen", h.handleUnseen)
	r.Post("/notices/{noticeID}/dismiss", h.handleDismiss)
}

type postNoticeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type noticeResponse struct {
	ID        string `json:"id"`
	ClassID   string `json:"class_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Machine   bool   `json:"machine"`
}

func (h *NoticeHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	var req postNoticeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	notice, err := h.service.Post(r.Context(), classID, req.Title, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, noticeToResponse(notice))
}

func (h *NoticeHandler) handleList(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}

	notices, err := h.service.List(r.Context(), classID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, noticesToResponses(notices))
}

func (h *NoticeHandler) handleUnseen(w http.ResponseWriter, r *http.Request) {
	classID, err := uuid.Parse(chi.URLParam(r, "classID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_class_id")
		return
	}
	userID, ok := userIDFromHeader(w, r)
	if !ok {
		return
	}

	notices, err := h.service.Unseen(r.Context(), classID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, noticesToResponses(notices))
}

func (h *NoticeHandler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	noticeID, err := uuid.Parse(chi.URLParam(r, "noticeID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_notice_id")
		return
	}
	userID, ok := userIDFromHeader(w, r)
	if !ok {
		return
	}

	if err := h.service.Dismiss(r.Context(), userID, noticeID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func userIDFromHeader(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	header := r.Header.Get("X-User-ID")
	if header == "" {
		writeError(w, http.StatusBadRequest, "missing_user_id")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(header)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return uuid.Nil, false
	}
	return userID, true
}

func noticeToResponse(notice domain.Notice) noticeResponse {
	return noticeResponse{
		ID:        notice.ID.String(),
		ClassID:   notice.ClassID.String(),
		Title:     notice.Title,
		Content:   notice.Content,
		CreatedAt: notice.CreatedAt.UTC().Format(time.RFC3339),
		Machine:   notice.IsMachine(),
	}
}

func noticesToResponses(notices []domain.Notice) []noticeResponse {
	responses := make([]noticeResponse, 0, len(notices))
	for _, notice := range notices {
		responses = append(responses, noticeToResponse(notice))
	}
	return responses
}
