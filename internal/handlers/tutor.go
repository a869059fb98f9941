package handlers

import (
	"encoding/json"
	"net/http"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/models"
	"learnhub-backend/internal/progress"
	"learnhub-backend/internal/repository"
	"learnhub-backend/internal/services"
)

type TutorHandler struct {
	tutor       *services.TutorService
	historyRepo *repository.HistoryRepo
	store       *progress.Store
}

func NewTutorHandler(tutor *services.TutorService, historyRepo *repository.HistoryRepo, store *progress.Store) *TutorHandler {
	return &TutorHandler{tutor: tutor, historyRepo: historyRepo, store: store}
}

func (h *TutorHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Message string `json:"message"`
		Topic   string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"message": "Message is required"}, r))
		return
	}

	reply, err := h.tutor.Chat(r.Context(), req.Message)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.historyRepo.AddChatLog(r.Context(), &models.ChatLog{
		UserID:  userID,
		Topic:   req.Topic,
		Message: req.Message,
		Reply:   reply,
	})
	h.store.TrackChat(r.Context(), userID, req.Topic)

	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (h *TutorHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.tutor.Suggestions(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

func (h *TutorHandler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.tutor.Topics(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"topics": topics})
}
