package handlers

import (
	"net/http"
	"strconv"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/repository"
)

const defaultHistoryLimit = 50

type HistoryHandler struct {
	historyRepo *repository.HistoryRepo
}

func NewHistoryHandler(historyRepo *repository.HistoryRepo) *HistoryHandler {
	return &HistoryHandler{historyRepo: historyRepo}
}

func historyLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			return n
		}
	}
	return defaultHistoryLimit
}

func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.historyRepo.GetStats(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load history stats", r))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *HistoryHandler) Quizzes(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	results, err := h.historyRepo.ListQuizResults(r.Context(), userID, historyLimit(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz history", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quizzes": results,
		"count":   len(results),
	})
}

func (h *HistoryHandler) Topics(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	topics, err := h.historyRepo.ListTopicStudies(r.Context(), userID, historyLimit(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load topic history", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"topics": topics,
		"count":  len(topics),
	})
}

func (h *HistoryHandler) Chats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	chats, err := h.historyRepo.ListChatLogs(r.Context(), userID, historyLimit(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chat history", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chats": chats,
		"count": len(chats),
	})
}

// Clear wipes history rows. The ?type= query narrows it to one kind.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	kind := r.URL.Query().Get("type")

	if err := h.historyRepo.Clear(r.Context(), userID, kind); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared"})
}
