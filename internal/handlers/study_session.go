package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/models"
	"learnhub-backend/internal/progress"
)

// sessionStore is the subset of repository.StudySessionRepo the handler uses.
type sessionStore interface {
	Start(ctx context.Context, s *models.StudySession) error
	Heartbeat(ctx context.Context, sessionID, userID uuid.UUID) error
	Stop(ctx context.Context, sessionID, userID uuid.UUID) (*models.StudySession, bool, error)
}

type StudySessionHandler struct {
	sessionRepo sessionStore
	history     topicRecorder
	store       *progress.Store
}

func NewStudySessionHandler(sessionRepo sessionStore, history topicRecorder, store *progress.Store) *StudySessionHandler {
	return &StudySessionHandler{sessionRepo: sessionRepo, history: history, store: store}
}

func (h *StudySessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Topic == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"topic": "Topic is required"}, r))
		return
	}

	session := &models.StudySession{
		UserID: userID,
		Topic:  req.Topic,
	}
	if err := h.sessionRepo.Start(r.Context(), session); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start session", r))
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *StudySessionHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	if err := h.sessionRepo.Heartbeat(r.Context(), sessionID, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record heartbeat", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stop closes the session and folds its minutes into the study time counters.
// Only the call that actually ends the session accrues time; stopping again
// returns the stored row untouched.
func (h *StudySessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	session, closed, err := h.sessionRepo.Stop(r.Context(), sessionID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to stop session", r))
		return
	}

	if closed && session.DurationMin > 0 {
		h.store.AddStudyTime(r.Context(), userID, session.DurationMin)
		h.store.TrackTopicStudyWithDuration(r.Context(), userID, session.Topic, session.DurationMin)
		h.history.AddTopicStudy(r.Context(), &models.TopicStudy{UserID: userID, Topic: session.Topic, Source: "study-session"})
	}

	writeJSON(w, http.StatusOK, session)
}
