package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/progress"
	"learnhub-backend/internal/repository"
)

type ProfileHandler struct {
	userRepo *repository.UserRepo
	store    *progress.Store
}

func NewProfileHandler(userRepo *repository.UserRepo, store *progress.Store) *ProfileHandler {
	return &ProfileHandler{userRepo: userRepo, store: store}
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		FullName  string  `json:"full_name"`
		AvatarURL *string `json:"avatar_url"`
		Bio       *string `json:"bio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.FullName == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"full_name": "Full name is required"}, r))
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load user", r))
		return
	}

	user.FullName = req.FullName
	user.AvatarURL = req.AvatarURL
	user.Bio = req.Bio

	if err := h.userRepo.Update(r.Context(), user); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update user", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	skills, err := h.store.Skills(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load skills", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"skills": skills})
}

// UpdateSkill decodes the level as float64 so NaN and infinities from a
// buggy client are caught before the int conversion.
func (h *ProfileHandler) UpdateSkill(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	skillName := chi.URLParam(r, "name")

	var req struct {
		Level float64 `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if skillName == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"name": "Skill name is required"}, r))
		return
	}
	if math.IsNaN(req.Level) || math.IsInf(req.Level, 0) {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"level": "Level must be a finite number"}, r))
		return
	}

	skill, err := h.store.UpdateSkillLevel(r.Context(), userID, skillName, int(req.Level))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update skill", r))
		return
	}

	writeJSON(w, http.StatusOK, skill)
}

func (h *ProfileHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	settings, err := h.userRepo.GetSettings(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Settings not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load settings", r))
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (h *ProfileHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	settings, err := h.userRepo.GetSettings(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load settings", r))
		return
	}

	if err := json.NewDecoder(r.Body).Decode(settings); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	settings.UserID = userID

	if settings.DefaultQuizLength < 1 || settings.DefaultQuizLength > 50 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"default_quiz_length": "Quiz length must be between 1 and 50"}, r))
		return
	}

	if err := h.userRepo.UpdateSettings(r.Context(), settings); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update settings", r))
		return
	}

	writeJSON(w, http.StatusOK, settings)
}
