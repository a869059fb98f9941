package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/models"
	"learnhub-backend/internal/progress"
	"learnhub-backend/internal/repository"
	"learnhub-backend/internal/services"
)

// topicRecorder persists studied topics for the history views, alongside the
// activity feed entry the progress store records.
type topicRecorder interface {
	AddTopicStudy(ctx context.Context, t *models.TopicStudy) error
}

type CourseHandler struct {
	recommender *services.RecommenderService
	courseRepo  *repository.CourseRepo
	history     topicRecorder
	store       *progress.Store
}

func NewCourseHandler(recommender *services.RecommenderService, courseRepo *repository.CourseRepo, history topicRecorder, store *progress.Store) *CourseHandler {
	return &CourseHandler{recommender: recommender, courseRepo: courseRepo, history: history, store: store}
}

func (h *CourseHandler) Topics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.recommender.Topics(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"topics": topics})
}

func (h *CourseHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Query parameter q is required", r))
		return
	}

	courses, err := h.recommender.Search(r.Context(), query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Searching counts as studying the topic
	userID := middleware.GetUserID(r.Context())
	h.store.TrackTopicStudy(r.Context(), userID, query)
	h.history.AddTopicStudy(r.Context(), &models.TopicStudy{UserID: userID, Topic: query, Source: "search"})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": courses,
		"count":   len(courses),
	})
}

func (h *CourseHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(req.Interests) == 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"interests": "At least one interest is required"}, r))
		return
	}

	courses, err := h.recommender.Recommend(r.Context(), req.Interests)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": courses,
		"count":           len(courses),
		"interests":       req.Interests,
	})
}

// Complete is idempotent per course: only the first completion updates
// dashboard stats, later calls answer with already_completed.
func (h *CourseHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CompleteCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.CourseID == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"course_id": "Course ID and title are required"}, r))
		return
	}

	isNew, err := h.courseRepo.MarkCompleted(r.Context(), userID, req.CourseID, req.Title)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record completion", r))
		return
	}

	if !isNew {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"completed":         true,
			"already_completed": true,
		})
		return
	}

	if err := h.store.ApplyCourseCompletion(r.Context(), userID, req.Title); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update progress", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"completed":         true,
		"already_completed": false,
	})
}

func (h *CourseHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	courses, err := h.courseRepo.ListCompleted(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load completed courses", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
		"count":   len(courses),
	})
}
