package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/models"
	"learnhub-backend/internal/progress"
	"learnhub-backend/internal/repository"
	"learnhub-backend/internal/services"
)

type RoadmapHandler struct {
	roadmapSvc *services.RoadmapService
	courseRepo *repository.CourseRepo
	jobRepo    *repository.JobRepo
	history    topicRecorder
	store      *progress.Store
	queue      *redis.Client
}

func NewRoadmapHandler(
	roadmapSvc *services.RoadmapService,
	courseRepo *repository.CourseRepo,
	jobRepo *repository.JobRepo,
	history topicRecorder,
	store *progress.Store,
	queue *redis.Client,
) *RoadmapHandler {
	return &RoadmapHandler{
		roadmapSvc: roadmapSvc,
		courseRepo: courseRepo,
		jobRepo:    jobRepo,
		history:    history,
		store:      store,
		queue:      queue,
	}
}

func (h *RoadmapHandler) Templates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.roadmapSvc.Templates(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

func (h *RoadmapHandler) Template(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	template, err := h.roadmapSvc.Template(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"template": template})
}

// Generate creates a pending roadmap row and hands the slow upstream call
// to the worker pool. The client learns about completion over the
// websocket channel.
func (h *RoadmapHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.GenerateRoadmapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Topic == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"topic": "Topic is required"}, r))
		return
	}

	roadmap := &models.Roadmap{
		UserID: userID,
		Topic:  req.Topic,
	}
	if err := h.courseRepo.CreateRoadmap(r.Context(), roadmap); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create roadmap", r))
		return
	}

	configBytes, _ := json.Marshal(req)
	job := &models.Job{
		UserID:      userID,
		Type:        "roadmap-generation",
		ReferenceID: roadmap.ID,
		ConfigJSON:  configBytes,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.queue.LPush(r.Context(), "queue:roadmap-generation", string(jobBytes)).Err(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue job", r))
		return
	}

	// Asking for a roadmap counts as studying the topic
	h.store.TrackTopicStudy(r.Context(), userID, req.Topic)
	h.history.AddTopicStudy(r.Context(), &models.TopicStudy{UserID: userID, Topic: req.Topic, Source: "roadmap"})

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"roadmap_id": roadmap.ID,
		"job_id":     job.ID,
		"status":     "pending",
	})
}

func (h *RoadmapHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	roadmaps, err := h.courseRepo.ListRoadmaps(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load roadmaps", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roadmaps": roadmaps,
		"count":    len(roadmaps),
	})
}

func (h *RoadmapHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid roadmap ID", r))
		return
	}

	roadmap, err := h.courseRepo.GetRoadmap(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Roadmap not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load roadmap", r))
		return
	}

	writeJSON(w, http.StatusOK, roadmap)
}

// CompleteMilestone advances the roadmap. Finishing the last milestone
// counts as a course completion, deduplicated through the same table as
// regular courses.
func (h *RoadmapHandler) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid roadmap ID", r))
		return
	}

	roadmap, err := h.courseRepo.CompleteMilestone(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Roadmap not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update roadmap", r))
		return
	}

	h.store.TrackTopicStudy(r.Context(), userID, roadmap.Topic)
	h.history.AddTopicStudy(r.Context(), &models.TopicStudy{UserID: userID, Topic: roadmap.Topic, Source: "roadmap"})

	if roadmap.IsCompleted {
		isNew, err := h.courseRepo.MarkCompleted(r.Context(), userID, "roadmap:"+roadmap.ID.String(), roadmap.Topic)
		if err == nil && isNew {
			h.store.ApplyCourseCompletion(r.Context(), userID, roadmap.Topic)
		}
	}

	writeJSON(w, http.StatusOK, roadmap)
}

func (h *RoadmapHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid roadmap ID", r))
		return
	}

	if err := h.courseRepo.DeleteRoadmap(r.Context(), id, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete roadmap", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Roadmap deleted"})
}
