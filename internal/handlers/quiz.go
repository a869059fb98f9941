package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/models"
	"learnhub-backend/internal/progress"
	"learnhub-backend/internal/repository"
	"learnhub-backend/internal/services"
)

const maxUploadSize = 10 << 20 // 10 MB

type QuizHandler struct {
	quizGen     *services.QuizGenService
	historyRepo *repository.HistoryRepo
	jobRepo     *repository.JobRepo
	store       *progress.Store
	queue       *redis.Client
}

func NewQuizHandler(
	quizGen *services.QuizGenService,
	historyRepo *repository.HistoryRepo,
	jobRepo *repository.JobRepo,
	store *progress.Store,
	queue *redis.Client,
) *QuizHandler {
	return &QuizHandler{
		quizGen:     quizGen,
		historyRepo: historyRepo,
		jobRepo:     jobRepo,
		store:       store,
		queue:       queue,
	}
}

// Generate enqueues a quiz generation job. The finished quiz is picked up
// via Result once the websocket announces completion.
func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	if req.Source != "topic" && req.Source != "text" && req.Source != "url" {
		fieldErrors["type"] = "Type must be topic, text or url"
	}
	if req.Content == "" {
		fieldErrors["content"] = "Content is required"
	}
	if req.NumQuestions < 1 || req.NumQuestions > 50 {
		fieldErrors["num_questions"] = "Number of questions must be between 1 and 50"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	configBytes, _ := json.Marshal(req)
	job := &models.Job{
		UserID:      userID,
		Type:        "quiz-generation",
		ReferenceID: uuid.New(),
		ConfigJSON:  configBytes,
	}
	if err := h.jobRepo.Create(r.Context(), job); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create job", r))
		return
	}

	jobBytes, _ := json.Marshal(job)
	if err := h.queue.LPush(r.Context(), "queue:quiz-generation", string(jobBytes)).Err(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to enqueue job", r))
		return
	}

	if req.Source == "topic" {
		h.store.TrackTopicStudy(r.Context(), userID, req.Content)
		h.historyRepo.AddTopicStudy(r.Context(), &models.TopicStudy{UserID: userID, Topic: req.Content, Source: "quiz"})
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":    job.ID,
		"result_id": job.ReferenceID,
		"status":    "pending",
	})
}

// Result fetches a generated quiz by the result id handed out by Generate.
func (h *QuizHandler) Result(w http.ResponseWriter, r *http.Request) {
	resultID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid result ID", r))
		return
	}

	data, err := h.queue.Get(r.Context(), "quiz_result:"+resultID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not ready or expired", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GenerateFromFile is synchronous: document uploads are interactive and
// the upstream parses them in one call.
func (h *QuizHandler) GenerateFromFile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid or oversized upload", r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "File is required", r))
		return
	}
	defer file.Close()

	numQuestions := 10
	if v := r.FormValue("num_questions"); v != "" {
		var parsed int
		if err := json.Unmarshal([]byte(v), &parsed); err == nil && parsed >= 1 && parsed <= 50 {
			numQuestions = parsed
		}
	}

	quiz, err := h.quizGen.GenerateFromFile(r.Context(), header.Filename, file, numQuestions)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.store.TrackFileUpload(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"))

	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.quizGen.Validate(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Submit reports a finished quiz: stats, streak and XP move through the
// progress store, the long-lived result lands in Postgres.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	if req.Topic == "" {
		fieldErrors["topic"] = "Topic is required"
	}
	if req.TotalQuestions < 0 || req.Score < 0 || req.Score > req.TotalQuestions {
		fieldErrors["score"] = "Score must be between 0 and total_questions"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	if err := h.store.ApplyQuizCompletion(r.Context(), userID, req.Topic, req.Score, req.TotalQuestions); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update progress", r))
		return
	}

	result := &models.QuizResult{
		UserID:         userID,
		Topic:          req.Topic,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
	}
	if err := h.historyRepo.AddQuizResult(r.Context(), result); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to record result", r))
		return
	}

	stats, err := h.store.Stats(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load stats", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": result,
		"stats":  stats,
	})
}
