package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/models"
	"learnhub-backend/internal/progress"
	"learnhub-backend/internal/services"
)

// memStorage is an in-memory progress.Storage for handler tests.
type memStorage struct {
	docs map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{docs: make(map[string][]byte)}
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	doc, ok := m.docs[key]
	if !ok {
		return nil, progress.ErrNotFound
	}
	return doc, nil
}

func (m *memStorage) Set(_ context.Context, key string, value []byte) error {
	m.docs[key] = value
	return nil
}

func (m *memStorage) SetMulti(_ context.Context, docs map[string][]byte) error {
	for key, value := range docs {
		m.docs[key] = value
	}
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// topicLog captures persisted topic studies in place of HistoryRepo.
type topicLog struct {
	entries []*models.TopicStudy
}

func (l *topicLog) AddTopicStudy(_ context.Context, t *models.TopicStudy) error {
	l.entries = append(l.entries, t)
	return nil
}

func authedRequest(method, target string, body []byte, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "test-request")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

// ─── Dashboard Handler Tests ───

func TestDashboardStats(t *testing.T) {
	store := progress.New(newMemStorage(), nil, nil)
	h := NewDashboardHandler(store, nil)
	userID := uuid.New()

	if err := store.ApplyQuizCompletion(context.Background(), userID, "algebra", 8, 10); err != nil {
		t.Fatalf("ApplyQuizCompletion failed: %v", err)
	}

	rr := httptest.NewRecorder()
	h.Stats(rr, authedRequest(http.MethodGet, "/api/v1/dashboard/stats", nil, userID))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var stats struct {
		QuizzesTaken  int `json:"quizzes_taken"`
		TotalXP       int `json:"total_xp"`
		Level         int `json:"level"`
		CurrentStreak int `json:"current_streak"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if stats.QuizzesTaken != 1 {
		t.Errorf("Expected 1 quiz taken, got %d", stats.QuizzesTaken)
	}
	if stats.TotalXP != 800 {
		t.Errorf("Expected 800 XP, got %d", stats.TotalXP)
	}
	if stats.Level != 1 {
		t.Errorf("Expected level 1, got %d", stats.Level)
	}
	if stats.CurrentStreak != 1 {
		t.Errorf("Expected streak 1, got %d", stats.CurrentStreak)
	}
}

func TestDashboardStatsColdStart(t *testing.T) {
	store := progress.New(newMemStorage(), nil, nil)
	h := NewDashboardHandler(store, nil)

	rr := httptest.NewRecorder()
	h.Stats(rr, authedRequest(http.MethodGet, "/api/v1/dashboard/stats", nil, uuid.New()))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var stats struct {
		Level         int `json:"level"`
		CurrentStreak int `json:"current_streak"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if stats.Level != 1 {
		t.Errorf("Expected default level 1, got %d", stats.Level)
	}
	if stats.CurrentStreak != 0 {
		t.Errorf("Expected streak 0 for a fresh user, got %d", stats.CurrentStreak)
	}
}

func TestDashboardActivityFeed(t *testing.T) {
	store := progress.New(newMemStorage(), nil, nil)
	h := NewDashboardHandler(store, nil)
	userID := uuid.New()

	store.TrackChat(context.Background(), userID, "recursion")
	store.TrackTopicStudy(context.Background(), userID, "goroutines")

	rr := httptest.NewRecorder()
	h.Activity(rr, authedRequest(http.MethodGet, "/api/v1/dashboard/activity", nil, userID))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp struct {
		Activities []progress.Activity `json:"activities"`
		Count      int                 `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Count != 2 {
		t.Fatalf("Expected 2 activities, got %d", resp.Count)
	}
	// Newest first
	if resp.Activities[0].Type != progress.ActivityTopicStudy {
		t.Errorf("Expected newest activity to be topic study, got %s", resp.Activities[0].Type)
	}
	if resp.Activities[1].Type != progress.ActivityChat {
		t.Errorf("Expected oldest activity to be chat, got %s", resp.Activities[1].Type)
	}
}

func TestDashboardWeeklyBucketsByClockDay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)}
	store := progress.New(newMemStorage(), clock, nil)
	h := NewDashboardHandler(store, clock)
	userID := uuid.New()

	store.TrackChat(context.Background(), userID, "pointers")

	// Next day: two more activities.
	clock.now = clock.now.AddDate(0, 0, 1)
	store.TrackChat(context.Background(), userID, "slices")
	store.TrackTopicStudy(context.Background(), userID, "maps")

	rr := httptest.NewRecorder()
	h.Weekly(rr, authedRequest(http.MethodGet, "/api/v1/dashboard/weekly", nil, userID))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp struct {
		Days []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"days"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(resp.Days) != 7 {
		t.Fatalf("Expected 7 day buckets, got %d", len(resp.Days))
	}
	today := resp.Days[6]
	if today.Date != "2024-03-11" {
		t.Errorf("Expected last bucket to be the clock's today, got %s", today.Date)
	}
	if today.Count != 2 {
		t.Errorf("Expected 2 activities today, got %d", today.Count)
	}
	yesterday := resp.Days[5]
	if yesterday.Date != "2024-03-10" || yesterday.Count != 1 {
		t.Errorf("Expected 1 activity on 2024-03-10, got %d on %s", yesterday.Count, yesterday.Date)
	}
}

// ─── Course Handler Tests ───

func TestSearchPersistsTopicStudy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"results":[],"count":0}`))
	}))
	defer upstream.Close()

	store := progress.New(newMemStorage(), nil, nil)
	history := &topicLog{}
	h := NewCourseHandler(services.NewRecommenderService(upstream.URL), nil, history, store)
	userID := uuid.New()

	rr := httptest.NewRecorder()
	h.Search(rr, authedRequest(http.MethodGet, "/api/v1/courses/search?q=linear+algebra", nil, userID))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if len(history.entries) != 1 {
		t.Fatalf("Expected 1 persisted topic study, got %d", len(history.entries))
	}
	entry := history.entries[0]
	if entry.Topic != "linear algebra" {
		t.Errorf("Expected topic 'linear algebra', got %q", entry.Topic)
	}
	if entry.Source != "search" {
		t.Errorf("Expected source 'search', got %q", entry.Source)
	}
	if entry.UserID != userID {
		t.Errorf("Expected topic study recorded for the requesting user")
	}

	activities, _ := store.List(context.Background(), userID)
	if len(activities) != 1 || activities[0].Type != progress.ActivityTopicStudy {
		t.Errorf("Expected a topic study activity alongside the history row")
	}
}

// ─── Study Session Handler Tests ───

// fakeSessionRepo closes the session on the first Stop only, as the
// Postgres-backed repository does.
type fakeSessionRepo struct {
	session *models.StudySession
	stops   int
}

func (f *fakeSessionRepo) Start(_ context.Context, s *models.StudySession) error {
	s.ID = f.session.ID
	return nil
}

func (f *fakeSessionRepo) Heartbeat(_ context.Context, _, _ uuid.UUID) error { return nil }

func (f *fakeSessionRepo) Stop(_ context.Context, _, _ uuid.UUID) (*models.StudySession, bool, error) {
	f.stops++
	return f.session, f.stops == 1, nil
}

func TestStopSessionTwiceCountsMinutesOnce(t *testing.T) {
	store := progress.New(newMemStorage(), nil, nil)
	history := &topicLog{}
	userID := uuid.New()
	session := &models.StudySession{ID: uuid.New(), UserID: userID, Topic: "calculus", DurationMin: 30}
	h := NewStudySessionHandler(&fakeSessionRepo{session: session}, history, store)

	for i := 0; i < 2; i++ {
		req := authedRequest(http.MethodPut, "/api/v1/study-sessions/"+session.ID.String()+"/stop", nil, userID)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", session.ID.String())
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		rr := httptest.NewRecorder()
		h.Stop(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("Stop %d: expected 200, got %d: %s", i+1, rr.Code, rr.Body.String())
		}
	}

	stats, _ := store.Stats(context.Background(), userID)
	if stats.StudyMinutes != 30 {
		t.Errorf("Expected 30 study minutes after a repeated stop, got %d", stats.StudyMinutes)
	}

	activities, _ := store.List(context.Background(), userID)
	if len(activities) != 1 {
		t.Errorf("Expected 1 topic activity, got %d", len(activities))
	}
	if len(history.entries) != 1 {
		t.Errorf("Expected 1 persisted topic study, got %d", len(history.entries))
	}
}

// ─── Profile Handler Tests ───

func TestUpdateSkillClampsLevel(t *testing.T) {
	store := progress.New(newMemStorage(), nil, nil)
	h := NewProfileHandler(nil, store)
	userID := uuid.New()

	body, _ := json.Marshal(map[string]float64{"level": 150})
	req := authedRequest(http.MethodPut, "/api/v1/user/skills/golang", body, userID)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", "golang")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h.UpdateSkill(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var skill progress.Skill
	if err := json.NewDecoder(rr.Body).Decode(&skill); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if skill.Level != 100 {
		t.Errorf("Expected level clamped to 100, got %d", skill.Level)
	}
	if skill.Name != "golang" {
		t.Errorf("Expected skill name 'golang', got %q", skill.Name)
	}
}

func TestUpdateSkillRejectsBadBody(t *testing.T) {
	store := progress.New(newMemStorage(), nil, nil)
	h := NewProfileHandler(nil, store)

	req := authedRequest(http.MethodPut, "/api/v1/user/skills/golang", []byte(`{"level":"high"}`), uuid.New())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", "golang")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	h.UpdateSkill(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rr.Code)
	}
}

// ─── Error Envelope Tests ───

func TestHandleServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "bad"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "taken"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "gone"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "no"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"upstream", &services.UpstreamError{Service: "quiz", Err: errors.New("down")}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "req-123")

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp struct {
				Error struct {
					Code      string `json:"code"`
					RequestID string `json:"request_id"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-123" {
				t.Errorf("Expected request ID echoed back, got %q", resp.Error.RequestID)
			}
		})
	}
}
