package handlers

import (
	"net/http"

	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/progress"
)

// DashboardHandler shares a clock with the progress store so the weekly
// histogram's day boundaries line up with the streak machine's.
type DashboardHandler struct {
	store *progress.Store
	clock progress.Clock
}

func NewDashboardHandler(store *progress.Store, clock progress.Clock) *DashboardHandler {
	if clock == nil {
		clock = progress.SystemClock()
	}
	return &DashboardHandler{store: store, clock: clock}
}

// Stats refreshes the streak first so a lapsed streak never survives a
// dashboard load.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if _, err := h.store.CheckStreak(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to refresh streak", r))
		return
	}

	stats, err := h.store.Stats(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load stats", r))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	activities, err := h.store.List(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load activities", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
		"count":      len(activities),
	})
}

func (h *DashboardHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	streak, err := h.store.CheckStreak(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load streak", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"current_streak": streak})
}

// Weekly buckets the activity feed into the last seven days for the
// dashboard chart. The bounded feed caps how far back this can see, which
// is fine for a week view.
func (h *DashboardHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	activities, err := h.store.List(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load activities", r))
		return
	}

	type dayBucket struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	}

	now := h.clock.Now()
	days := make([]dayBucket, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, i-6)
		key := day.Format("2006-01-02")
		days[i] = dayBucket{Date: key}
		index[key] = i
	}

	for _, a := range activities {
		key := a.Timestamp.Format("2006-01-02")
		if i, ok := index[key]; ok {
			days[i].Count++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}
