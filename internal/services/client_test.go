package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"learnhub-backend/internal/models"
)

func TestRecommenderRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recommend" {
			t.Errorf("Expected /api/recommend, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		var body struct {
			Interests []string `json:"interests"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		if len(body.Interests) != 2 || body.Interests[0] != "go" {
			t.Errorf("Unexpected interests: %v", body.Interests)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"recommendations": []map[string]interface{}{
				{"title": "Go Fundamentals", "level": "beginner"},
			},
			"count": 1,
		})
	}))
	defer srv.Close()

	svc := NewRecommenderService(srv.URL)
	courses, err := svc.Recommend(context.Background(), []string{"go", "databases"})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("Expected 1 course, got %d", len(courses))
	}
	if courses[0].Title != "Go Fundamentals" {
		t.Errorf("Expected 'Go Fundamentals', got %q", courses[0].Title)
	}
}

func TestRecommenderSearchEscapesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "machine learning" {
			t.Errorf("Expected query 'machine learning', got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"results":[],"count":0}`))
	}))
	defer srv.Close()

	svc := NewRecommenderService(srv.URL)
	if _, err := svc.Search(context.Background(), "machine learning"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
}

func TestUpstreamErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewTutorService(srv.URL)
	_, err := svc.Chat(context.Background(), "explain pointers")
	if err == nil {
		t.Fatal("Expected error for 503 response")
	}

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected UpstreamError, got %T", err)
	}
	if upstreamErr.Service != "tutor" {
		t.Errorf("Expected service 'tutor', got %q", upstreamErr.Service)
	}
}

func TestQuizGenValidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/validate" {
			t.Errorf("Expected /api/validate, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"score":7,"total":10,"score_percent":70,"results":[]}`))
	}))
	defer srv.Close()

	svc := NewQuizGenService(srv.URL)
	resp, err := svc.Validate(context.Background(), models.ValidateQuizRequest{})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if resp.Score != 7 || resp.Total != 10 {
		t.Errorf("Unexpected score %d/%d", resp.Score, resp.Total)
	}
}
