package services

import (
	"context"
	"encoding/json"

	"learnhub-backend/internal/models"
)

type RoadmapService struct {
	client upstreamClient
}

func NewRoadmapService(baseURL string) *RoadmapService {
	return &RoadmapService{client: newUpstreamClient("roadmap", baseURL)}
}

// Generate asks the roadmap service for a learning plan. The plan comes
// back as free-form JSON that we store untouched.
func (s *RoadmapService) Generate(ctx context.Context, topic string) (json.RawMessage, error) {
	var resp struct {
		Success bool            `json:"success"`
		Roadmap json.RawMessage `json:"roadmap"`
		Topic   string          `json:"topic"`
	}
	body := map[string]string{"topic": topic}
	if err := s.client.postJSON(ctx, "/api/generate", body, &resp); err != nil {
		return nil, err
	}
	return resp.Roadmap, nil
}

func (s *RoadmapService) Templates(ctx context.Context) ([]models.RoadmapTemplate, error) {
	var resp struct {
		Success   bool                     `json:"success"`
		Templates []models.RoadmapTemplate `json:"templates"`
	}
	if err := s.client.getJSON(ctx, "/api/templates", &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

func (s *RoadmapService) Template(ctx context.Context, id string) (json.RawMessage, error) {
	var resp struct {
		Success  bool            `json:"success"`
		Template json.RawMessage `json:"template"`
	}
	if err := s.client.getJSON(ctx, "/api/template/"+id, &resp); err != nil {
		return nil, err
	}
	return resp.Template, nil
}
