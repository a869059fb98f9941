package services

import (
	"context"
	"net/url"

	"learnhub-backend/internal/models"
)

type RecommenderService struct {
	client upstreamClient
}

func NewRecommenderService(baseURL string) *RecommenderService {
	return &RecommenderService{client: newUpstreamClient("recommender", baseURL)}
}

func (s *RecommenderService) Topics(ctx context.Context) ([]string, error) {
	var resp struct {
		Success bool     `json:"success"`
		Topics  []string `json:"topics"`
	}
	if err := s.client.getJSON(ctx, "/api/topics", &resp); err != nil {
		return nil, err
	}
	return resp.Topics, nil
}

func (s *RecommenderService) Search(ctx context.Context, query string) ([]models.Course, error) {
	var resp struct {
		Success bool            `json:"success"`
		Results []models.Course `json:"results"`
		Count   int             `json:"count"`
	}
	path := "/api/search?q=" + url.QueryEscape(query)
	if err := s.client.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (s *RecommenderService) Recommend(ctx context.Context, interests []string) ([]models.Course, error) {
	var resp struct {
		Success         bool            `json:"success"`
		Recommendations []models.Course `json:"recommendations"`
		Count           int             `json:"count"`
		Interests       []string        `json:"interests"`
	}
	body := map[string]interface{}{"interests": interests}
	if err := s.client.postJSON(ctx, "/api/recommend", body, &resp); err != nil {
		return nil, err
	}
	return resp.Recommendations, nil
}
