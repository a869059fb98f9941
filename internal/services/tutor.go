package services

import "context"

type TutorService struct {
	client upstreamClient
}

func NewTutorService(baseURL string) *TutorService {
	return &TutorService{client: newUpstreamClient("tutor", baseURL)}
}

func (s *TutorService) Chat(ctx context.Context, message string) (string, error) {
	var resp struct {
		Success  bool   `json:"success"`
		Response string `json:"response"`
	}
	body := map[string]string{"message": message}
	if err := s.client.postJSON(ctx, "/api/chat", body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (s *TutorService) Suggestions(ctx context.Context) ([]string, error) {
	var resp struct {
		Success     bool     `json:"success"`
		Suggestions []string `json:"suggestions"`
	}
	if err := s.client.getJSON(ctx, "/api/suggestions", &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

func (s *TutorService) Topics(ctx context.Context) ([]string, error) {
	var resp struct {
		Success bool     `json:"success"`
		Topics  []string `json:"topics"`
	}
	if err := s.client.getJSON(ctx, "/api/topics", &resp); err != nil {
		return nil, err
	}
	return resp.Topics, nil
}
