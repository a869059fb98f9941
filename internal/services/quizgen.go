package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"learnhub-backend/internal/models"
)

type QuizGenService struct {
	client upstreamClient
}

func NewQuizGenService(baseURL string) *QuizGenService {
	return &QuizGenService{client: newUpstreamClient("quiz", baseURL)}
}

func (s *QuizGenService) Generate(ctx context.Context, req models.GenerateQuizRequest) (*models.GeneratedQuiz, error) {
	quiz := &models.GeneratedQuiz{}
	if err := s.client.postJSON(ctx, "/api/generate", req, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// GenerateFromFile streams an uploaded document to the quiz service as
// multipart form data. Parsing the document is the upstream's job.
func (s *QuizGenService) GenerateFromFile(ctx context.Context, fileName string, file io.Reader, numQuestions int) (*models.GeneratedQuiz, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, &UpstreamError{Service: s.client.name, Err: err}
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, &UpstreamError{Service: s.client.name, Err: err}
	}
	mw.WriteField("num_questions", fmt.Sprintf("%d", numQuestions))
	if err := mw.Close(); err != nil {
		return nil, &UpstreamError{Service: s.client.name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.baseURL+"/api/generate/file", &buf)
	if err != nil {
		return nil, &UpstreamError{Service: s.client.name, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	quiz := &models.GeneratedQuiz{}
	if err := s.client.do(req, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizGenService) Validate(ctx context.Context, req models.ValidateQuizRequest) (*models.ValidateQuizResponse, error) {
	result := &models.ValidateQuizResponse{}
	if err := s.client.postJSON(ctx, "/api/validate", req, result); err != nil {
		return nil, err
	}
	return result, nil
}
