package models

import (
	"time"

	"github.com/google/uuid"
)

// History entries back the profile's "what have I done" views. They are
// long-lived rows, unlike the bounded activity feed.

type QuizResult struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Topic          string    `json:"topic"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	ScorePercent   float64   `json:"score_percent"`
	TakenAt        time.Time `json:"taken_at"`
}

type TopicStudy struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Topic     string    `json:"topic"`
	Source    string    `json:"source"`
	StudiedAt time.Time `json:"studied_at"`
}

type ChatLog struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	Topic   string    `json:"topic"`
	Message string    `json:"message"`
	Reply   string    `json:"reply"`
	AskedAt time.Time `json:"asked_at"`
}

type HistoryStats struct {
	Quizzes      int     `json:"quizzes"`
	Topics       int     `json:"topics"`
	Chats        int     `json:"chats"`
	AverageScore float64 `json:"average_score"`
}
