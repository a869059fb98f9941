package models

import (
	"time"

	"github.com/google/uuid"
)

type StudySession struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Topic       string     `json:"topic"`
	StartedAt   time.Time  `json:"started_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	DurationMin int        `json:"duration_min"`
}

type StartSessionRequest struct {
	Topic string `json:"topic"`
}
