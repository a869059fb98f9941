package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is a recommendation entry as returned by the course search service.
type Course struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Level       string   `json:"level,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Source      string   `json:"source,omitempty"`
	URL         *string  `json:"url"`
}

type RecommendRequest struct {
	Interests []string `json:"interests"`
}

type CompleteCourseRequest struct {
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
}

type CompletedCourse struct {
	UserID      uuid.UUID `json:"user_id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}
