package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Roadmap is a saved learning roadmap. The plan body is kept opaque: its
// shape is owned by the roadmap generation service.
type Roadmap struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"user_id"`
	Topic               string          `json:"topic"`
	PlanJSON            json.RawMessage `json:"plan"`
	MilestoneCount      int             `json:"milestone_count"`
	CompletedMilestones int             `json:"completed_milestones"`
	IsCompleted         bool            `json:"is_completed"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type GenerateRoadmapRequest struct {
	Topic          string `json:"topic"`
	MilestoneCount int    `json:"milestone_count,omitempty"`
}

type RoadmapTemplate struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
