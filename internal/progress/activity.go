package progress

import (
	"time"
)

// ActivityType is the closed set of learner actions the store records.
type ActivityType string

const (
	ActivityQuiz        ActivityType = "quiz"
	ActivityCourse      ActivityType = "course"
	ActivityChat        ActivityType = "chat"
	ActivityFileUpload  ActivityType = "file_upload"
	ActivityTopicStudy  ActivityType = "topic_study"
	ActivityAchievement ActivityType = "achievement"
	ActivitySkillUpdate ActivityType = "skill_update"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityQuiz, ActivityCourse, ActivityChat, ActivityFileUpload,
		ActivityTopicStudy, ActivityAchievement, ActivitySkillUpdate:
		return true
	}
	return false
}

// Metadata is an open payload whose populated fields depend on the activity
// type. Readers must tolerate every field being absent.
type Metadata struct {
	Score          *int   `json:"score,omitempty"`
	TotalQuestions *int   `json:"total_questions,omitempty"`
	Topic          string `json:"topic,omitempty"`
	DurationMin    *int   `json:"duration_minutes,omitempty"`
	FileName       string `json:"file_name,omitempty"`
	SkillName      string `json:"skill_name,omitempty"`
	Level          *int   `json:"level,omitempty"`
	CourseTitle    string `json:"course_title,omitempty"`
}

// Activity is an immutable record of something the learner did.
type Activity struct {
	ID          string       `json:"id"`
	Type        ActivityType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Timestamp   time.Time    `json:"timestamp"`
	Icon        string       `json:"icon"`
	Metadata    *Metadata    `json:"metadata,omitempty"`
}

// Fixed title/icon pairs per activity type.
const (
	titleQuiz        = "Completed Quiz"
	iconQuiz         = "📝"
	titleCourse      = "Completed Course"
	iconCourse       = "🎓"
	titleChat        = "AI Chat Session"
	iconChat         = "💬"
	titleFileUpload  = "Uploaded File"
	iconFileUpload   = "📁"
	titleTopicStudy  = "Studied Topic"
	iconTopicStudy   = "📚"
	titleSkillUpdate = "Skill Improved"
	iconSkillUpdate  = "⚡"
	titleAchievement = "Achievement Unlocked"
	iconAchievement  = "🏆"
)
