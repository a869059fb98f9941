package progress

import "time"

const xpPerLevel = 1000

// Stats is the singleton aggregate of a learner's progress. Level and
// StudyHours are derived and recomputed by every writer that touches their
// inputs; they are never written independently.
type Stats struct {
	CoursesCompleted int    `json:"courses_completed"`
	StudyMinutes     int    `json:"study_minutes"`
	StudyHours       int    `json:"study_hours"`
	QuizzesTaken     int    `json:"quizzes_taken"`
	CurrentStreak    int    `json:"current_streak"`
	TotalXP          int    `json:"total_xp"`
	Level            int    `json:"level"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
}

func defaultStats() Stats {
	return Stats{Level: 1}
}

func levelForXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	return totalXP/xpPerLevel + 1
}

// Skill is a self-assessed proficiency entry, kept at 0–100.
type Skill struct {
	Name        string    `json:"name"`
	Level       int       `json:"level"`
	LastUpdated time.Time `json:"last_updated"`
}

const (
	skillLevelMin = 0
	skillLevelMax = 100
)

func clampSkillLevel(level int) int {
	if level < skillLevelMin {
		return skillLevelMin
	}
	if level > skillLevelMax {
		return skillLevelMax
	}
	return level
}
