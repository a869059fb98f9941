// Package progress owns the learner's persisted activity feed and derived
// statistics: the bounded newest-first activity history, the daily streak,
// XP/level, and the per-skill proficiency entries. It has no networking and
// no UI concerns; callers record facts and read aggregates.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// maxActivities bounds the retained history; the oldest entries beyond
	// the bound are discarded on every write.
	maxActivities = 50

	// dateLayout is the day-granularity format persisted in
	// Stats.LastActivityDate. Streak comparisons are string equality on
	// this layout, so two instants on the same calendar day compare equal.
	dateLayout = "Mon Jan 02 2006"
)

var ErrInvalidActivity = errors.New("progress: invalid activity")

// Store is the activity and progress store for all users, keyed by user ID in
// the underlying storage. Every read-modify-write runs as one critical
// section behind a mutex, which removes the lost-update race between
// overlapping request handlers in a single process. Multiple server processes
// sharing one storage backend are not coordinated; that matches the source
// system and is a documented gap.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	clock    Clock
	notifier Notifier
}

// New builds a store. notifier may be nil.
func New(storage Storage, clock Clock, notifier Notifier) *Store {
	if clock == nil {
		clock = SystemClock()
	}
	return &Store{storage: storage, clock: clock, notifier: notifier}
}

func activitiesKey(userID uuid.UUID) string { return "activities:" + userID.String() }
func statsKey(userID uuid.UUID) string      { return "stats:" + userID.String() }
func skillsKey(userID uuid.UUID) string     { return "skills:" + userID.String() }

// Record appends a new activity for the user and advances the streak using
// the current clock instant. The returned activity carries its generated ID
// and timestamp. Invalid input is rejected before anything is persisted.
func (s *Store) Record(ctx context.Context, userID uuid.UUID, typ ActivityType, title, description, icon string, meta *Metadata) (Activity, error) {
	if !typ.Valid() {
		return Activity{}, fmt.Errorf("%w: unknown type %q", ErrInvalidActivity, typ)
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" || strings.TrimSpace(icon) == "" {
		return Activity{}, fmt.Errorf("%w: title, description and icon are required", ErrInvalidActivity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	activity := Activity{
		ID:          uuid.NewString(),
		Type:        typ,
		Title:       title,
		Description: description,
		Timestamp:   s.clock.Now(),
		Icon:        icon,
		Metadata:    meta,
	}

	docs := make(map[string][]byte, 2)
	actRaw, err := s.stageActivityLocked(ctx, userID, activity)
	if err != nil {
		return Activity{}, err
	}
	docs[activitiesKey(userID)] = actRaw

	stats := s.loadStatsLocked(ctx, userID)
	streakChanged := applyStreak(&stats, activity.Timestamp)
	if streakChanged {
		statsRaw, err := marshalStats(stats)
		if err != nil {
			return Activity{}, err
		}
		docs[statsKey(userID)] = statsRaw
	}

	if err := s.storage.SetMulti(ctx, docs); err != nil {
		return Activity{}, err
	}
	if streakChanged {
		s.notifyLocked(ctx, userID, stats)
	}

	return activity, nil
}

// List returns the user's activities, newest first. A missing or unparseable
// document reads as an empty history, never an error.
func (s *Store) List(ctx context.Context, userID uuid.UUID) ([]Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadActivitiesLocked(ctx, userID), nil
}

// Stats returns the user's statistics, falling back to zero-value defaults
// (level 1) when nothing is stored or the document is corrupt.
func (s *Store) Stats(ctx context.Context, userID uuid.UUID) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStatsLocked(ctx, userID), nil
}

// UpdateStreak runs the day-granularity streak state machine against the
// current clock instant and returns the resulting streak. Calling it any
// number of times within one calendar day is a no-op after the first call.
func (s *Store) UpdateStreak(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStatsLocked(ctx, userID)
	if applyStreak(&stats, s.clock.Now()) {
		if err := s.saveStatsLocked(ctx, userID, stats); err != nil {
			return stats.CurrentStreak, err
		}
		s.notifyLocked(ctx, userID, stats)
	}
	return stats.CurrentStreak, nil
}

// CheckStreak returns the current streak, refreshing it first when the last
// recorded activity day is not today. Unlike UpdateStreak it never writes
// when the user is already active today.
func (s *Store) CheckStreak(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStatsLocked(ctx, userID)
	today := s.clock.Now().Format(dateLayout)
	if stats.LastActivityDate == today {
		return stats.CurrentStreak, nil
	}
	if applyStreak(&stats, s.clock.Now()) {
		if err := s.saveStatsLocked(ctx, userID, stats); err != nil {
			return stats.CurrentStreak, err
		}
		s.notifyLocked(ctx, userID, stats)
	}
	return stats.CurrentStreak, nil
}

// ApplyQuizCompletion counts a finished quiz: quizzesTaken+1, XP from the
// score percentage (floor(pct*10), zero when totalQuestions is zero), level
// recomputed in the same write, and a quiz activity that advances the streak.
func (s *Store) ApplyQuizCompletion(ctx context.Context, userID uuid.UUID, topic string, score, totalQuestions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	stats := s.loadStatsLocked(ctx, userID)
	stats.QuizzesTaken++
	stats.TotalXP += quizXP(score, totalQuestions)
	stats.Level = levelForXP(stats.TotalXP)
	applyStreak(&stats, now)
	statsRaw, err := marshalStats(stats)
	if err != nil {
		return err
	}

	scoreText := ""
	if totalQuestions > 0 {
		scoreText = fmt.Sprintf(" (%d/%d correct)", score, totalQuestions)
	}
	activity := Activity{
		ID:          uuid.NewString(),
		Type:        ActivityQuiz,
		Title:       titleQuiz,
		Description: fmt.Sprintf("Took a quiz on %q%s", topic, scoreText),
		Timestamp:   now,
		Icon:        iconQuiz,
		Metadata:    &Metadata{Score: &score, TotalQuestions: &totalQuestions, Topic: topic},
	}
	actRaw, err := s.stageActivityLocked(ctx, userID, activity)
	if err != nil {
		return err
	}

	if err := s.storage.SetMulti(ctx, map[string][]byte{
		statsKey(userID):      statsRaw,
		activitiesKey(userID): actRaw,
	}); err != nil {
		return err
	}

	s.notifyLocked(ctx, userID, stats)
	return nil
}

// ApplyCourseCompletion counts a finished course and records a course
// activity. It does not deduplicate by course identity; callers decide when a
// completion is new (see repository.CourseRepo.MarkCompleted).
func (s *Store) ApplyCourseCompletion(ctx context.Context, userID uuid.UUID, courseTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	stats := s.loadStatsLocked(ctx, userID)
	stats.CoursesCompleted++
	applyStreak(&stats, now)
	statsRaw, err := marshalStats(stats)
	if err != nil {
		return err
	}

	activity := Activity{
		ID:          uuid.NewString(),
		Type:        ActivityCourse,
		Title:       titleCourse,
		Description: fmt.Sprintf("Finished %q", courseTitle),
		Timestamp:   now,
		Icon:        iconCourse,
		Metadata:    &Metadata{CourseTitle: courseTitle},
	}
	actRaw, err := s.stageActivityLocked(ctx, userID, activity)
	if err != nil {
		return err
	}

	if err := s.storage.SetMulti(ctx, map[string][]byte{
		statsKey(userID):      statsRaw,
		activitiesKey(userID): actRaw,
	}); err != nil {
		return err
	}

	s.notifyLocked(ctx, userID, stats)
	return nil
}

// AddStudyTime accrues study minutes (from closed study sessions) into the
// stats. StudyHours is derived from the minute counter in the same write.
func (s *Store) AddStudyTime(ctx context.Context, userID uuid.UUID, minutes int) error {
	if minutes <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := s.loadStatsLocked(ctx, userID)
	stats.StudyMinutes += minutes
	stats.StudyHours = stats.StudyMinutes / 60
	applyStreak(&stats, s.clock.Now())
	if err := s.saveStatsLocked(ctx, userID, stats); err != nil {
		return err
	}

	s.notifyLocked(ctx, userID, stats)
	return nil
}

// Skills returns the user's skill entries; missing or corrupt documents read
// as an empty list.
func (s *Store) Skills(ctx context.Context, userID uuid.UUID) ([]Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSkillsLocked(ctx, userID), nil
}

// UpdateSkillLevel sets a skill to newLevel clamped to [0, 100], creating the
// entry when it does not exist, and records a skill_update activity.
func (s *Store) UpdateSkillLevel(ctx context.Context, userID uuid.UUID, skillName string, newLevel int) (Skill, error) {
	if strings.TrimSpace(skillName) == "" {
		return Skill{}, fmt.Errorf("%w: skill name is required", ErrInvalidActivity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	level := clampSkillLevel(newLevel)

	skills := s.loadSkillsLocked(ctx, userID)
	updated := Skill{Name: skillName, Level: level, LastUpdated: now}
	found := false
	for i := range skills {
		if skills[i].Name == skillName {
			skills[i] = updated
			found = true
			break
		}
	}
	if !found {
		skills = append(skills, updated)
	}
	skillsRaw, err := json.Marshal(skills)
	if err != nil {
		return Skill{}, fmt.Errorf("marshal skills: %w", err)
	}

	activity := Activity{
		ID:          uuid.NewString(),
		Type:        ActivitySkillUpdate,
		Title:       titleSkillUpdate,
		Description: fmt.Sprintf("Improved %s to level %d%%", skillName, level),
		Timestamp:   now,
		Icon:        iconSkillUpdate,
		Metadata:    &Metadata{SkillName: skillName, Level: &level},
	}
	actRaw, err := s.stageActivityLocked(ctx, userID, activity)
	if err != nil {
		return Skill{}, err
	}

	docs := map[string][]byte{
		skillsKey(userID):     skillsRaw,
		activitiesKey(userID): actRaw,
	}
	stats := s.loadStatsLocked(ctx, userID)
	streakChanged := applyStreak(&stats, now)
	if streakChanged {
		statsRaw, err := marshalStats(stats)
		if err != nil {
			return Skill{}, err
		}
		docs[statsKey(userID)] = statsRaw
	}

	if err := s.storage.SetMulti(ctx, docs); err != nil {
		return Skill{}, err
	}
	if streakChanged {
		s.notifyLocked(ctx, userID, stats)
	}

	return updated, nil
}

// applyStreak advances the streak state machine for the calendar day of now
// and reports whether stats changed. Same-day re-entry is a no-op so repeated
// activities within one day cannot inflate the streak.
func applyStreak(stats *Stats, now time.Time) bool {
	today := now.Format(dateLayout)
	if stats.LastActivityDate == today {
		return false
	}

	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)
	switch stats.LastActivityDate {
	case "":
		stats.CurrentStreak = 1
	case yesterday:
		stats.CurrentStreak++
	default:
		// Gap of two or more days.
		stats.CurrentStreak = 1
	}
	stats.LastActivityDate = today
	return true
}

// quizXP is floor(scorePercentage * 10) with a zero-question guard.
func quizXP(score, totalQuestions int) int {
	if totalQuestions <= 0 {
		return 0
	}
	pct := 100 * float64(score) / float64(totalQuestions)
	if pct < 0 {
		return 0
	}
	return int(pct * 10)
}

// Locked helpers. Readers degrade corrupt or missing documents to empty
// defaults. Operations touching more than one document marshal everything
// first and commit through a single SetMulti, so a failed write leaves every
// previous document untouched.

func (s *Store) loadActivitiesLocked(ctx context.Context, userID uuid.UUID) []Activity {
	raw, err := s.storage.Get(ctx, activitiesKey(userID))
	if err != nil {
		return []Activity{}
	}
	var activities []Activity
	if err := json.Unmarshal(raw, &activities); err != nil {
		return []Activity{}
	}
	return activities
}

// stageActivityLocked prepends the activity to the bounded history and
// returns the marshaled document without writing it.
func (s *Store) stageActivityLocked(ctx context.Context, userID uuid.UUID, activity Activity) ([]byte, error) {
	activities := append([]Activity{activity}, s.loadActivitiesLocked(ctx, userID)...)
	if len(activities) > maxActivities {
		activities = activities[:maxActivities]
	}

	raw, err := json.Marshal(activities)
	if err != nil {
		return nil, fmt.Errorf("marshal activities: %w", err)
	}
	return raw, nil
}

func (s *Store) loadStatsLocked(ctx context.Context, userID uuid.UUID) Stats {
	raw, err := s.storage.Get(ctx, statsKey(userID))
	if err != nil {
		return defaultStats()
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return defaultStats()
	}
	if stats.Level < 1 {
		stats.Level = levelForXP(stats.TotalXP)
	}
	return stats
}

func marshalStats(stats Stats) ([]byte, error) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	return raw, nil
}

func (s *Store) saveStatsLocked(ctx context.Context, userID uuid.UUID, stats Stats) error {
	raw, err := marshalStats(stats)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, statsKey(userID), raw)
}

func (s *Store) loadSkillsLocked(ctx context.Context, userID uuid.UUID) []Skill {
	raw, err := s.storage.Get(ctx, skillsKey(userID))
	if err != nil {
		return []Skill{}
	}
	var skills []Skill
	if err := json.Unmarshal(raw, &skills); err != nil {
		return []Skill{}
	}
	return skills
}

func (s *Store) notifyLocked(ctx context.Context, userID uuid.UUID, stats Stats) {
	if s.notifier != nil {
		s.notifier.StatsChanged(ctx, userID, stats)
	}
}
