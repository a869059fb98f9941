package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage is an in-memory Storage for tests. failNextSet makes the next
// write fail without touching any stored document; failPrefix rejects every
// commit that touches a matching key.
type memStorage struct {
	docs        map[string][]byte
	failNextSet bool
	failPrefix  string
}

func newMemStorage() *memStorage {
	return &memStorage{docs: make(map[string][]byte)}
}

func (m *memStorage) Get(_ context.Context, key string) ([]byte, error) {
	doc, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (m *memStorage) Set(_ context.Context, key string, value []byte) error {
	if m.failNextSet {
		m.failNextSet = false
		return errors.New("storage full")
	}
	if m.failPrefix != "" && strings.HasPrefix(key, m.failPrefix) {
		return errors.New("storage full")
	}
	m.docs[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStorage) SetMulti(_ context.Context, docs map[string][]byte) error {
	if m.failNextSet {
		m.failNextSet = false
		return errors.New("storage full")
	}
	for key := range docs {
		if m.failPrefix != "" && strings.HasPrefix(key, m.failPrefix) {
			return errors.New("storage full")
		}
	}
	for key, value := range docs {
		m.docs[key] = append([]byte(nil), value...)
	}
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advanceDays(days int) { c.now = c.now.AddDate(0, 0, days) }

func newTestStore(t *testing.T) (*Store, *memStorage, *fakeClock) {
	t.Helper()
	storage := newMemStorage()
	clock := &fakeClock{now: time.Date(2024, time.January, 1, 9, 30, 0, 0, time.UTC)}
	return New(storage, clock, nil), storage, clock
}

func TestRecordColdStart(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	activity, err := store.Record(ctx, userID, ActivityTopicStudy, "Studied Topic", `Learned about "Go"`, "📚", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, activity.ID)
	assert.Equal(t, ActivityTopicStudy, activity.Type)

	stats, err := store.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 0, stats.CoursesCompleted)
	assert.Equal(t, 0, stats.QuizzesTaken)
	assert.Equal(t, 0, stats.TotalXP)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, "Mon Jan 01 2024", stats.LastActivityDate)
}

func TestRecordRejectsInvalidInput(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := store.Record(ctx, userID, ActivityType("walk"), "t", "d", "i", nil)
	assert.ErrorIs(t, err, ErrInvalidActivity)

	_, err = store.Record(ctx, userID, ActivityChat, "", "d", "i", nil)
	assert.ErrorIs(t, err, ErrInvalidActivity)

	// Nothing was persisted.
	assert.Empty(t, storage.docs)
}

func TestListBoundedHistoryNewestFirst(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 60; i++ {
		_, err := store.Record(ctx, userID, ActivityChat, "AI Chat Session",
			fmt.Sprintf("conversation %d", i), "💬", nil)
		require.NoError(t, err)
	}

	activities, err := store.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, activities, 50)

	// The 50 most recent insertions survive, newest first.
	assert.Equal(t, "conversation 59", activities[0].Description)
	assert.Equal(t, "conversation 10", activities[49].Description)
}

func TestListEmptyAndCorrupt(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	activities, err := store.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, activities)

	storage.docs[activitiesKey(userID)] = []byte("{not json")
	activities, err = store.List(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestStatsCorruptDocumentReadsAsDefaults(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	storage.docs[statsKey(userID)] = []byte("][")

	stats, err := store.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 1, stats.Level)
	assert.Empty(t, stats.LastActivityDate)
}

func TestUpdateStreakSameDayIdempotent(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := store.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	for i := 0; i < 5; i++ {
		streak, err := store.UpdateStreak(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, streak)
	}

	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, "Mon Jan 01 2024", stats.LastActivityDate)
}

func TestUpdateStreakConsecutiveDays(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	for day := 1; day <= 7; day++ {
		streak, err := store.UpdateStreak(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, day, streak)
		clock.advanceDays(1)
	}
}

func TestUpdateStreakLapseResets(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	// Build a 3-day streak ending Jan 1.
	clock.now = clock.now.AddDate(0, 0, -2)
	for i := 0; i < 3; i++ {
		_, err := store.UpdateStreak(ctx, userID)
		require.NoError(t, err)
		clock.advanceDays(1)
	}

	// Jan 2: consecutive day increments.
	streak, err := store.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)

	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, "Tue Jan 02 2024", stats.LastActivityDate)

	// Second call the same day: unchanged.
	streak, err = store.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)

	// Jan 5: gap of two days resets to 1.
	clock.advanceDays(3)
	streak, err = store.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	stats, _ = store.Stats(ctx, userID)
	assert.Equal(t, "Fri Jan 05 2024", stats.LastActivityDate)
}

func TestCheckStreakDoesNotWriteWhenActiveToday(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := store.UpdateStreak(ctx, userID)
	require.NoError(t, err)

	// A failing write would surface if CheckStreak wrote on a same-day call.
	storage.failNextSet = true
	streak, err := store.CheckStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
	assert.True(t, storage.failNextSet, "CheckStreak must not write when already active today")
}

func TestCheckStreakRefreshesAcrossDayBoundary(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := store.UpdateStreak(ctx, userID)
	require.NoError(t, err)

	clock.advanceDays(1)
	streak, err := store.CheckStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestApplyQuizCompletionXPAndLevel(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	// 8/10 => 80% => 800 XP.
	require.NoError(t, store.ApplyQuizCompletion(ctx, userID, "Algorithms", 8, 10))
	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, 1, stats.QuizzesTaken)
	assert.Equal(t, 800, stats.TotalXP)
	assert.Equal(t, 1, stats.Level)

	// Every write keeps level == totalXP/1000 + 1.
	for i := 0; i < 5; i++ {
		require.NoError(t, store.ApplyQuizCompletion(ctx, userID, "Algorithms", 9, 10))
		stats, _ = store.Stats(ctx, userID)
		assert.Equal(t, stats.TotalXP/1000+1, stats.Level)
	}
	assert.Equal(t, 6, stats.QuizzesTaken)
	assert.Equal(t, 800+5*900, stats.TotalXP)
	assert.Equal(t, 6, stats.Level)

	// The quiz activity was recorded with its metadata.
	activities, _ := store.List(ctx, userID)
	require.NotEmpty(t, activities)
	newest := activities[0]
	assert.Equal(t, ActivityQuiz, newest.Type)
	assert.Equal(t, "Completed Quiz", newest.Title)
	require.NotNil(t, newest.Metadata)
	assert.Equal(t, 9, *newest.Metadata.Score)
	assert.Equal(t, 10, *newest.Metadata.TotalQuestions)
	assert.Equal(t, "Algorithms", newest.Metadata.Topic)
}

func TestApplyQuizCompletionZeroQuestionsGuard(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.ApplyQuizCompletion(ctx, userID, "Empty", 0, 0))

	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, 1, stats.QuizzesTaken)
	assert.Equal(t, 0, stats.TotalXP)
	assert.Equal(t, 1, stats.Level)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestApplyCourseCompletion(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.ApplyCourseCompletion(ctx, userID, "Intro to Go"))

	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, 1, stats.CoursesCompleted)
	assert.Equal(t, 1, stats.CurrentStreak)

	activities, _ := store.List(ctx, userID)
	require.Len(t, activities, 1)
	assert.Equal(t, ActivityCourse, activities[0].Type)
	assert.Equal(t, `Finished "Intro to Go"`, activities[0].Description)
}

func TestAddStudyTimeDerivesHours(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.AddStudyTime(ctx, userID, 45))
	require.NoError(t, store.AddStudyTime(ctx, userID, 90))

	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, 135, stats.StudyMinutes)
	assert.Equal(t, 2, stats.StudyHours)

	// Non-positive durations are ignored.
	require.NoError(t, store.AddStudyTime(ctx, userID, 0))
	require.NoError(t, store.AddStudyTime(ctx, userID, -10))
	stats, _ = store.Stats(ctx, userID)
	assert.Equal(t, 135, stats.StudyMinutes)
}

func TestUpdateSkillLevelClampsAndRecords(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	skill, err := store.UpdateSkillLevel(ctx, userID, "Python", 120)
	require.NoError(t, err)
	assert.Equal(t, 100, skill.Level)

	skill, err = store.UpdateSkillLevel(ctx, userID, "Python", -5)
	require.NoError(t, err)
	assert.Equal(t, 0, skill.Level)

	skills, err := store.Skills(ctx, userID)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "Python", skills[0].Name)
	assert.Equal(t, 0, skills[0].Level)

	activities, _ := store.List(ctx, userID)
	require.Len(t, activities, 2)
	assert.Equal(t, ActivitySkillUpdate, activities[0].Type)
}

func TestWriteFailureLeavesPriorStateIntact(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := store.Record(ctx, userID, ActivityChat, "AI Chat Session", "first", "💬", nil)
	require.NoError(t, err)

	storage.failNextSet = true
	_, err = store.Record(ctx, userID, ActivityChat, "AI Chat Session", "second", "💬", nil)
	require.Error(t, err)

	activities, _ := store.List(ctx, userID)
	require.Len(t, activities, 1)
	assert.Equal(t, "first", activities[0].Description)
}

func TestRecordStatsWriteFailurePersistsNoActivity(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	storage.failPrefix = "stats:"
	_, err := store.Record(ctx, userID, ActivityChat, "AI Chat Session", "hello", "💬", nil)
	require.Error(t, err)

	// A first-of-the-day record moves the streak too; when that part of the
	// commit fails, the activity must not stick either.
	activities, _ := store.List(ctx, userID)
	assert.Empty(t, activities)
	assert.Empty(t, storage.docs)
}

func TestApplyQuizCompletionFailureLeavesCountersAndFeedConsistent(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, store.ApplyQuizCompletion(ctx, userID, "Go", 5, 10))

	storage.failNextSet = true
	require.Error(t, store.ApplyQuizCompletion(ctx, userID, "Go", 10, 10))

	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, 1, stats.QuizzesTaken)
	assert.Equal(t, 500, stats.TotalXP)

	activities, _ := store.List(ctx, userID)
	require.Len(t, activities, 1)
}

func TestApplyCourseCompletionActivityWriteFailureKeepsCounters(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	storage.failPrefix = "activities:"
	require.Error(t, store.ApplyCourseCompletion(ctx, userID, "Intro to Go"))

	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, 0, stats.CoursesCompleted)
	assert.Equal(t, 0, stats.CurrentStreak)
}

func TestUpdateSkillLevelWriteFailurePersistsNothing(t *testing.T) {
	store, storage, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	storage.failNextSet = true
	_, err := store.UpdateSkillLevel(ctx, userID, "Python", 40)
	require.Error(t, err)

	skills, _ := store.Skills(ctx, userID)
	assert.Empty(t, skills)
	activities, _ := store.List(ctx, userID)
	assert.Empty(t, activities)
}

func TestStreakExampleScenario(t *testing.T) {
	store, storage, clock := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	// Seed: streak 3, last active Mon Jan 01 2024.
	seed := Stats{CurrentStreak: 3, Level: 1, LastActivityDate: "Mon Jan 01 2024"}
	raw, err := json.Marshal(seed)
	require.NoError(t, err)
	storage.docs[statsKey(userID)] = raw

	clock.now = time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)
	streak, err := store.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)

	stats, _ := store.Stats(ctx, userID)
	assert.Equal(t, "Tue Jan 02 2024", stats.LastActivityDate)

	// Same day again: unchanged.
	streak, err = store.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)

	clock.now = time.Date(2024, time.January, 5, 8, 0, 0, 0, time.UTC)
	streak, err = store.UpdateStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	stats, _ = store.Stats(ctx, userID)
	assert.Equal(t, "Fri Jan 05 2024", stats.LastActivityDate)
}
