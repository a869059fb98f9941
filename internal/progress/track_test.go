package progress

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackRecordersUseFixedTitlesAndIcons(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := store.TrackChat(ctx, userID, "Recursion")
	require.NoError(t, err)
	_, err = store.TrackFileUpload(ctx, userID, "notes.pdf", "PDF")
	require.NoError(t, err)
	_, err = store.TrackTopicStudy(ctx, userID, "Graphs")
	require.NoError(t, err)
	_, err = store.TrackAchievement(ctx, userID, "First Quiz")
	require.NoError(t, err)

	activities, err := store.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, activities, 4)

	// Newest first.
	assert.Equal(t, ActivityAchievement, activities[0].Type)
	assert.Equal(t, "Achievement Unlocked", activities[0].Title)
	assert.Equal(t, "🏆", activities[0].Icon)

	assert.Equal(t, ActivityTopicStudy, activities[1].Type)
	assert.Equal(t, "Graphs", activities[1].Metadata.Topic)

	assert.Equal(t, ActivityFileUpload, activities[2].Type)
	assert.Equal(t, `Uploaded PDF file: "notes.pdf"`, activities[2].Description)
	assert.Equal(t, "notes.pdf", activities[2].Metadata.FileName)

	assert.Equal(t, ActivityChat, activities[3].Type)
	assert.Equal(t, "💬", activities[3].Icon)
}

func TestTrackSameDayDoesNotInflateStreak(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 4; i++ {
		_, err := store.TrackTopicStudy(ctx, userID, "Go")
		require.NoError(t, err)
	}

	stats, err := store.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreak)
}
