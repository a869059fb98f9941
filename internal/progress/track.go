package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Convenience recorders with the fixed title/icon per activity type. Quiz and
// course activities are written by ApplyQuizCompletion/ApplyCourseCompletion
// because they mutate counters in the same critical section.

func (s *Store) TrackChat(ctx context.Context, userID uuid.UUID, topic string) (Activity, error) {
	return s.Record(ctx, userID, ActivityChat, titleChat,
		fmt.Sprintf("Had a conversation with AI about %q", topic),
		iconChat, &Metadata{Topic: topic})
}

func (s *Store) TrackFileUpload(ctx context.Context, userID uuid.UUID, fileName, fileType string) (Activity, error) {
	return s.Record(ctx, userID, ActivityFileUpload, titleFileUpload,
		fmt.Sprintf("Uploaded %s file: %q", fileType, fileName),
		iconFileUpload, &Metadata{FileName: fileName})
}

func (s *Store) TrackTopicStudy(ctx context.Context, userID uuid.UUID, topic string) (Activity, error) {
	return s.Record(ctx, userID, ActivityTopicStudy, titleTopicStudy,
		fmt.Sprintf("Learned about %q", topic),
		iconTopicStudy, &Metadata{Topic: topic})
}

func (s *Store) TrackTopicStudyWithDuration(ctx context.Context, userID uuid.UUID, topic string, minutes int) (Activity, error) {
	return s.Record(ctx, userID, ActivityTopicStudy, titleTopicStudy,
		fmt.Sprintf("Learned about %q (%d minutes)", topic, minutes),
		iconTopicStudy, &Metadata{Topic: topic, DurationMin: &minutes})
}

func (s *Store) TrackAchievement(ctx context.Context, userID uuid.UUID, achievement string) (Activity, error) {
	return s.Record(ctx, userID, ActivityAchievement, titleAchievement,
		"Earned: "+achievement,
		iconAchievement, nil)
}
