package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnhub-backend/internal/models"
)

type StudySessionRepo struct {
	pool *pgxpool.Pool
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool}
}

func (r *StudySessionRepo) Start(ctx context.Context, s *models.StudySession) error {
	// Close previous active session for the same user/topic (idempotent behavior)
	_, _ = r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET ended_at = NOW(),
			duration_min = GREATEST(0, LEAST(720, EXTRACT(EPOCH FROM (NOW() - started_at))::INT / 60)),
			last_seen_at = NOW()
		WHERE user_id = $1
		  AND topic = $2
		  AND ended_at IS NULL
	`, s.UserID, s.Topic)

	query := `
		INSERT INTO study_sessions (user_id, topic)
		VALUES ($1, $2)
		RETURNING id, started_at, last_seen_at
	`

	return r.pool.QueryRow(ctx, query, s.UserID, s.Topic).Scan(
		&s.ID,
		&s.StartedAt,
		&s.LastSeenAt,
	)
}

func (r *StudySessionRepo) Heartbeat(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE study_sessions
		SET last_seen_at = NOW()
		WHERE id = $1
		  AND user_id = $2
		  AND ended_at IS NULL
	`, sessionID, userID)
	return err
}

// Stop ends the session and reports whether this call closed it. Stopping a
// session that already ended returns the stored row with closed=false so the
// caller never accrues its minutes twice. Duration is capped at 12 hours.
func (r *StudySessionRepo) Stop(ctx context.Context, sessionID, userID uuid.UUID) (*models.StudySession, bool, error) {
	s := &models.StudySession{}
	err := r.pool.QueryRow(ctx, `
		UPDATE study_sessions
		SET ended_at = NOW(),
			last_seen_at = NOW(),
			duration_min = GREATEST(0, LEAST(720, EXTRACT(EPOCH FROM (NOW() - started_at))::INT / 60))
		WHERE id = $1
		  AND user_id = $2
		  AND ended_at IS NULL
		RETURNING id, user_id, topic, started_at, last_seen_at, ended_at, duration_min
	`, sessionID, userID).Scan(
		&s.ID, &s.UserID, &s.Topic, &s.StartedAt, &s.LastSeenAt, &s.EndedAt, &s.DurationMin,
	)
	if err == nil {
		return s, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Already ended, or unknown id. The latter bubbles up as pgx.ErrNoRows.
	err = r.pool.QueryRow(ctx, `
		SELECT id, user_id, topic, started_at, last_seen_at, ended_at, duration_min
		FROM study_sessions
		WHERE id = $1
		  AND user_id = $2
	`, sessionID, userID).Scan(
		&s.ID, &s.UserID, &s.Topic, &s.StartedAt, &s.LastSeenAt, &s.EndedAt, &s.DurationMin,
	)
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}
