package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnhub-backend/internal/models"
)

type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

func (r *HistoryRepo) AddQuizResult(ctx context.Context, q *models.QuizResult) error {
	q.ID = uuid.New()
	if q.TotalQuestions > 0 {
		q.ScorePercent = float64(q.Score) / float64(q.TotalQuestions) * 100
	}

	query := `INSERT INTO quiz_results (id, user_id, topic, score, total_questions, score_percent)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING taken_at`

	return r.pool.QueryRow(ctx, query,
		q.ID, q.UserID, q.Topic, q.Score, q.TotalQuestions, q.ScorePercent,
	).Scan(&q.TakenAt)
}

func (r *HistoryRepo) ListQuizResults(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizResult, error) {
	query := `SELECT id, user_id, topic, score, total_questions, score_percent, taken_at
		FROM quiz_results WHERE user_id = $1 ORDER BY taken_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.QuizResult
	for rows.Next() {
		q := &models.QuizResult{}
		err := rows.Scan(&q.ID, &q.UserID, &q.Topic, &q.Score, &q.TotalQuestions, &q.ScorePercent, &q.TakenAt)
		if err != nil {
			return nil, err
		}
		results = append(results, q)
	}
	return results, nil
}

func (r *HistoryRepo) AddTopicStudy(ctx context.Context, t *models.TopicStudy) error {
	t.ID = uuid.New()

	query := `INSERT INTO topic_history (id, user_id, topic, source)
		VALUES ($1, $2, $3, $4) RETURNING studied_at`

	return r.pool.QueryRow(ctx, query, t.ID, t.UserID, t.Topic, t.Source).Scan(&t.StudiedAt)
}

func (r *HistoryRepo) ListTopicStudies(ctx context.Context, userID uuid.UUID, limit int) ([]*models.TopicStudy, error) {
	query := `SELECT id, user_id, topic, source, studied_at
		FROM topic_history WHERE user_id = $1 ORDER BY studied_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []*models.TopicStudy
	for rows.Next() {
		t := &models.TopicStudy{}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Topic, &t.Source, &t.StudiedAt); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, nil
}

func (r *HistoryRepo) AddChatLog(ctx context.Context, c *models.ChatLog) error {
	c.ID = uuid.New()

	query := `INSERT INTO chat_logs (id, user_id, topic, message, reply)
		VALUES ($1, $2, $3, $4, $5) RETURNING asked_at`

	return r.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Topic, c.Message, c.Reply).Scan(&c.AskedAt)
}

func (r *HistoryRepo) ListChatLogs(ctx context.Context, userID uuid.UUID, limit int) ([]*models.ChatLog, error) {
	query := `SELECT id, user_id, topic, message, reply, asked_at
		FROM chat_logs WHERE user_id = $1 ORDER BY asked_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*models.ChatLog
	for rows.Next() {
		c := &models.ChatLog{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Topic, &c.Message, &c.Reply, &c.AskedAt); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, nil
}

func (r *HistoryRepo) GetStats(ctx context.Context, userID uuid.UUID) (*models.HistoryStats, error) {
	s := &models.HistoryStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM quiz_results WHERE user_id = $1) AS quizzes,
			(SELECT COUNT(*) FROM topic_history WHERE user_id = $1) AS topics,
			(SELECT COUNT(*) FROM chat_logs WHERE user_id = $1) AS chats,
			COALESCE((SELECT AVG(score_percent) FROM quiz_results WHERE user_id = $1), 0) AS average_score
	`, userID).Scan(&s.Quizzes, &s.Topics, &s.Chats, &s.AverageScore)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Clear wipes one history kind, or all of them when kind is empty.
func (r *HistoryRepo) Clear(ctx context.Context, userID uuid.UUID, kind string) error {
	tables := map[string]string{
		"quizzes": "quiz_results",
		"topics":  "topic_history",
		"chats":   "chat_logs",
	}

	if kind != "" {
		table, ok := tables[kind]
		if !ok {
			return fmt.Errorf("unknown history type %q", kind)
		}
		_, err := r.pool.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID)
		return err
	}

	for _, table := range tables {
		if _, err := r.pool.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID); err != nil {
			return err
		}
	}
	return nil
}
