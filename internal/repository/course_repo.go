package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"learnhub-backend/internal/models"
)

type CourseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

// MarkCompleted records a course completion once per user. It reports
// whether the row was new, so repeat completions never inflate stats.
func (r *CourseRepo) MarkCompleted(ctx context.Context, userID uuid.UUID, courseID, title string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO completed_courses (user_id, course_id, title)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`, userID, courseID, title)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CourseRepo) ListCompleted(ctx context.Context, userID uuid.UUID) ([]*models.CompletedCourse, error) {
	query := `SELECT user_id, course_id, title, completed_at
		FROM completed_courses WHERE user_id = $1 ORDER BY completed_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*models.CompletedCourse
	for rows.Next() {
		c := &models.CompletedCourse{}
		if err := rows.Scan(&c.UserID, &c.CourseID, &c.Title, &c.CompletedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, nil
}

func (r *CourseRepo) CreateRoadmap(ctx context.Context, rm *models.Roadmap) error {
	rm.ID = uuid.New()
	planBytes := []byte(rm.PlanJSON)
	if len(planBytes) == 0 {
		planBytes = []byte("{}")
	}

	query := `INSERT INTO roadmaps (id, user_id, topic, plan_json, milestone_count)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		rm.ID, rm.UserID, rm.Topic, planBytes, rm.MilestoneCount,
	).Scan(&rm.CreatedAt, &rm.UpdatedAt)
}

func (r *CourseRepo) GetRoadmap(ctx context.Context, id, userID uuid.UUID) (*models.Roadmap, error) {
	rm := &models.Roadmap{}
	query := `SELECT id, user_id, topic, plan_json, milestone_count, completed_milestones, is_completed, created_at, updated_at
		FROM roadmaps WHERE id = $1 AND user_id = $2`

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&rm.ID, &rm.UserID, &rm.Topic, &rm.PlanJSON, &rm.MilestoneCount,
		&rm.CompletedMilestones, &rm.IsCompleted, &rm.CreatedAt, &rm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rm, nil
}

func (r *CourseRepo) ListRoadmaps(ctx context.Context, userID uuid.UUID) ([]*models.Roadmap, error) {
	query := `SELECT id, user_id, topic, plan_json, milestone_count, completed_milestones, is_completed, created_at, updated_at
		FROM roadmaps WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roadmaps []*models.Roadmap
	for rows.Next() {
		rm := &models.Roadmap{}
		err := rows.Scan(&rm.ID, &rm.UserID, &rm.Topic, &rm.PlanJSON, &rm.MilestoneCount,
			&rm.CompletedMilestones, &rm.IsCompleted, &rm.CreatedAt, &rm.UpdatedAt)
		if err != nil {
			return nil, err
		}
		roadmaps = append(roadmaps, rm)
	}
	return roadmaps, nil
}

func (r *CourseRepo) UpdateRoadmapPlan(ctx context.Context, id uuid.UUID, planJSON []byte, milestoneCount int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE roadmaps SET plan_json = $1, milestone_count = $2, updated_at = NOW() WHERE id = $3",
		planJSON, milestoneCount, id,
	)
	return err
}

// CompleteMilestone bumps the milestone counter and reports whether the
// roadmap just reached its last milestone.
func (r *CourseRepo) CompleteMilestone(ctx context.Context, id, userID uuid.UUID) (*models.Roadmap, error) {
	rm := &models.Roadmap{}
	err := r.pool.QueryRow(ctx, `
		UPDATE roadmaps
		SET completed_milestones = LEAST(milestone_count, completed_milestones + 1),
			is_completed = (LEAST(milestone_count, completed_milestones + 1) >= milestone_count AND milestone_count > 0),
			updated_at = NOW()
		WHERE id = $1
		  AND user_id = $2
		RETURNING id, user_id, topic, plan_json, milestone_count, completed_milestones, is_completed, created_at, updated_at
	`, id, userID).Scan(
		&rm.ID, &rm.UserID, &rm.Topic, &rm.PlanJSON, &rm.MilestoneCount,
		&rm.CompletedMilestones, &rm.IsCompleted, &rm.CreatedAt, &rm.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rm, nil
}

func (r *CourseRepo) DeleteRoadmap(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM roadmaps WHERE id = $1 AND user_id = $2", id, userID)
	return err
}
