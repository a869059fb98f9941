package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"learnhub-backend/internal/models"
	"learnhub-backend/internal/repository"
	"learnhub-backend/internal/services"
)

// Generated quiz payloads wait in Redis for pickup; a day is plenty.
const quizResultTTL = 24 * time.Hour

type Pool struct {
	redis       *redis.Client
	pubsub      *redis.Client
	quizGen     *services.QuizGenService
	roadmap     *services.RoadmapService
	jobRepo     *repository.JobRepo
	courseRepo  *repository.CourseRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	pubsubClient *redis.Client,
	quizGen *services.QuizGenService,
	roadmap *services.RoadmapService,
	jobRepo *repository.JobRepo,
	courseRepo *repository.CourseRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		pubsub:      pubsubClient,
		quizGen:     quizGen,
		roadmap:     roadmap,
		jobRepo:     jobRepo,
		courseRepo:  courseRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		"queue:quiz-generation",
		"queue:roadmap-generation",
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case "quiz-generation":
			processErr = p.processQuiz(ctx, &job)
		case "roadmap-generation":
			processErr = p.processRoadmap(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processQuiz(ctx context.Context, job *models.Job) error {
	var req models.GenerateQuizRequest
	if err := json.Unmarshal(job.ConfigJSON, &req); err != nil {
		return fmt.Errorf("invalid quiz config: %w", err)
	}

	quiz, err := p.quizGen.Generate(ctx, req)
	if err != nil {
		return err
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("failed to encode quiz: %w", err)
	}

	key := "quiz_result:" + job.ReferenceID.String()
	if err := p.redis.Set(ctx, key, data, quizResultTTL).Err(); err != nil {
		return fmt.Errorf("failed to store quiz result: %w", err)
	}
	return nil
}

func (p *Pool) processRoadmap(ctx context.Context, job *models.Job) error {
	var req models.GenerateRoadmapRequest
	if err := json.Unmarshal(job.ConfigJSON, &req); err != nil {
		return fmt.Errorf("invalid roadmap config: %w", err)
	}

	plan, err := p.roadmap.Generate(ctx, req.Topic)
	if err != nil {
		return err
	}

	milestones := countMilestones(plan)
	if milestones == 0 {
		milestones = req.MilestoneCount
	}

	return p.courseRepo.UpdateRoadmapPlan(ctx, job.ReferenceID, plan, milestones)
}

// countMilestones inspects the generated plan for a top-level milestones
// or steps array. The plan shape is owned by the upstream service, so a
// miss is not an error.
func countMilestones(plan json.RawMessage) int {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(plan, &doc); err != nil {
		return 0
	}
	for _, key := range []string{"milestones", "steps", "stages"} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil {
			return len(items)
		}
	}
	return 0
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	p.publish(ctx, job, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			ResultID:   job.ReferenceID,
			ResultType: resultType(job.Type),
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < job.MaxRetries {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		// Re-queue after backoff
		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), "queue:"+job.Type, string(jobBytes))
		})
	} else {
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		p.publish(ctx, job, models.WSMessage{
			Type: "error",
			Payload: models.ErrorEvent{
				JobID:        job.ID,
				ErrorCode:    "JOB_FAILED",
				ErrorMessage: errMsg,
			},
		})
	}
}

func (p *Pool) publish(ctx context.Context, job *models.Job, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	p.pubsub.Publish(ctx, "user_updates:"+job.UserID.String(), string(data))
}

func resultType(jobType string) string {
	switch jobType {
	case "quiz-generation":
		return "quiz"
	case "roadmap-generation":
		return "roadmap"
	}
	return jobType
}
