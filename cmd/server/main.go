package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnhub-backend/internal/config"
	"learnhub-backend/internal/database"
	"learnhub-backend/internal/handlers"
	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/progress"
	"learnhub-backend/internal/repository"
	"learnhub-backend/internal/router"
	"learnhub-backend/internal/services"
	"learnhub-backend/internal/websocket"
	"learnhub-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting LearnHub Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	historyRepo := repository.NewHistoryRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	studySessionRepo := repository.NewStudySessionRepo(pool)

	// ──── Initialize Progress Store ────
	clock := progress.SystemClock()
	progressStore := progress.New(
		progress.NewRedisStorage(redisClients.KV),
		clock,
		progress.NewRedisNotifier(redisClients.PubSub),
	)
	log.Println("✓ Progress store initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.KV, jwtAuth)
	recommenderService := services.NewRecommenderService(cfg.RecommenderURL)
	roadmapService := services.NewRoadmapService(cfg.RoadmapURL)
	tutorService := services.NewTutorService(cfg.TutorURL)
	quizGenService := services.NewQuizGenService(cfg.QuizURL)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	dashboardHandler := handlers.NewDashboardHandler(progressStore, clock)
	profileHandler := handlers.NewProfileHandler(userRepo, progressStore)
	courseHandler := handlers.NewCourseHandler(recommenderService, courseRepo, historyRepo, progressStore)
	roadmapHandler := handlers.NewRoadmapHandler(roadmapService, courseRepo, jobRepo, historyRepo, progressStore, redisClients.Queue)
	quizHandler := handlers.NewQuizHandler(quizGenService, historyRepo, jobRepo, progressStore, redisClients.Queue)
	tutorHandler := handlers.NewTutorHandler(tutorService, historyRepo, progressStore)
	historyHandler := handlers.NewHistoryHandler(historyRepo)
	studySessionHandler := handlers.NewStudySessionHandler(studySessionRepo, historyRepo, progressStore)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 5: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		redisClients.PubSub,
		quizGenService,
		roadmapService,
		jobRepo,
		courseRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		dashboardHandler,
		profileHandler,
		courseHandler,
		roadmapHandler,
		quizHandler,
		tutorHandler,
		historyHandler,
		studySessionHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ LearnHub Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
