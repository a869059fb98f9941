package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"learnhub-backend/internal/handlers"
	"learnhub-backend/internal/middleware"
	"learnhub-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	dashboardHandler *handlers.DashboardHandler,
	profileHandler *handlers.ProfileHandler,
	courseHandler *handlers.CourseHandler,
	roadmapHandler *handlers.RoadmapHandler,
	quizHandler *handlers.QuizHandler,
	tutorHandler *handlers.TutorHandler,
	historyHandler *handlers.HistoryHandler,
	studySessionHandler *handlers.StudySessionHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/stats", dashboardHandler.Stats)
			r.Get("/activity", dashboardHandler.Activity)
			r.Get("/streak", dashboardHandler.Streak)
			r.Get("/weekly", dashboardHandler.Weekly)
		})

		// ──── Course Routes ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/topics", courseHandler.Topics)
			r.Get("/search", courseHandler.Search)
			r.Post("/recommend", courseHandler.Recommend)
			r.Post("/complete", courseHandler.Complete)
			r.Get("/completed", courseHandler.ListCompleted)
		})

		// ──── Roadmap Routes ────
		r.Route("/roadmaps", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/templates", roadmapHandler.Templates)
			r.Get("/templates/{id}", roadmapHandler.Template)
			r.Post("/generate", roadmapHandler.Generate)
			r.Get("/", roadmapHandler.List)
			r.Get("/{id}", roadmapHandler.Get)
			r.Post("/{id}/milestone", roadmapHandler.CompleteMilestone)
			r.Delete("/{id}", roadmapHandler.Delete)
		})

		// ──── Quiz Routes ────
		r.Route("/quizzes", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/generate", quizHandler.Generate)
			r.Post("/generate/file", quizHandler.GenerateFromFile)
			r.Get("/result/{id}", quizHandler.Result)
			r.Post("/validate", quizHandler.Validate)
			r.Post("/submit", quizHandler.Submit)
		})

		// ──── Tutor Routes ────
		r.Route("/tutor", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/chat", tutorHandler.Chat)
			r.Get("/suggestions", tutorHandler.Suggestions)
			r.Get("/topics", tutorHandler.Topics)
		})

		// ──── History Routes ────
		r.Route("/history", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/stats", historyHandler.Stats)
			r.Get("/quizzes", historyHandler.Quizzes)
			r.Get("/topics", historyHandler.Topics)
			r.Get("/chats", historyHandler.Chats)
			r.Delete("/clear", historyHandler.Clear)
		})

		// ──── Study Session Routes ────
		r.Route("/study-sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/start", studySessionHandler.Start)
			r.Post("/{id}/heartbeat", studySessionHandler.Heartbeat)
			r.Post("/{id}/stop", studySessionHandler.Stop)
		})

		// ──── Profile & Settings Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", profileHandler.GetMe)
			r.Put("/me", profileHandler.UpdateMe)
			r.Get("/skills", profileHandler.ListSkills)
			r.Put("/skills/{name}", profileHandler.UpdateSkill)
			r.Get("/settings", profileHandler.GetSettings)
			r.Put("/settings", profileHandler.UpdateSettings)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.Get)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
