package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studyplanner-backend/internal/handlers"
	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Content   *handlers.ContentHandler
	Progress  *handlers.ProgressHandler
	Planner   *handlers.PlannerHandler
	Dashboard *handlers.DashboardHandler
	Transfer  *handlers.TransferHandler
	WebSocket http.HandlerFunc
}

func New(
	jwtAuth *middleware.JWTAuth,
	authLimiter *middleware.RateLimiter,
	h Handlers,
	frontendURL string,
	log *logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(frontendURL))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", h.Auth.Logout)
			})
		})

		// ──── Public share view ────
		r.Get("/shared/{token}", h.Dashboard.SharedSubject)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			// ──── User ────
			r.Get("/me", h.Dashboard.Me)
			r.Delete("/me", h.Auth.DeleteAccount)
			r.Get("/dashboard", h.Dashboard.Dashboard)
			r.Get("/statistics", h.Dashboard.Statistics)
			r.Get("/achievements", h.Dashboard.Achievements)
			r.Get("/achievements/log", h.Dashboard.AchievementLog)
			r.Get("/leaderboard", h.Dashboard.Leaderboard)

			// ──── Subjects ────
			r.Route("/subjects", func(r chi.Router) {
				r.Get("/", h.Content.ListSubjects)
				r.Post("/", h.Content.CreateSubject)
				r.Get("/{id}", h.Dashboard.SubjectDetail)
				r.Post("/{id}/share", h.Content.ShareSubject)
				r.Post("/{id}/chapters", h.Content.CreateChapter)
				r.Post("/{id}/sessions/start", h.Progress.StartSession)
				r.Post("/{id}/sessions/stop", h.Progress.StopSession)
			})

			// ──── Chapters ────
			r.Route("/chapters", func(r chi.Router) {
				r.Post("/{id}/topics", h.Content.CreateTopic)
				r.Post("/{id}/questions", h.Content.CreateQuestion)
			})

			// ──── Topics ────
			r.Route("/topics", func(r chi.Router) {
				r.Patch("/{id}", h.Progress.UpdateTopic)
				r.Get("/{id}/notes", h.Content.GetNotes)
				r.Put("/{id}/notes", h.Content.UpdateNotes)
				r.Get("/{id}/flashcards", h.Content.ListFlashcards)
				r.Post("/{id}/flashcards", h.Content.CreateFlashcard)
			})

			// ──── Flashcards ────
			r.Route("/flashcards", func(r chi.Router) {
				r.Get("/due", h.Dashboard.DueFlashcards)
				r.Post("/{id}/review", h.Progress.ReviewFlashcard)
			})

			// ──── Planner ────
			r.Route("/reminders", func(r chi.Router) {
				r.Get("/", h.Planner.ListReminders)
				r.Post("/", h.Planner.CreateReminder)
				r.Post("/{id}/complete", h.Planner.CompleteReminder)
				r.Delete("/{id}", h.Planner.DeleteReminder)
			})
			r.Route("/events", func(r chi.Router) {
				r.Get("/", h.Planner.ListEvents)
				r.Post("/", h.Planner.CreateEvent)
				r.Delete("/{id}", h.Planner.DeleteEvent)
			})

			// ──── Export / import ────
			r.Get("/export", h.Transfer.Export)
			r.Post("/import", h.Transfer.Import)
		})

		// ──── WebSocket (authenticates via query token) ────
		r.Get("/ws", h.WebSocket)
	})

	return r
}
