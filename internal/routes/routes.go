package routes

import (
	"net/http"
	"time"

	"github.com/kshaab/Coursework-5/internal/app"
	"github.com/kshaab/Coursework-5/internal/handler"
	"github.com/kshaab/Coursework-5/internal/middleware"
	"github.com/kshaab/Coursework-5/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService)
	users := handler.NewUserHandler(app.UserService, app.Cfg)
	habits := handler.NewHabitHandler(app.HabitService, app.Cfg)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Probes
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Local avatars (S3 serves its own)
	if local, ok := app.Storage.(*storage.LocalStorage); ok {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(local.Root()))))
	}

	// Auth and registration (rate limited)
	rateLimiter := middleware.NewRateLimiter(app.Cfg.RateLimitRPS, app.Cfg.RateLimitBurst)
	rateLimiter.StartCleanup(5 * time.Minute)

	mux.HandleFunc("POST /api/token", rateLimiter.Limit(auth.Obtain))
	mux.HandleFunc("POST /api/token/refresh", rateLimiter.Limit(auth.Refresh))
	mux.HandleFunc("POST /api/users", rateLimiter.Limit(users.Register))

	// ============================================================================
	// PROTECTED ROUTES (/api/*)
	// ============================================================================

	requireAuth := middleware.RequireAuth(app.AuthService)

	// Users
	mux.HandleFunc("GET /api/users", requireAuth(users.List))
	mux.HandleFunc("GET /api/users/{id}", requireAuth(users.Get))
	mux.HandleFunc("PUT /api/users/{id}", requireAuth(users.Update))
	mux.HandleFunc("PATCH /api/users/{id}", requireAuth(users.Update))
	mux.HandleFunc("DELETE /api/users/{id}", requireAuth(users.Delete))
	mux.HandleFunc("POST /api/users/{id}/avatar", requireAuth(users.UploadAvatar))
	mux.HandleFunc("DELETE /api/users/{id}/avatar", requireAuth(users.DeleteAvatar))

	// Habits
	mux.HandleFunc("POST /api/habits", requireAuth(habits.Create))
	mux.HandleFunc("GET /api/habits", requireAuth(habits.List))
	mux.HandleFunc("GET /api/habits/{id}", requireAuth(habits.Get))
	mux.HandleFunc("PUT /api/habits/{id}", requireAuth(habits.Update))
	mux.HandleFunc("PATCH /api/habits/{id}", requireAuth(habits.Update))
	mux.HandleFunc("DELETE /api/habits/{id}", requireAuth(habits.Delete))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.RequestLogging, // Must not copy the request (reads the matched pattern)
		middleware.CORS(app.Cfg.CORSAllowedOrigins),
	)

	return handler
}
