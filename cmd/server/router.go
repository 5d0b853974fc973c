package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/praaatap/vibeedit-backend/internal/api"
	apiMiddleware "github.com/praaatap/vibeedit-backend/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
// It accepts the application dependencies to create handlers and register routes.
// Returns the configured router.
func (app *application) setupRouter() http.Handler {
	// Create a router
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(
		apiMiddleware.NewTraceMiddleware(app.logger),
	) // Add trace IDs for improved error handling

	// Create API handlers using the application's services
	tokenTTL := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(app.userService, tokenTTL, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	videoHandler := api.NewVideoHandler(app.videoService, app.logger)
	taskHandler := api.NewTaskHandler(app.scheduler, app.videoService, app.logger)
	analysisHandler := api.NewAnalysisHandler(app.analysisService, app.logger)
	effectsHandler := api.NewEffectsHandler(app.videoService, app.logger)
	audioHandler := api.NewAudioHandler(app.videoService, app.logger)
	exportHandler := api.NewExportHandler(app.videoService, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Current user
			r.Get("/users/me", authHandler.Me)

			// Video endpoints
			r.Post("/videos", videoHandler.Upload)
			r.Get("/videos", videoHandler.List)
			r.Get("/videos/{id}", videoHandler.Get)
			r.Post("/videos/{id}/process", videoHandler.Process)
			r.Get("/videos/{id}/download", videoHandler.Download)

			// Task endpoints
			r.Get("/tasks", taskHandler.List)
			r.Get("/tasks/{id}", taskHandler.Get)
			r.Delete("/tasks/{id}", taskHandler.Cancel)
			r.Get("/tasks/{id}/download", taskHandler.Download)

			// AI analysis endpoints
			r.Post("/ai/analyze", analysisHandler.Analyze)
			r.Post("/ai/emotions", analysisHandler.Emotions)
			r.Post("/ai/clips", analysisHandler.Clips)
			r.Get("/ai/providers", analysisHandler.Providers)

			// Effects endpoints
			r.Post("/effects/speed", effectsHandler.Speed)
			r.Post("/effects/filter", effectsHandler.Filter)
			r.Post("/effects/filter/preset", effectsHandler.FilterPreset)
			r.Post("/effects/transform", effectsHandler.Transform)
			r.Get("/effects/presets", effectsHandler.Presets)

			// Audio endpoints
			r.Post("/audio/extract", audioHandler.Extract)
			r.Post("/audio/volume", audioHandler.Volume)
			r.Post("/audio/fade", audioHandler.Fade)
			r.Post("/audio/remove", audioHandler.Remove)

			// Export endpoints
			r.Post("/export/video", exportHandler.Export)
			r.Post("/export/platform", exportHandler.Platform)
			r.Post("/export/batch", exportHandler.Batch)
			r.Post("/export/thumbnail", exportHandler.Thumbnail)
			r.Post("/export/gif", exportHandler.GIF)
			r.Get("/export/formats", exportHandler.Formats)
			r.Get("/export/platforms", exportHandler.Platforms)
		})
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	// Prometheus metrics scraped from the application's own registry
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		app.registry,
		promhttp.HandlerOpts{},
	))

	return r
}
