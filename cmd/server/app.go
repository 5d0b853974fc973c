package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/praaatap/vibeedit-backend/internal/config"
	"github.com/praaatap/vibeedit-backend/internal/platform/anthropic"
	"github.com/praaatap/vibeedit-backend/internal/platform/cron"
	"github.com/praaatap/vibeedit-backend/internal/platform/ffmpeg"
	"github.com/praaatap/vibeedit-backend/internal/platform/gemini"
	"github.com/praaatap/vibeedit-backend/internal/platform/openai"
	"github.com/praaatap/vibeedit-backend/internal/platform/postgres"
	"github.com/praaatap/vibeedit-backend/internal/platform/storage"
	"github.com/praaatap/vibeedit-backend/internal/service"
	"github.com/praaatap/vibeedit-backend/internal/service/auth"
	"github.com/praaatap/vibeedit-backend/internal/store"
	"github.com/praaatap/vibeedit-backend/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore  store.UserStore
	videoStore store.VideoStore

	// Media pipeline
	media  *storage.Store
	runner *ffmpeg.Runner

	// Background task processing
	registry  *prometheus.Registry
	scheduler *task.Scheduler
	sweeper   *cron.Sweeper

	// Service interfaces
	jwtService     auth.JWTService
	passwordHasher auth.PasswordHasher
	userService    service.UserService
	videoService   service.VideoService
	// analysisService stays nil when no AI provider is configured; the
	// analysis endpoints then answer 503 instead of being absent.
	analysisService service.AnalysisService
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password hasher
	app.passwordHasher = auth.NewBcryptHasher(cfg.Auth.BCryptCost)

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.videoStore = postgres.NewPostgresVideoStore(db, logger)

	// Initialize the task scheduler with its own metrics registry so
	// /metrics exposes only what this process produces.
	app.registry = prometheus.NewRegistry()
	app.scheduler = task.NewScheduler(task.Config{
		WorkerCount: cfg.Scheduler.WorkerCount,
	}, logger, task.NewMetrics(app.registry))
	app.scheduler.Start()
	logger.Info("Task scheduler started", "worker_count", cfg.Scheduler.WorkerCount)

	// Initialize the retention sweeper
	app.sweeper, err = cron.NewSweeper(
		cfg.Scheduler.SweepSchedule,
		time.Duration(cfg.Scheduler.RetentionMaxAgeHours)*time.Hour,
		app.scheduler,
		logger,
	)
	if err != nil {
		app.scheduler.Stop()
		return nil, fmt.Errorf("failed to create task sweeper: %w", err)
	}
	app.sweeper.Start()

	// Initialize media storage and the ffmpeg runner
	app.media, err = storage.NewStore(cfg.Storage.Root, logger)
	if err != nil {
		app.sweeper.Stop()
		app.scheduler.Stop()
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}
	app.runner = ffmpeg.NewRunner(cfg.FFmpeg, logger)

	// Select the AI backend
	analyzer, transcriber, err := setupAnalysis(ctx, cfg.AI, logger)
	if err != nil {
		app.sweeper.Stop()
		app.scheduler.Stop()
		return nil, err
	}

	// Initialize user service
	app.userService, err = service.NewUserService(
		app.userStore,
		app.passwordHasher,
		app.jwtService,
		db,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	// Initialize video service
	app.videoService, err = service.NewVideoService(
		app.videoStore,
		app.media,
		app.runner,
		app.scheduler,
		db,
		cfg.Storage.MaxUploadSizeMB*1024*1024,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create video service: %w", err)
	}

	// Initialize analysis service when a provider is available
	if analyzer != nil {
		app.analysisService, err = service.NewAnalysisService(
			analyzer,
			transcriber,
			app.videoStore,
			app.media,
			app.runner,
			app.scheduler,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create analysis service: %w", err)
		}
		logger.Info("AI analysis enabled",
			"provider", cfg.AI.Provider,
			"transcription", transcriber != nil)
	} else {
		logger.Info("AI analysis disabled", "provider", cfg.AI.Provider)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupAnalysis selects the transcript analyzer from configuration. The
// "none" provider is valid: the server runs with analysis disabled and the
// AI endpoints report the feature unavailable.
func setupAnalysis(
	ctx context.Context,
	cfg config.AIConfig,
	logger *slog.Logger,
) (service.Analyzer, service.Transcriber, error) {
	analyzerLogger := logger.With("component", "analyzer")

	var analyzer service.Analyzer
	var err error
	switch cfg.Provider {
	case "gemini":
		analyzer, err = gemini.NewAnalyzer(ctx, cfg, analyzerLogger)
	case "openai":
		analyzer, err = openai.NewAnalyzer(cfg, analyzerLogger)
	case "anthropic":
		analyzer, err = anthropic.NewAnalyzer(cfg, analyzerLogger)
	case "none":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown AI provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize %s analyzer: %w", cfg.Provider, err)
	}

	// Transcription always runs on Whisper, so it rides on the OpenAI key
	// even when another provider handles analysis.
	var transcriber service.Transcriber
	if cfg.OpenAIAPIKey != "" {
		t, terr := openai.NewTranscriber(cfg, logger.With("component", "transcriber"))
		if terr != nil {
			return nil, nil, fmt.Errorf("failed to initialize transcriber: %w", terr)
		}
		transcriber = t
	}

	return analyzer, transcriber, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. Stop order
// matters: the sweeper goes first so no new sweep races the scheduler
// drain, then the scheduler waits for in-flight renders, then the database
// connection closes.
func (app *application) cleanup() {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
