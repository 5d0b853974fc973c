package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/praaatap/vibeedit-backend/internal/config"
	"github.com/praaatap/vibeedit-backend/migrations"
)

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct{}

// Printf implements the goose.Logger Printf method by forwarding messages
// to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error
// messages to slog.Error. Unlike the standard Fatalf behavior, this does
// NOT call os.Exit, so main can handle application exit consistently.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// configureGoose points goose at the embedded migration files. The binary
// carries its schema, so migrations never depend on a checkout-relative
// directory path.
func configureGoose() error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// runMigrations applies all pending migrations on the given connection.
// It is called on every boot; goose is a no-op when the schema is current.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	if err := configureGoose(); err != nil {
		return err
	}

	start := time.Now()
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("Migrations applied",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// runMigrationCommand executes one migration command against the configured
// database and returns. It opens its own short-lived connection so the
// -migrate flag works without booting the rest of the application.
func runMigrationCommand(cfg *config.Config, command string) error {
	var run func(db *sql.DB) error
	switch command {
	case "up":
		run = func(db *sql.DB) error { return goose.Up(db, ".") }
	case "down":
		run = func(db *sql.DB) error { return goose.Down(db, ".") }
	case "status":
		run = func(db *sql.DB) error { return goose.Status(db, ".") }
	case "version":
		run = func(db *sql.DB) error { return goose.Version(db, ".") }
	default:
		return fmt.Errorf("unknown migration command %q (want up, down, status, or version)", command)
	}

	if err := configureGoose(); err != nil {
		return err
	}

	if cfg.Database.URL == "" {
		return fmt.Errorf("database URL is empty: check your configuration")
	}
	slog.Info("Running migration command",
		"command", command,
		"url", maskDatabaseURL(cfg.Database.URL))

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return run(db)
}

// maskDatabaseURL masks the password in a database URL for safe logging.
func maskDatabaseURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}

	if parsedURL.User != nil {
		username := parsedURL.User.Username()
		parsedURL.User = url.UserPassword(username, "****")
		return parsedURL.String()
	}

	return dbURL
}
