package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/store"
	"github.com/praaatap/vibeedit-backend/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testDB is shared by the integration tests in this package. It stays nil
// when DATABASE_URL is not set, and the integration tests skip themselves.
// The sqlmock-based unit tests run either way.
var testDB *sql.DB

func TestMain(m *testing.M) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		os.Exit(m.Run())
	}

	var err error
	testDB, err = sql.Open("pgx", dbURL)
	if err != nil {
		fmt.Printf("Failed to open database connection: %v\n", err)
		os.Exit(1)
	}

	testDB.SetMaxOpenConns(5)
	testDB.SetMaxIdleConns(5)
	testDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := testDB.PingContext(ctx); err != nil {
		fmt.Printf("Failed to ping database: %v\n", err)
		os.Exit(1)
	}

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		fmt.Printf("Failed to set goose dialect: %v\n", err)
		os.Exit(1)
	}
	if err := goose.Up(testDB, "."); err != nil {
		fmt.Printf("Failed to apply migrations: %v\n", err)
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := testDB.Close(); err != nil {
		fmt.Printf("Failed to close database connection in TestMain: %v\n", err)
	}

	os.Exit(exitCode)
}

// withTx runs fn inside a transaction that is always rolled back, so
// integration tests never leak rows into the shared database.
func withTx(t *testing.T, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	if testDB == nil {
		t.Skip("integration test requires DATABASE_URL")
	}

	tx, err := testDB.Begin()
	require.NoError(t, err, "failed to begin test transaction")
	defer func() { _ = tx.Rollback() }()

	fn(t, tx)
}

// testLogger returns a logger that swallows output during tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mustInsertUser creates a stored user with a bcrypt hash and returns it.
func mustInsertUser(ctx context.Context, t *testing.T, db store.DBTX, email string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correcthorsebattery"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:             uuid.New(),
		Email:          email,
		HashedPassword: string(hash),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.HashedPassword, user.CreatedAt, user.UpdatedAt,
	)
	require.NoError(t, err, "failed to insert test user")

	return user
}
