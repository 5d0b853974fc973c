package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/store"
)

// PostgresVideoStore implements the store.VideoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresVideoStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVideoStore creates a new PostgreSQL implementation of the VideoStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresVideoStore(db store.DBTX, logger *slog.Logger) *PostgresVideoStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVideoStore{
		db:     db,
		logger: logger.With(slog.String("component", "video_store")),
	}
}

// Ensure PostgresVideoStore implements store.VideoStore interface
var _ store.VideoStore = (*PostgresVideoStore)(nil)

// WithTx implements store.VideoStore.WithTx
func (s *PostgresVideoStore) WithTx(tx *sql.Tx) store.VideoStore {
	return &PostgresVideoStore{
		db:     tx,
		logger: s.logger,
	}
}

// videoColumns is the canonical select list; scanVideo must stay in sync with it.
const videoColumns = `id, owner_id, title, filename, storage_path, content_type, size_bytes,
	status, duration_seconds, width, height, created_at, updated_at`

// Create implements store.VideoStore.Create
func (s *PostgresVideoStore) Create(ctx context.Context, video *domain.Video) error {
	if err := video.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO videos (id, owner_id, title, filename, storage_path, content_type, size_bytes,
			status, duration_seconds, width, height, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.ExecContext(ctx, query,
		video.ID,
		video.OwnerID,
		video.Title,
		video.Filename,
		video.StoragePath,
		video.ContentType,
		video.SizeBytes,
		video.Status,
		video.DurationSeconds,
		video.Width,
		video.Height,
		video.CreatedAt,
		video.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create video",
			"video_id", video.ID,
			"owner_id", video.OwnerID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// GetByID implements store.VideoStore.GetByID
func (s *PostgresVideoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	row := s.db.QueryRowContext(ctx, query, id)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVideoNotFound
		}
		s.logger.Error("failed to scan video row", "video_id", id, "error", err)
		return nil, MapError(err)
	}

	return video, nil
}

// ListByOwner implements store.VideoStore.ListByOwner
func (s *PostgresVideoStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		s.logger.Error("failed to list videos", "owner_id", ownerID, "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var videos []*domain.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			s.logger.Error("failed to scan video row", "owner_id", ownerID, "error", err)
			return nil, MapError(err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return videos, nil
}

// UpdateProbeInfo implements store.VideoStore.UpdateProbeInfo
func (s *PostgresVideoStore) UpdateProbeInfo(ctx context.Context, id uuid.UUID, durationSeconds float64, width, height int) error {
	query := `
		UPDATE videos
		SET duration_seconds = $2, width = $3, height = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, durationSeconds, width, height, domain.VideoStatusReady, time.Now().UTC())
	if err != nil {
		s.logger.Error("failed to update probe info", "video_id", id, "error", err)
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrVideoNotFound)
}

// Delete implements store.VideoStore.Delete
func (s *PostgresVideoStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM videos WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		s.logger.Error("failed to delete video", "video_id", id, "error", err)
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrVideoNotFound)
}

// scanner abstracts *sql.Row and *sql.Rows for scanVideo.
type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (*domain.Video, error) {
	var video domain.Video
	err := row.Scan(
		&video.ID,
		&video.OwnerID,
		&video.Title,
		&video.Filename,
		&video.StoragePath,
		&video.ContentType,
		&video.SizeBytes,
		&video.Status,
		&video.DurationSeconds,
		&video.Width,
		&video.Height,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &video, nil
}
