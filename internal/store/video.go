package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/praaatap/vibeedit-backend/internal/domain"
)

// VideoStore defines the interface for video metadata persistence.
// The media bytes themselves live in blob storage; rows here only describe
// them.
type VideoStore interface {
	// Create saves a new video row.
	// Returns a validation error wrapped in ErrInvalidEntity if data is invalid.
	Create(ctx context.Context, video *domain.Video) error

	// GetByID retrieves a video by its unique ID.
	// Returns ErrVideoNotFound if the video does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error)

	// ListByOwner retrieves all videos owned by the given user,
	// newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Video, error)

	// UpdateProbeInfo records the duration and dimensions discovered by
	// ffprobe after upload and marks the video ready.
	// Returns ErrVideoNotFound if the video does not exist.
	UpdateProbeInfo(ctx context.Context, id uuid.UUID, durationSeconds float64, width, height int) error

	// Delete removes a video row by its ID.
	// Returns ErrVideoNotFound if the video does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new VideoStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) VideoStore
}
