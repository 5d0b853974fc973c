package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Video validation errors
var (
	ErrEmptyVideoID           = errors.New("video ID cannot be empty")
	ErrEmptyVideoOwner        = errors.New("video owner cannot be empty")
	ErrEmptyFilename          = errors.New("filename cannot be empty")
	ErrEmptyStoragePath       = errors.New("storage path cannot be empty")
	ErrInvalidVideoSize       = errors.New("video size must be positive")
	ErrUnsupportedContentType = errors.New("unsupported video content type")
	ErrInvalidVideoStatus     = errors.New("invalid video status")
)

// Video lifecycle states. A video is "uploaded" until the probe task records
// its duration and dimensions, after which it is "ready" for processing.
const (
	VideoStatusUploaded = "uploaded"
	VideoStatusReady    = "ready"
)

// AllowedContentTypes lists the upload MIME types accepted for source videos.
var AllowedContentTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/webm":      true,
}

// Video represents an uploaded source video owned by a user. Derived outputs
// (renders, thumbnails, extracted audio) are tracked as task results, not as
// Video rows.
type Video struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"-"` // Relative to the storage root; never exposed to clients
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`

	// Probe metadata, zero until ffprobe has inspected the upload.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewVideo creates a Video for a fresh upload. It generates the video ID and
// timestamps and validates the caller-supplied fields. An empty title falls
// back to the filename.
func NewVideo(ownerID uuid.UUID, title, filename, storagePath, contentType string, sizeBytes int64) (*Video, error) {
	if title == "" {
		title = filename
	}

	video := &Video{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Filename:    filename,
		StoragePath: storagePath,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		Status:      VideoStatusUploaded,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := video.Validate(); err != nil {
		return nil, err
	}

	return video, nil
}

// Validate checks if the Video has valid data.
// Returns an error if any field fails validation.
func (v *Video) Validate() error {
	if v.ID == uuid.Nil {
		return ErrEmptyVideoID
	}

	if v.OwnerID == uuid.Nil {
		return ErrEmptyVideoOwner
	}

	if v.Filename == "" {
		return ErrEmptyFilename
	}

	if v.StoragePath == "" {
		return ErrEmptyStoragePath
	}

	if !AllowedContentTypes[v.ContentType] {
		return ErrUnsupportedContentType
	}

	if v.SizeBytes <= 0 {
		return ErrInvalidVideoSize
	}

	if v.Status != VideoStatusUploaded && v.Status != VideoStatusReady {
		return ErrInvalidVideoStatus
	}

	return nil
}
