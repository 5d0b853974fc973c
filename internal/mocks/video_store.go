package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/praaatap/vibeedit-backend/internal/domain"
	"github.com/praaatap/vibeedit-backend/internal/store"
)

// MockVideoStore implements store.VideoStore for testing.
//
// Like MockUserStore, Fn fields override individual methods; the default
// implementation keeps videos in a map. The map is mutex-guarded because
// probe tasks update it from scheduler workers while tests read it.
type MockVideoStore struct {
	CreateFn          func(ctx context.Context, video *domain.Video) error
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.Video, error)
	ListByOwnerFn     func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Video, error)
	UpdateProbeInfoFn func(ctx context.Context, id uuid.UUID, durationSeconds float64, width, height int) error
	DeleteFn          func(ctx context.Context, id uuid.UUID) error

	mu     sync.Mutex
	Videos map[uuid.UUID]*domain.Video
}

// Ensure MockVideoStore implements store.VideoStore
var _ store.VideoStore = (*MockVideoStore)(nil)

// NewMockVideoStore creates a mock store with an empty video map.
func NewMockVideoStore() *MockVideoStore {
	return &MockVideoStore{
		Videos: make(map[uuid.UUID]*domain.Video),
	}
}

// Put seeds the store with a video.
func (m *MockVideoStore) Put(video *domain.Video) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Videos[video.ID] = video
}

// Create implements the VideoStore interface
func (m *MockVideoStore) Create(ctx context.Context, video *domain.Video) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, video)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Videos[video.ID] = video
	return nil
}

// GetByID implements the VideoStore interface
func (m *MockVideoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.Videos[id]
	if !ok {
		return nil, store.ErrVideoNotFound
	}
	copied := *video
	return &copied, nil
}

// ListByOwner implements the VideoStore interface
func (m *MockVideoStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Video, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, ownerID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var videos []*domain.Video
	for _, video := range m.Videos {
		if video.OwnerID == ownerID {
			copied := *video
			videos = append(videos, &copied)
		}
	}
	sort.Slice(videos, func(i, j int) bool {
		return videos[i].CreatedAt.After(videos[j].CreatedAt)
	})
	return videos, nil
}

// UpdateProbeInfo implements the VideoStore interface
func (m *MockVideoStore) UpdateProbeInfo(
	ctx context.Context,
	id uuid.UUID,
	durationSeconds float64,
	width, height int,
) error {
	if m.UpdateProbeInfoFn != nil {
		return m.UpdateProbeInfoFn(ctx, id, durationSeconds, width, height)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	video, ok := m.Videos[id]
	if !ok {
		return store.ErrVideoNotFound
	}
	video.DurationSeconds = durationSeconds
	video.Width = width
	video.Height = height
	video.Status = domain.VideoStatusReady
	return nil
}

// Delete implements the VideoStore interface
func (m *MockVideoStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Videos[id]; !ok {
		return store.ErrVideoNotFound
	}
	delete(m.Videos, id)
	return nil
}

// WithTx implements the VideoStore interface. The mock has no transactions;
// it returns itself.
func (m *MockVideoStore) WithTx(tx *sql.Tx) store.VideoStore {
	return m
}
