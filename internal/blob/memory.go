package blob

import (
	"bytes"
	"context"
	"io"
	"sync"

	"fileshare-backend/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps file bytes in memory, for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[uuid.UUID][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[uuid.UUID][]byte),
	}
}

func (s *MemoryStore) Read(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.objects[fileID]
	if !exists {
		return nil, models.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Write(ctx context.Context, fileID uuid.UUID, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[fileID] = data
	return nil
}

func (s *MemoryStore) Size(ctx context.Context, fileID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.objects[fileID]
	if !exists {
		return 0, models.ErrNotFound
	}
	return int64(len(data)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, fileID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, fileID)
	return nil
}
