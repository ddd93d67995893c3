package app

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of Storage.
// Suitable for development and testing.
type MemoryStorage struct {
	mu     sync.RWMutex
	nextID int64
	apps   map[int64]App
}

// NewMemoryStorage creates empty in-memory app storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{apps: make(map[int64]App)}
}

func (s *MemoryStorage) Create(ctx context.Context, a App) (*App, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.apps {
		if existing.Name == a.Name {
			return nil, ErrAppNameTaken
		}
	}

	s.nextID++
	a.ID = s.nextID
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	s.apps[a.ID] = a

	created := a
	return &created, nil
}

func (s *MemoryStorage) GetByPublicID(ctx context.Context, publicID string) (*App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.apps {
		if a.PublicID == publicID {
			found := a
			return &found, nil
		}
	}
	return nil, ErrAppNotFound
}

func (s *MemoryStorage) GetByName(ctx context.Context, name string) (*App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.apps {
		if a.Name == name {
			found := a
			return &found, nil
		}
	}
	return nil, ErrAppNotFound
}

func (s *MemoryStorage) RotateSecret(ctx context.Context, id int64, secretKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	if !ok {
		return ErrAppNotFound
	}
	a.SecretKey = secretKey
	a.UpdatedAt = time.Now()
	s.apps[id] = a
	return nil
}

func (s *MemoryStorage) Deactivate(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.apps[id]
	if !ok {
		return nil
	}
	a.Active = false
	a.UpdatedAt = time.Now()
	s.apps[id] = a
	return nil
}
