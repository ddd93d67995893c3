package device

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/pushkit/pkg/webpush"
)

// MemoryStorage is an in-memory implementation of Storage.
// Suitable for development and testing.
type MemoryStorage struct {
	mu      sync.RWMutex
	nextID  int64
	devices map[int64]Registration
	// pairIndex maps appID -> externalUserID -> device id.
	pairIndex map[int64]map[string]int64
}

// NewMemoryStorage creates empty in-memory device storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		devices:   make(map[int64]Registration),
		pairIndex: make(map[int64]map[string]int64),
	}
}

func (s *MemoryStorage) Upsert(ctx context.Context, appID int64, externalUserID string, sub webpush.Subscription) (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if byUser, ok := s.pairIndex[appID]; ok {
		if id, ok := byUser[externalUserID]; ok {
			reg := s.devices[id]
			reg.Subscription = sub
			reg.Active = true
			reg.UpdatedAt = now
			s.devices[id] = reg
			updated := reg
			return &updated, nil
		}
	}

	s.nextID++
	reg := Registration{
		ID:             s.nextID,
		AppID:          appID,
		ExternalUserID: externalUserID,
		Subscription:   sub,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.devices[reg.ID] = reg

	if s.pairIndex[appID] == nil {
		s.pairIndex[appID] = make(map[string]int64)
	}
	s.pairIndex[appID][externalUserID] = reg.ID

	created := reg
	return &created, nil
}

func (s *MemoryStorage) SetInactive(ctx context.Context, appID int64, externalUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byUser, ok := s.pairIndex[appID]
	if !ok {
		return nil
	}
	id, ok := byUser[externalUserID]
	if !ok {
		return nil
	}

	reg := s.devices[id]
	reg.Active = false
	reg.UpdatedAt = time.Now()
	s.devices[id] = reg
	return nil
}

func (s *MemoryStorage) Deactivate(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.devices[id]
	if !ok {
		return nil
	}
	reg.Active = false
	reg.UpdatedAt = time.Now()
	s.devices[id] = reg
	return nil
}

func (s *MemoryStorage) ListActive(ctx context.Context, appID int64, externalUserIDs []string) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	regs := make([]Registration, 0)
	for _, reg := range s.devices {
		if reg.AppID != appID || !reg.Active {
			continue
		}
		if len(externalUserIDs) > 0 && !slices.Contains(externalUserIDs, reg.ExternalUserID) {
			continue
		}
		regs = append(regs, reg)
	}

	// Map iteration order is random; stable output helps the tests and
	// makes broadcast batches reproducible.
	slices.SortFunc(regs, func(a, b Registration) int {
		return int(a.ID - b.ID)
	})
	return regs, nil
}

func (s *MemoryStorage) CountActive(ctx context.Context, appID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, reg := range s.devices {
		if reg.AppID == appID && reg.Active {
			count++
		}
	}
	return count, nil
}
