package push

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of Storage.
// Suitable for development and testing.
type MemoryStorage struct {
	mu            sync.RWMutex
	nextNotifID   int64
	nextLogID     int64
	notifications map[int64]Notification
	logs          []DeliveryLog
}

// NewMemoryStorage creates empty in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{notifications: make(map[int64]Notification)}
}

func (s *MemoryStorage) CreateNotification(ctx context.Context, n Notification) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNotifID++
	n.ID = s.nextNotifID
	n.CreatedAt = time.Now()
	s.notifications[n.ID] = n

	created := n
	return &created, nil
}

func (s *MemoryStorage) AppendLog(ctx context.Context, l DeliveryLog) (*DeliveryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLogID++
	l.ID = s.nextLogID
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}
	s.logs = append(s.logs, l)

	created := l
	return &created, nil
}

func (s *MemoryStorage) GetNotification(ctx context.Context, id int64) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}
	found := n
	return &found, nil
}

func (s *MemoryStorage) ListLogs(ctx context.Context, notificationID int64) ([]DeliveryLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]DeliveryLog, 0)
	for _, l := range s.logs {
		if l.NotificationID == notificationID {
			logs = append(logs, l)
		}
	}
	return logs, nil
}

func (s *MemoryStorage) ListNotifications(ctx context.Context, appID int64, limit int) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifs := make([]Notification, 0)
	for _, n := range s.notifications {
		if n.AppID == appID {
			notifs = append(notifs, n)
		}
	}

	// Newest first, matching the relational implementation.
	slices.SortFunc(notifs, func(a, b Notification) int {
		return int(b.ID - a.ID)
	})
	if limit > 0 && len(notifs) > limit {
		notifs = notifs[:limit]
	}
	return notifs, nil
}
