package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/pushkit/pkg/pg"
)

// PGStorage is the PostgreSQL implementation of Storage.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates notification storage over the given pool.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

func (s *PGStorage) CreateNotification(ctx context.Context, n Notification) (*Notification, error) {
	payloadJSON, err := json.Marshal(n.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO notifications (app_id, payload, is_silent)
		VALUES ($1, $2, $3)
		RETURNING id, app_id, payload, is_silent, created_at`,
		n.AppID, payloadJSON, n.Silent,
	)

	return scanNotification(row)
}

func (s *PGStorage) AppendLog(ctx context.Context, l DeliveryLog) (*DeliveryLog, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO notification_logs (notification_id, device_token_id, status, error_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, notification_id, device_token_id, status, error_message, sent_at`,
		l.NotificationID, l.DeviceID, string(l.Status), l.Error,
	)

	return scanDeliveryLog(row)
}

func (s *PGStorage) GetNotification(ctx context.Context, id int64) (*Notification, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, app_id, payload, is_silent, created_at
		FROM notifications
		WHERE id = $1`,
		id,
	)

	n, err := scanNotification(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

func (s *PGStorage) ListLogs(ctx context.Context, notificationID int64) ([]DeliveryLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, notification_id, device_token_id, status, error_message, sent_at
		FROM notification_logs
		WHERE notification_id = $1
		ORDER BY sent_at DESC`,
		notificationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]DeliveryLog, 0)
	for rows.Next() {
		l, err := scanDeliveryLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func (s *PGStorage) ListNotifications(ctx context.Context, appID int64, limit int) ([]Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, app_id, payload, is_silent, created_at
		FROM notifications
		WHERE app_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		appID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifs := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, *n)
	}
	return notifs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*Notification, error) {
	var (
		n           Notification
		payloadJSON []byte
	)
	if err := row.Scan(&n.ID, &n.AppID, &payloadJSON, &n.Silent, &n.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payloadJSON, &n.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &n, nil
}

func scanDeliveryLog(row rowScanner) (*DeliveryLog, error) {
	var (
		l      DeliveryLog
		status string
	)
	if err := row.Scan(&l.ID, &l.NotificationID, &l.DeviceID, &status, &l.Error, &l.SentAt); err != nil {
		return nil, err
	}
	l.Status = Status(status)
	return &l, nil
}
