package device

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/pushkit/pkg/webpush"
)

// PGStorage is the PostgreSQL implementation of Storage. The device_tokens
// table carries a unique (app_id, external_user_id) constraint, so Upsert is
// a single INSERT .. ON CONFLICT DO UPDATE round trip and stays atomic under
// concurrent registration of the same pair.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates device storage over the given pool.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const deviceColumns = `id, app_id, external_user_id, subscription, is_active, created_at, updated_at`

func (s *PGStorage) Upsert(ctx context.Context, appID int64, externalUserID string, sub webpush.Subscription) (*Registration, error) {
	subJSON, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal subscription: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO device_tokens (app_id, external_user_id, subscription, is_active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (app_id, external_user_id) DO UPDATE
		SET subscription = EXCLUDED.subscription,
		    is_active = true,
		    updated_at = now()
		RETURNING `+deviceColumns,
		appID, externalUserID, subJSON,
	)

	return scanRegistration(row)
}

func (s *PGStorage) SetInactive(ctx context.Context, appID int64, externalUserID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE device_tokens
		SET is_active = false, updated_at = now()
		WHERE app_id = $1 AND external_user_id = $2`,
		appID, externalUserID,
	)
	return err
}

func (s *PGStorage) Deactivate(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE device_tokens
		SET is_active = false, updated_at = now()
		WHERE id = $1`,
		id,
	)
	return err
}

func (s *PGStorage) ListActive(ctx context.Context, appID int64, externalUserIDs []string) ([]Registration, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(externalUserIDs) > 0 {
		rows, err = s.pool.Query(ctx, `
			SELECT `+deviceColumns+`
			FROM device_tokens
			WHERE app_id = $1 AND is_active = true AND external_user_id = ANY($2)`,
			appID, externalUserIDs,
		)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+deviceColumns+`
			FROM device_tokens
			WHERE app_id = $1 AND is_active = true`,
			appID,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (s *PGStorage) CountActive(ctx context.Context, appID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM device_tokens
		WHERE app_id = $1 AND is_active = true`,
		appID,
	).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*Registration, error) {
	var (
		reg     Registration
		subJSON []byte
	)
	if err := row.Scan(
		&reg.ID, &reg.AppID, &reg.ExternalUserID, &subJSON,
		&reg.Active, &reg.CreatedAt, &reg.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(subJSON, &reg.Subscription); err != nil {
		return nil, fmt.Errorf("unmarshal subscription: %w", err)
	}
	return &reg, nil
}
