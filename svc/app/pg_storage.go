package app

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/pushkit/pkg/pg"
)

// PGStorage is the PostgreSQL implementation of Storage.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates app storage over the given pool.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const appColumns = `id, public_id, secret_key, name, description, is_active, created_at, updated_at`

func (s *PGStorage) Create(ctx context.Context, a App) (*App, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO apps (public_id, secret_key, name, description, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+appColumns,
		a.PublicID, a.SecretKey, a.Name, a.Description, a.Active,
	)

	created, err := scanApp(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, errors.Join(ErrAppNameTaken, err)
		}
		return nil, err
	}
	return created, nil
}

func (s *PGStorage) GetByPublicID(ctx context.Context, publicID string) (*App, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM apps WHERE public_id = $1`, publicID)

	a, err := scanApp(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAppNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *PGStorage) GetByName(ctx context.Context, name string) (*App, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM apps WHERE name = $1`, name)

	a, err := scanApp(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrAppNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *PGStorage) RotateSecret(ctx context.Context, id int64, secretKey string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE apps SET secret_key = $1, updated_at = now() WHERE id = $2`,
		secretKey, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppNotFound
	}
	return nil
}

func (s *PGStorage) Deactivate(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE apps SET is_active = false, updated_at = now() WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApp(row rowScanner) (*App, error) {
	var a App
	if err := row.Scan(
		&a.ID, &a.PublicID, &a.SecretKey, &a.Name, &a.Description,
		&a.Active, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
