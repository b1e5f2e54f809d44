package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bjrfx/mediacore/internal/domain/repository"
)

type apiKeyRepo struct{ s *Store }

const apiKeyColumns = `id, key_hash, key_prefix, name, permissions, is_active, expires_at,
	usage_count, last_used_at, COALESCE(created_by::text, ''), created_at`

func scanAPIKey(row pgx.Row) (*repository.APIKey, error) {
	var k repository.APIKey
	err := row.Scan(
		&k.ID, &k.KeyHash, &k.KeyPrefix, &k.Name, &k.Permissions, &k.IsActive, &k.ExpiresAt,
		&k.UsageCount, &k.LastUsedAt, &k.CreatedBy, &k.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *apiKeyRepo) Create(ctx context.Context, k repository.APIKey) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO api_keys (id, key_hash, key_prefix, name, permissions, is_active, expires_at,
			usage_count, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, now())`
	_, err := r.s.pool.Exec(ctx, q,
		k.ID, k.KeyHash, k.KeyPrefix, k.Name, k.Permissions, k.IsActive, k.ExpiresAt, nullIfEmpty(k.CreatedBy),
	)
	return mapErr("create api key", err)
}

func (r *apiKeyRepo) GetByHash(ctx context.Context, keyHash string) (*repository.APIKey, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	k, err := scanAPIKey(r.s.pool.QueryRow(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, keyHash))
	if err != nil {
		return nil, mapErr("get api key", err)
	}
	return k, nil
}

func (r *apiKeyRepo) List(ctx context.Context) ([]repository.APIKey, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	rows, err := r.s.pool.Query(ctx, `SELECT `+apiKeyColumns+` FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapErr("list api keys", err)
	}
	defer rows.Close()

	var out []repository.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, mapErr("scan api key", err)
		}
		out = append(out, *k)
	}
	return out, mapErr("list api keys", rows.Err())
}

func (r *apiKeyRepo) Revoke(ctx context.Context, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", repository.ErrNotFound
	}
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	var keyHash string
	err := r.s.pool.QueryRow(ctx, `UPDATE api_keys SET is_active = false WHERE id = $1 RETURNING key_hash`, id).Scan(&keyHash)
	if err != nil {
		return "", mapErr("revoke api key", err)
	}
	return keyHash, nil
}

func (r *apiKeyRepo) RecordUsage(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	const q = `UPDATE api_keys SET usage_count = usage_count + 1, last_used_at = $2 WHERE id = $1`
	_, err := r.s.pool.Exec(ctx, q, id, at)
	return mapErr("record api key usage", err)
}
