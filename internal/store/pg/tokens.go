package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bjrfx/mediacore/internal/domain/repository"
)

type refreshRepo struct{ s *Store }

func (r *refreshRepo) Put(ctx context.Context, t repository.RefreshToken) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	const q = `INSERT INTO refresh_tokens (token_hash, uid, expires_at, created_at) VALUES ($1, $2, $3, now())`
	_, err := r.s.pool.Exec(ctx, q, t.TokenHash, t.UserID, t.ExpiresAt)
	return mapErr("put refresh token", err)
}

func (r *refreshRepo) Get(ctx context.Context, tokenHash, uid string) (*repository.RefreshToken, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	const q = `SELECT token_hash, uid, expires_at, created_at FROM refresh_tokens WHERE token_hash = $1 AND uid = $2`
	var t repository.RefreshToken
	err := r.s.pool.QueryRow(ctx, q, tokenHash, uid).Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, mapErr("get refresh token", err)
	}
	return &t, nil
}

func (r *refreshRepo) DeleteByToken(ctx context.Context, tokenHash string) (bool, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	tag, err := r.s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return false, mapErr("delete refresh token", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *refreshRepo) DeleteAllForUser(ctx context.Context, uid string) (int64, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	tag, err := r.s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE uid = $1`, uid)
	if err != nil {
		return 0, mapErr("delete user refresh tokens", err)
	}
	return tag.RowsAffected(), nil
}

// Rotate: DELETE condicional + INSERT en la misma transacción.
// Dos rotaciones concurrentes del mismo token se serializan en el lock de la fila;
// la segunda ve 0 filas afectadas y no inserta nada.
func (r *refreshRepo) Rotate(ctx context.Context, oldHash, uid string, next repository.RefreshToken) error {
	return r.s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		const del = `DELETE FROM refresh_tokens WHERE token_hash = $1 AND uid = $2 AND expires_at > $3`
		tag, err := tx.Exec(ctx, del, oldHash, uid, time.Now().UTC())
		if err != nil {
			return mapErr("consume refresh token", err)
		}
		if tag.RowsAffected() != 1 {
			return repository.ErrNotFound
		}

		const ins = `INSERT INTO refresh_tokens (token_hash, uid, expires_at, created_at) VALUES ($1, $2, $3, now())`
		if _, err := tx.Exec(ctx, ins, next.TokenHash, next.UserID, next.ExpiresAt); err != nil {
			return mapErr("insert rotated token", err)
		}
		return nil
	})
}
