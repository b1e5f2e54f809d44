package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bjrfx/mediacore/internal/domain/repository"
)

type recoveryRepo struct{ s *Store }

func (r *recoveryRepo) CreateEmailVerification(ctx context.Context, t repository.EmailVerificationToken) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	const q = `INSERT INTO email_verification_tokens (token_hash, uid, expires_at, created_at) VALUES ($1, $2, $3, now())`
	_, err := r.s.pool.Exec(ctx, q, t.TokenHash, t.UserID, t.ExpiresAt)
	return mapErr("create email verification", err)
}

func (r *recoveryRepo) ConsumeEmailVerification(ctx context.Context, tokenHash string) (string, error) {
	var uid string
	err := r.s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var expiresAt time.Time
		const sel = `SELECT uid, expires_at FROM email_verification_tokens WHERE token_hash = $1 FOR UPDATE`
		if err := tx.QueryRow(ctx, sel, tokenHash).Scan(&uid, &expiresAt); err != nil {
			return mapErr("get email verification", err)
		}
		// Vencido: se rechaza sin tocar la fila ni el usuario.
		if !time.Now().Before(expiresAt) {
			return repository.ErrTokenExpired
		}

		if _, err := tx.Exec(ctx, `DELETE FROM email_verification_tokens WHERE token_hash = $1`, tokenHash); err != nil {
			return mapErr("delete email verification", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE users SET email_verified = true WHERE uid = $1`, uid)
		if err != nil {
			return mapErr("set email verified", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (r *recoveryRepo) CreatePasswordReset(ctx context.Context, t repository.PasswordResetToken) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	const q = `INSERT INTO password_reset_tokens (token_hash, uid, expires_at, used, created_at) VALUES ($1, $2, $3, false, now())`
	_, err := r.s.pool.Exec(ctx, q, t.TokenHash, t.UserID, t.ExpiresAt)
	return mapErr("create password reset", err)
}

func (r *recoveryRepo) ConsumePasswordReset(ctx context.Context, tokenHash, newPasswordHash string) (*repository.PasswordResetResult, error) {
	res := &repository.PasswordResetResult{}
	err := r.s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var (
			expiresAt time.Time
			used      bool
		)
		const sel = `SELECT uid, expires_at, used FROM password_reset_tokens WHERE token_hash = $1 FOR UPDATE`
		if err := tx.QueryRow(ctx, sel, tokenHash).Scan(&res.UserID, &expiresAt, &used); err != nil {
			return mapErr("get password reset", err)
		}
		if used {
			return repository.ErrTokenUsed
		}
		if !time.Now().Before(expiresAt) {
			return repository.ErrTokenExpired
		}

		// La fila se conserva (used=true) para auditoría.
		if _, err := tx.Exec(ctx, `UPDATE password_reset_tokens SET used = true, used_at = now() WHERE token_hash = $1`, tokenHash); err != nil {
			return mapErr("mark reset used", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE uid = $1`, res.UserID, newPasswordHash)
		if err != nil {
			return mapErr("update password hash", err)
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrNotFound
		}

		tag, err = tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE uid = $1`, res.UserID)
		if err != nil {
			return mapErr("revoke sessions", err)
		}
		res.RevokedSessions = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
