package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
)

type userRepo struct{ s *Store }

const userColumns = `uid, email, password_hash, COALESCE(google_id, ''), display_name, photo_url,
	email_verified, disabled, subscription_tier, created_at, last_sign_in_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var (
		u    repository.User
		tier string
	)
	err := row.Scan(
		&u.UID, &u.Email, &u.PasswordHash, &u.GoogleID, &u.DisplayName, &u.PhotoURL,
		&u.EmailVerified, &u.Disabled, &tier, &u.CreatedAt, &u.LastSignInAt,
	)
	if err != nil {
		return nil, err
	}
	u.SubscriptionTier = types.SubscriptionTier(tier)
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	role := in.Role
	if role == "" {
		role = types.RoleUser
	}
	tier := in.SubscriptionTier
	if tier == "" {
		tier = types.TierFree
	}

	var out *repository.User
	err := r.s.inTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		const insertUser = `
			INSERT INTO users (uid, email, password_hash, google_id, display_name, photo_url,
				email_verified, disabled, subscription_tier, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $9)
			RETURNING ` + userColumns
		u, err := scanUser(tx.QueryRow(ctx, insertUser,
			uuid.NewString(), in.Email, in.PasswordHash, nullIfEmpty(in.GoogleID),
			in.DisplayName, in.PhotoURL, in.EmailVerified, string(tier), time.Now().UTC(),
		))
		if err != nil {
			return mapErr("insert user", err)
		}

		const insertRole = `INSERT INTO user_roles (uid, role) VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, insertRole, u.UID, string(role)); err != nil {
			return mapErr("insert role", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) getBy(ctx context.Context, column, value string) (*repository.User, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	// column viene de constantes internas, nunca del request
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	u, err := scanUser(r.s.pool.QueryRow(ctx, q, value))
	if err != nil {
		return nil, mapErr("get user by "+column, err)
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, uid string) (*repository.User, error) {
	if _, err := uuid.Parse(uid); err != nil {
		return nil, repository.ErrNotFound
	}
	return r.getBy(ctx, "uid", uid)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *userRepo) GetByGoogleID(ctx context.Context, googleID string) (*repository.User, error) {
	return r.getBy(ctx, "google_id", googleID)
}

func (r *userRepo) LinkGoogle(ctx context.Context, uid, googleID, photoURL string) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	const q = `
		UPDATE users
		SET google_id = $2, email_verified = true,
			photo_url = CASE WHEN photo_url = '' THEN $3 ELSE photo_url END,
			last_sign_in_at = now()
		WHERE uid = $1 AND google_id IS NULL`
	tag, err := r.s.pool.Exec(ctx, q, uid, googleID, photoURL)
	if err != nil {
		return mapErr("link google", err)
	}
	if tag.RowsAffected() != 1 {
		return repository.ErrConflict
	}
	return nil
}

func (r *userRepo) RecordSignIn(ctx context.Context, uid, photoURL string) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	const q = `
		UPDATE users
		SET last_sign_in_at = now(),
			photo_url = CASE WHEN $2 = '' THEN photo_url ELSE $2 END
		WHERE uid = $1`
	tag, err := r.s.pool.Exec(ctx, q, uid, photoURL)
	if err != nil {
		return mapErr("record sign in", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetPasswordIfEmpty(ctx context.Context, uid, hash string) (bool, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	const q = `UPDATE users SET password_hash = $2 WHERE uid = $1 AND password_hash = ''`
	tag, err := r.s.pool.Exec(ctx, q, uid, hash)
	if err != nil {
		return false, mapErr("set password", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepo) SetEmailVerified(ctx context.Context, uid string) error {
	return r.exec(ctx, "set email verified", `UPDATE users SET email_verified = true WHERE uid = $1`, uid)
}

func (r *userRepo) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	return r.exec(ctx, "set disabled", `UPDATE users SET disabled = $2 WHERE uid = $1`, uid, disabled)
}

func (r *userRepo) GetRole(ctx context.Context, uid string) (types.Role, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	var role string
	err := r.s.pool.QueryRow(ctx, `SELECT role FROM user_roles WHERE uid = $1`, uid).Scan(&role)
	if err != nil {
		return "", mapErr("get role", err)
	}
	return types.ParseRole(role)
}

func (r *userRepo) SetRole(ctx context.Context, uid string, role types.Role) error {
	return r.exec(ctx, "set role", `UPDATE user_roles SET role = $2 WHERE uid = $1`, uid, string(role))
}

// exec corre un UPDATE de una fila y traduce 0 filas a ErrNotFound.
func (r *userRepo) exec(ctx context.Context, op, q string, args ...any) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	tag, err := r.s.pool.Exec(ctx, q, args...)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
