package repository

import (
	"context"
	"time"
)

// RefreshToken representa una sesión viva. Borrar la fila es la única forma de revocarla.
type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reporta si la fila está vencida en el instante dado.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// RefreshTokenRepository es el registro persistente de refresh tokens.
type RefreshTokenRepository interface {
	// Put persiste una fila nueva.
	Put(ctx context.Context, t RefreshToken) error

	// Get busca la fila por hash, acotada al uid del token. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, tokenHash, uid string) (*RefreshToken, error)

	// DeleteByToken borra la fila si existe. Idempotente: retorna false si no había fila.
	DeleteByToken(ctx context.Context, tokenHash string) (bool, error)

	// DeleteAllForUser borra todas las sesiones del usuario. Retorna cuántas borró.
	DeleteAllForUser(ctx context.Context, uid string) (int64, error)

	// Rotate consume la fila vieja y persiste la nueva de forma atómica.
	// El borrado es condicional: si no afectó exactamente una fila retorna ErrNotFound
	// y no inserta nada.
	Rotate(ctx context.Context, oldHash, uid string, next RefreshToken) error
}
