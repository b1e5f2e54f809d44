package repository

import (
	"context"
	"time"
)

// EmailVerificationToken se borra al consumirse.
type EmailVerificationToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
}

// PasswordResetToken se marca como usado al consumirse y queda para auditoría.
type PasswordResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	Used      bool
}

// PasswordResetResult describe el efecto de un reset consumido.
type PasswordResetResult struct {
	UserID          string
	RevokedSessions int64
}

// RecoveryRepository define el ciclo de vida de los tokens de recuperación.
type RecoveryRepository interface {
	CreateEmailVerification(ctx context.Context, t EmailVerificationToken) error

	// ConsumeEmailVerification borra la fila y marca email_verified=true en una transacción.
	// Token inexistente: ErrNotFound. Vencido: ErrTokenExpired, sin mutar nada.
	ConsumeEmailVerification(ctx context.Context, tokenHash string) (uid string, err error)

	CreatePasswordReset(ctx context.Context, t PasswordResetToken) error

	// ConsumePasswordReset, en una transacción: marca used=true, guarda el hash nuevo
	// y borra todos los refresh tokens del usuario.
	// Inexistente: ErrNotFound. Usado: ErrTokenUsed. Vencido: ErrTokenExpired.
	ConsumePasswordReset(ctx context.Context, tokenHash, newPasswordHash string) (*PasswordResetResult, error)
}
