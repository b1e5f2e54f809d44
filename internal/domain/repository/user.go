package repository

import (
	"context"
	"time"

	"github.com/bjrfx/mediacore/internal/domain/types"
)

// EmptyPasswordHash es el centinela de "sin password" (cuenta solo OAuth).
// Ningún hash real de bcrypt puede ser vacío.
const EmptyPasswordHash = ""

// User representa una cuenta de la plataforma.
type User struct {
	UID              string
	Email            string
	PasswordHash     string
	GoogleID         string // vacío = no vinculado
	DisplayName      string
	PhotoURL         string
	EmailVerified    bool
	Disabled         bool
	SubscriptionTier types.SubscriptionTier
	CreatedAt        time.Time
	LastSignInAt     *time.Time
}

// HasPassword reporta si la cuenta tiene un password real.
func (u *User) HasPassword() bool {
	return u.PasswordHash != EmptyPasswordHash
}

// CreateUserInput contiene los datos para crear un usuario junto a su rol.
type CreateUserInput struct {
	Email            string
	PasswordHash     string
	GoogleID         string
	DisplayName      string
	PhotoURL         string
	EmailVerified    bool
	SubscriptionTier types.SubscriptionTier
	Role             types.Role
}

// UserRepository define operaciones sobre usuarios y su fila de rol.
type UserRepository interface {
	// Create inserta el usuario y su fila de rol en una sola transacción.
	// Retorna ErrConflict si el email o el google id ya existen.
	Create(ctx context.Context, in CreateUserInput) (*User, error)

	// GetByID busca por uid. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, uid string) (*User, error)

	// GetByEmail busca por email normalizado. Retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByGoogleID busca por subject de Google. Retorna ErrNotFound si no existe.
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)

	// LinkGoogle vincula el subject a una cuenta sin vincular y marca el email como verificado.
	// Retorna ErrConflict si la cuenta ya tiene otro subject vinculado.
	LinkGoogle(ctx context.Context, uid, googleID, photoURL string) error

	// RecordSignIn actualiza last_sign_in_at y, si photoURL no es vacío, la foto.
	RecordSignIn(ctx context.Context, uid, photoURL string) error

	// SetPasswordIfEmpty guarda el hash solo si el actual es EmptyPasswordHash.
	// Retorna false si la cuenta ya tenía password.
	SetPasswordIfEmpty(ctx context.Context, uid, hash string) (bool, error)

	// SetEmailVerified marca el email como verificado.
	SetEmailVerified(ctx context.Context, uid string) error

	// SetDisabled habilita o deshabilita la cuenta.
	SetDisabled(ctx context.Context, uid string, disabled bool) error

	// GetRole lee la fila de rol. Retorna ErrNotFound si no existe.
	GetRole(ctx context.Context, uid string) (types.Role, error)

	// SetRole reemplaza el rol del usuario.
	SetRole(ctx context.Context, uid string, role types.Role) error
}
