// Package admin contiene los services de /admin: API keys y moderación de usuarios.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/bjrfx/mediacore/internal/apikey"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	dto "github.com/bjrfx/mediacore/internal/http/dto/admin"
	authdto "github.com/bjrfx/mediacore/internal/http/dto/auth"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrKeyNotFound      = errors.New("api key not found")
	ErrInvalidRole      = errors.New("invalid role")
	ErrEmptyPatch       = errors.New("nothing to update")
	ErrSelfModification = errors.New("admins cannot demote or disable themselves")
)

// Deps contiene las dependencias de los services admin.
type Deps struct {
	Users   repository.UserRepository
	Refresh repository.RefreshTokenRepository
	APIKeys *apikey.Service
}

// APIKeyService administra las API keys.
type APIKeyService interface {
	Create(ctx context.Context, createdBy string, in dto.CreateAPIKeyRequest) (*dto.APIKey, error)
	List(ctx context.Context) ([]dto.APIKey, error)
	Revoke(ctx context.Context, id string) error
}

// UserService aplica cambios de rol y estado sobre cuentas.
type UserService interface {
	Patch(ctx context.Context, actorUID, uid string, in dto.PatchUserRequest) (*authdto.User, error)
}

// Services agrupa los services admin.
type Services struct {
	APIKeys APIKeyService
	Users   UserService
}

// NewServices crea el agregador de services admin.
func NewServices(d Deps) Services {
	return Services{
		APIKeys: &apiKeyService{keys: d.APIKeys},
		Users:   &userService{users: d.Users, refresh: d.Refresh},
	}
}

// keyView convierte el registro a su vista; nunca incluye el hash.
func keyView(k repository.APIKey) dto.APIKey {
	perms := k.Permissions
	if perms == nil {
		perms = []string{}
	}
	return dto.APIKey{
		ID:          k.ID,
		Prefix:      k.KeyPrefix,
		Name:        k.Name,
		Permissions: perms,
		IsActive:    k.IsActive,
		ExpiresAt:   utcPtr(k.ExpiresAt),
		UsageCount:  k.UsageCount,
		LastUsedAt:  utcPtr(k.LastUsedAt),
		CreatedBy:   k.CreatedBy,
		CreatedAt:   k.CreatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
