package repository

import (
	"context"
	"time"
)

// APIKey es una credencial de cliente no interactivo.
type APIKey struct {
	ID          string
	KeyHash     string // SHA-256 hex de la key completa
	KeyPrefix   string // primeros caracteres, solo para mostrar
	Name        string
	Permissions []string
	IsActive    bool
	ExpiresAt   *time.Time // nil = nunca
	UsageCount  int64
	LastUsedAt  *time.Time
	CreatedBy   string
	CreatedAt   time.Time
}

// Usable reporta si la key está activa y no vencida en el instante dado.
func (k *APIKey) Usable(now time.Time) bool {
	if !k.IsActive {
		return false
	}
	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}

// APIKeyRepository define operaciones sobre API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, k APIKey) error

	// GetByHash retorna ErrNotFound si no existe.
	GetByHash(ctx context.Context, keyHash string) (*APIKey, error)

	List(ctx context.Context) ([]APIKey, error)

	// Revoke desactiva la key. Retorna ErrNotFound si no existe.
	// Retorna el hash para que el caller invalide caches.
	Revoke(ctx context.Context, id string) (keyHash string, err error)

	// RecordUsage incrementa usage_count y fija last_used_at.
	RecordUsage(ctx context.Context, id string, at time.Time) error
}
