package repository

import "context"

// Store agrupa los repositorios de un backend concreto.
type Store interface {
	Users() UserRepository
	RefreshTokens() RefreshTokenRepository
	Recovery() RecoveryRepository
	APIKeys() APIKeyRepository

	// Ping verifica conectividad (usado por /healthz).
	Ping(ctx context.Context) error
	Close()
}
