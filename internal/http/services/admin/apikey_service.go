package admin

import (
	"context"
	"fmt"

	"github.com/bjrfx/mediacore/internal/apikey"
	"github.com/bjrfx/mediacore/internal/audit"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	dto "github.com/bjrfx/mediacore/internal/http/dto/admin"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

type apiKeyService struct {
	keys *apikey.Service
}

// Create emite una key nueva. La key en claro solo viaja en esta respuesta.
func (s *apiKeyService) Create(ctx context.Context, createdBy string, in dto.CreateAPIKeyRequest) (*dto.APIKey, error) {
	c, err := s.keys.Create(ctx, apikey.CreateInput{
		Name:        in.Name,
		Preset:      in.Preset,
		Permissions: in.Permissions,
		ExpiresAt:   in.ExpiresAt,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return nil, err
	}
	audit.Log(ctx, audit.EventAPIKeyCreated,
		audit.Actor(createdBy),
		logger.APIKeyID(c.Record.ID),
		logger.Any("permissions", c.Record.Permissions),
	)
	view := keyView(c.Record)
	view.Key = c.Key
	return &view, nil
}

func (s *apiKeyService) List(ctx context.Context) ([]dto.APIKey, error) {
	keys, err := s.keys.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	out := make([]dto.APIKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, keyView(k))
	}
	return out, nil
}

// Revoke desactiva la key. Revocar dos veces no es error.
func (s *apiKeyService) Revoke(ctx context.Context, id string) error {
	if err := s.keys.Revoke(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("revoke api key: %w", err)
	}
	audit.Log(ctx, audit.EventAPIKeyRevoked, logger.APIKeyID(id))
	return nil
}
