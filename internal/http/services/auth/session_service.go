package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	jwtx "github.com/bjrfx/mediacore/internal/jwt"
	"github.com/bjrfx/mediacore/internal/metrics"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	tokens "github.com/bjrfx/mediacore/internal/security/token"
)

type sessionService struct{ *core }

// Refresh consume el refresh token y emite un par nuevo. Un token se puede usar
// una sola vez: el consumo es un borrado condicional dentro de Rotate.
func (s *sessionService) Refresh(ctx context.Context, raw string) (*dto.AuthResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Refresh"),
	)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "refreshToken", Message: "Refresh token is required"}}}
	}
	hash := tokens.SHA256Hex(raw)

	// Paso 1: Firma y tipo. Un JWT vencido con firma válida limpia su fila.
	claims, err := s.Issuer.Verify(raw, jwtx.TypeRefresh)
	if errors.Is(err, jwtx.ErrExpired) {
		if _, derr := s.core.Refresh.DeleteByToken(ctx, hash); derr != nil {
			log.Warn("delete expired refresh token failed", logger.Err(derr))
		}
		metrics.RefreshResult(metrics.ResultExpired)
		return nil, ErrRefreshTokenExpired
	}
	if err != nil {
		metrics.RefreshResult(metrics.ResultInvalid)
		log.Debug("refresh token rejected", logger.Err(err))
		return nil, ErrInvalidRefreshToken
	}
	log = log.With(logger.UserID(claims.UID))

	// Paso 2: La fila debe existir para ese uid
	row, err := s.core.Refresh.Get(ctx, hash, claims.UID)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.RefreshResult(metrics.ResultInvalid)
			log.Info("refresh token not registered (revoked or reused)")
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if row.Expired(s.Now()) {
		if _, derr := s.core.Refresh.DeleteByToken(ctx, hash); derr != nil {
			log.Warn("delete expired refresh token failed", logger.Err(derr))
		}
		metrics.RefreshResult(metrics.ResultExpired)
		return nil, ErrRefreshTokenExpired
	}

	// Paso 3: El store manda sobre el estado de la cuenta
	u, err := s.Users.GetByID(ctx, claims.UID)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.RefreshResult(metrics.ResultInvalid)
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u.Disabled {
		metrics.RefreshResult(metrics.ResultDisabled)
		return nil, ErrAccountDisabled
	}

	// Paso 4: Rotación atómica
	m, err := s.mint(u)
	if err != nil {
		return nil, err
	}
	if err := s.core.Refresh.Rotate(ctx, hash, u.UID, m.row); err != nil {
		if repository.IsNotFound(err) {
			// otro request consumió el token primero
			metrics.RefreshResult(metrics.ResultInvalid)
			log.Info("refresh token already consumed")
			return nil, ErrInvalidRefreshToken
		}
		metrics.RefreshResult(metrics.ResultError)
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	view, err := s.userView(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.RefreshResult(metrics.ResultOK)
	return &dto.AuthResult{User: *view, Tokens: m.tokens}, nil
}

// Logout borra la fila del refresh token. Idempotente.
func (s *sessionService) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &ValidationError{Fields: []FieldError{{Field: "refreshToken", Message: "Refresh token is required"}}}
	}
	deleted, err := s.core.Refresh.DeleteByToken(ctx, tokens.SHA256Hex(raw))
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	logger.From(ctx).Debug("logout", logger.Component("auth.session"), logger.Bool("deleted", deleted))
	return nil
}
