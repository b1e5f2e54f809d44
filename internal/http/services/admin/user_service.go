package admin

import (
	"context"
	"fmt"

	"github.com/bjrfx/mediacore/internal/audit"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
	dto "github.com/bjrfx/mediacore/internal/http/dto/admin"
	authdto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

type userService struct {
	users   repository.UserRepository
	refresh repository.RefreshTokenRepository
}

// Patch cambia rol y/o estado. Deshabilitar revoca todas las sesiones; el
// middleware ya rechaza los access tokens vigentes porque relee el usuario.
func (s *userService) Patch(ctx context.Context, actorUID, uid string, in dto.PatchUserRequest) (*authdto.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.users"),
		logger.Op("Patch"),
		logger.UserID(uid),
		logger.String("actor_uid", actorUID),
	)

	// Paso 0: Validación
	if in.Role == nil && in.Disabled == nil {
		return nil, ErrEmptyPatch
	}
	var role types.Role
	if in.Role != nil {
		r, err := types.ParseRole(*in.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = r
	}
	if uid == actorUID && ((in.Role != nil && role != types.RoleAdmin) || (in.Disabled != nil && *in.Disabled)) {
		return nil, ErrSelfModification
	}

	// Paso 1: Existe
	if _, err := s.users.GetByID(ctx, uid); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	// Paso 2: Aplicar
	if in.Role != nil {
		if err := s.users.SetRole(ctx, uid, role); err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("set role: %w", err)
		}
		log.Info("role changed", logger.Role(role.String()))
		audit.Log(ctx, audit.EventRoleChanged, audit.Actor(actorUID), logger.UserID(uid), logger.Role(role.String()))
	}
	if in.Disabled != nil {
		if err := s.users.SetDisabled(ctx, uid, *in.Disabled); err != nil {
			return nil, fmt.Errorf("set disabled: %w", err)
		}
		if *in.Disabled && s.refresh != nil {
			n, err := s.refresh.DeleteAllForUser(ctx, uid)
			if err != nil {
				log.Warn("revoke sessions failed", logger.Err(err))
			} else {
				log.Info("sessions revoked", logger.Count(int(n)))
			}
		}
		log.Info("account status changed", logger.Bool("disabled", *in.Disabled))
		event := audit.EventUserEnabled
		if *in.Disabled {
			event = audit.EventUserDisabled
		}
		audit.Log(ctx, event, audit.Actor(actorUID), logger.UserID(uid))
	}

	// Paso 3: Vista actualizada
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	current, err := s.users.GetRole(ctx, uid)
	if repository.IsNotFound(err) {
		current, err = types.RoleUser, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	view := authdto.NewUser(u, current)
	return &view, nil
}
