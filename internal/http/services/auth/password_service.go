package auth

import (
	"context"
	"fmt"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

type passwordService struct{ *core }

// SetPassword fija el password de una cuenta creada por Google. Solo funciona
// mientras el hash es EMPTY; cambiar un password existente va por reset.
func (s *passwordService) SetPassword(ctx context.Context, uid, newPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("SetPassword"),
		logger.UserID(uid),
	)

	if newPassword == "" {
		return &ValidationError{Fields: []FieldError{{Field: "password", Message: "Password is required"}}}
	}
	if err := s.checkStrength(newPassword); err != nil {
		return err
	}

	// Chequeo barato antes del bcrypt; el update condicional decide de verdad.
	u, err := s.Users.GetByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if u.HasPassword() {
		return ErrPasswordAlreadySet
	}

	hash, err := s.Hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	ok, err := s.Users.SetPasswordIfEmpty(ctx, uid, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set password: %w", err)
	}
	if !ok {
		return ErrPasswordAlreadySet
	}
	log.Info("password set")
	return nil
}
