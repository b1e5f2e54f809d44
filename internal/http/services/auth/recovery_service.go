package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	tokens "github.com/bjrfx/mediacore/internal/security/token"
	"github.com/bjrfx/mediacore/internal/util"
	"github.com/bjrfx/mediacore/internal/validation"
)

type recoveryService struct{ *core }

// sendVerification crea un token de verificación (24h) y manda el link.
func (c *core) sendVerification(ctx context.Context, u *repository.User) error {
	raw, err := tokens.GenerateOpaqueToken(tokens.RecoveryTokenBytes)
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	if err := c.Recovery.CreateEmailVerification(ctx, repository.EmailVerificationToken{
		TokenHash: tokens.SHA256Hex(raw),
		UserID:    u.UID,
		ExpiresAt: c.Now().UTC().Add(c.VerifyTTL),
	}); err != nil {
		return fmt.Errorf("persist verification token: %w", err)
	}
	if c.Mailer == nil {
		return nil
	}
	return c.Mailer.SendVerification(u.Email, u.DisplayName, raw, c.VerifyTTL)
}

// ForgotPassword siempre responde igual, exista o no el email. Las fallas
// internas se loguean y no se propagan para no filtrar qué cuentas existen.
func (s *recoveryService) ForgotPassword(ctx context.Context, email string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.recovery"),
		logger.Op("ForgotPassword"),
	)

	email = validation.NormalizeEmail(email)
	if email == "" || !validation.ValidEmail(email) {
		return &ValidationError{Fields: []FieldError{{Field: "email", Message: "A valid email is required"}}}
	}
	log = log.With(logger.Email(util.MaskEmail(email)))

	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if !repository.IsNotFound(err) {
			log.Error("lookup user failed", logger.Err(err))
		}
		return nil
	}
	if u.Disabled {
		log.Info("reset requested for disabled account")
		return nil
	}

	raw, err := tokens.GenerateOpaqueToken(tokens.RecoveryTokenBytes)
	if err != nil {
		log.Error("generate reset token failed", logger.Err(err))
		return nil
	}
	if err := s.Recovery.CreatePasswordReset(ctx, repository.PasswordResetToken{
		TokenHash: tokens.SHA256Hex(raw),
		UserID:    u.UID,
		ExpiresAt: s.Now().UTC().Add(s.ResetTTL),
	}); err != nil {
		log.Error("persist reset token failed", logger.Err(err))
		return nil
	}
	log.Info("password reset issued", logger.UserID(u.UID))
	if s.Mailer != nil {
		// El SMTP va fuera del request: su latencia no debe delatar qué emails existen.
		s.mail.Add(1)
		go func(to, name string) {
			defer s.mail.Done()
			if err := s.Mailer.SendPasswordReset(to, name, raw, s.ResetTTL); err != nil {
				log.Error("reset email not sent", logger.UserID(u.UID), logger.Err(err))
			}
		}(u.Email, u.DisplayName)
	}
	return nil
}

// ResetPassword consume el token: marca used, guarda el hash nuevo y revoca
// todas las sesiones del usuario en una sola transacción.
func (s *recoveryService) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.recovery"),
		logger.Op("ResetPassword"),
	)

	token = strings.TrimSpace(token)
	verr := &ValidationError{}
	if token == "" {
		verr.add("token", "Reset token is required")
	}
	if newPassword == "" {
		verr.add("password", "Password is required")
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	if err := s.checkStrength(newPassword); err != nil {
		return err
	}

	hash, err := s.Hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	res, err := s.Recovery.ConsumePasswordReset(ctx, tokens.SHA256Hex(token), hash)
	if err != nil {
		if repository.IsNotFound(err) || errors.Is(err, repository.ErrTokenUsed) || errors.Is(err, repository.ErrTokenExpired) {
			log.Info("reset token rejected", logger.Err(err))
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}
	log.Info("password reset", logger.UserID(res.UserID), logger.Int("revoked_sessions", int(res.RevokedSessions)))
	return nil
}

// VerifyEmail consume el token de verificación. Vencido: falla sin mutar nada.
func (s *recoveryService) VerifyEmail(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidVerifyToken
	}
	uid, err := s.Recovery.ConsumeEmailVerification(ctx, tokens.SHA256Hex(token))
	if err != nil {
		if repository.IsNotFound(err) || errors.Is(err, repository.ErrTokenExpired) {
			return "", ErrInvalidVerifyToken
		}
		return "", fmt.Errorf("consume verification token: %w", err)
	}
	logger.From(ctx).Info("email verified", logger.Component("auth.recovery"), logger.UserID(uid))
	return uid, nil
}

// ResendVerification emite un token nuevo para el usuario autenticado.
func (s *recoveryService) ResendVerification(ctx context.Context, uid string) error {
	u, err := s.Users.GetByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	if u.EmailVerified {
		return ErrEmailAlreadyVerified
	}
	if err := s.sendVerification(ctx, u); err != nil {
		return fmt.Errorf("resend verification: %w", err)
	}
	return nil
}
