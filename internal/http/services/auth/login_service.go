package auth

import (
	"context"
	"fmt"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	"github.com/bjrfx/mediacore/internal/metrics"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	"github.com/bjrfx/mediacore/internal/validation"
)

type loginService struct{ *core }

func (s *loginService) Login(ctx context.Context, in dto.LoginRequest) (*dto.AuthResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	// Paso 0: Normalización
	in.Email = validation.NormalizeEmail(in.Email)
	verr := &ValidationError{}
	if in.Email == "" {
		verr.add("email", "Email is required")
	}
	if in.Password == "" {
		verr.add("password", "Password is required")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	// Paso 1: Buscar usuario. Email inexistente y cuenta sin password pagan el
	// mismo bcrypt y devuelven el mismo error que un password incorrecto.
	u, err := s.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if !repository.IsNotFound(err) {
			metrics.LoginResult(metrics.ResultError)
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		if derr := s.Hasher.VerifyDummy(ctx, in.Password); derr != nil {
			return nil, derr
		}
		metrics.LoginResult(metrics.ResultInvalid)
		log.Debug("user not found")
		return nil, ErrInvalidCredentials
	}
	log = log.With(logger.UserID(u.UID))

	// Paso 2: Password
	ok, err := s.Hasher.Verify(ctx, in.Password, u.PasswordHash)
	if err != nil {
		metrics.LoginResult(metrics.ResultError)
		return nil, err
	}
	if !ok {
		metrics.LoginResult(metrics.ResultInvalid)
		log.Debug("password check failed", logger.Bool("has_password", u.HasPassword()))
		return nil, ErrInvalidCredentials
	}

	// Paso 3: Estado de la cuenta (solo se revela con el password correcto)
	if u.Disabled {
		metrics.LoginResult(metrics.ResultDisabled)
		log.Info("login rejected: account disabled")
		return nil, ErrAccountDisabled
	}

	// Paso 4: Sesión
	if err := s.Users.RecordSignIn(ctx, u.UID, ""); err != nil {
		log.Warn("record sign-in failed", logger.Err(err))
	}
	if u, err = s.Users.GetByID(ctx, u.UID); err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	tk, err := s.issueSession(ctx, u)
	if err != nil {
		metrics.LoginResult(metrics.ResultError)
		return nil, err
	}
	view, err := s.userView(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.LoginResult(metrics.ResultOK)
	log.Info("user logged in")
	return &dto.AuthResult{User: *view, Tokens: *tk}, nil
}
