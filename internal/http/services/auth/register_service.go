package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	"github.com/bjrfx/mediacore/internal/util"
	"github.com/bjrfx/mediacore/internal/validation"
)

type registerService struct{ *core }

func (s *registerService) Register(ctx context.Context, in dto.RegisterRequest) (*dto.AuthResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	// Paso 0: Normalización y validación de formato
	in.Email = validation.NormalizeEmail(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	verr := &ValidationError{}
	switch {
	case in.Email == "":
		verr.add("email", "Email is required")
	case !validation.ValidEmail(in.Email):
		verr.add("email", "Email is not valid")
	}
	if in.Password == "" {
		verr.add("password", "Password is required")
	}
	if !validation.ValidDisplayName(in.DisplayName) {
		verr.add("displayName", "Display name is not valid")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	// Paso 1: Fortaleza del password
	if err := s.checkStrength(in.Password); err != nil {
		return nil, err
	}

	// Paso 2: Email libre (el unique del store cubre la carrera)
	if _, err := s.Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	// Paso 3: Hash fuera del path de serving
	hash, err := s.Hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	// Paso 4: Crear usuario + rol
	u, err := s.Users.Create(ctx, repository.CreateUserInput{
		Email:            in.Email,
		PasswordHash:     hash,
		DisplayName:      in.DisplayName,
		EmailVerified:    false,
		SubscriptionTier: types.TierFree,
		Role:             types.RoleUser,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log = log.With(logger.UserID(u.UID))

	// Paso 5: Link de verificación (best-effort: la cuenta ya existe)
	if err := s.sendVerification(ctx, u); err != nil {
		log.Warn("verification email not sent", logger.Email(util.MaskEmail(u.Email)), logger.Err(err))
	}

	// Paso 6: Sesión
	tk, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	view, err := s.userView(ctx, u)
	if err != nil {
		return nil, err
	}
	log.Info("user registered")
	return &dto.AuthResult{User: *view, Tokens: *tk}, nil
}
