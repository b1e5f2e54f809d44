package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	"github.com/bjrfx/mediacore/internal/metrics"
	"github.com/bjrfx/mediacore/internal/oauth/google"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	"github.com/bjrfx/mediacore/internal/validation"
)

type googleService struct{ *core }

// SignIn reconcilia la identidad de Google con las cuentas locales, con dos
// búsquedas ordenadas (subject primero, email después):
//   - subject vinculado: usuario que vuelve, se refresca la foto
//   - email sin subject: se vincula (el provider debe haber verificado el email)
//   - ninguno: cuenta nueva sin password
//
// Una cuenta deshabilitada corta con 403 antes de emitir tokens, en cualquier rama.
func (s *googleService) SignIn(ctx context.Context, in dto.GoogleRequest) (*dto.GoogleResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.google"),
		logger.Op("SignIn"),
		logger.Provider("google"),
	)
	if s.Google == nil {
		return nil, ErrGoogleDisabled
	}

	// Paso 0: Credencial
	in.IDToken = strings.TrimSpace(in.IDToken)
	in.Code = strings.TrimSpace(in.Code)
	if (in.IDToken == "") == (in.Code == "") {
		return nil, &ValidationError{Fields: []FieldError{{Field: "idToken", Message: "Provide exactly one of idToken or code"}}}
	}

	// Paso 1: Verificar con Google
	var (
		id  *google.Identity
		err error
	)
	if in.IDToken != "" {
		id, err = s.Google.VerifyIDToken(ctx, in.IDToken)
	} else {
		id, err = s.Google.ExchangeCode(ctx, in.Code)
	}
	if err != nil {
		if errors.Is(err, google.ErrInvalidToken) {
			metrics.LoginResult(metrics.ResultInvalid)
			log.Debug("google credential rejected", logger.Err(err))
			return nil, ErrInvalidGoogleToken
		}
		return nil, fmt.Errorf("google verify: %w", err)
	}
	id.Email = validation.NormalizeEmail(id.Email)
	if id.SubjectID == "" || id.Email == "" {
		return nil, ErrInvalidGoogleToken
	}

	// Paso 2: Resolver cuenta. Si dos requests crean la misma cuenta a la vez, el
	// perdedor ve el conflicto y reintenta como usuario existente.
	var (
		u     *repository.User
		isNew bool
	)
	for attempt := 0; attempt < 2; attempt++ {
		u, isNew, err = s.resolve(ctx, id)
		if err == nil || !errors.Is(err, errRetryResolve) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, errRetryResolve) {
			return nil, ErrGoogleAccountConflict
		}
		if errors.Is(err, ErrAccountDisabled) {
			metrics.LoginResult(metrics.ResultDisabled)
		}
		return nil, err
	}
	log = log.With(logger.UserID(u.UID), logger.Bool("new_user", isNew))

	// Paso 3: Sesión
	tk, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	view, err := s.userView(ctx, u)
	if err != nil {
		return nil, err
	}
	metrics.LoginResult(metrics.ResultOK)
	log.Info("google sign-in")
	return &dto.GoogleResult{
		User:          *view,
		Tokens:        *tk,
		IsNewUser:     isNew,
		NeedsPassword: !u.HasPassword(),
	}, nil
}

var errRetryResolve = errors.New("retry account resolution")

func (s *googleService) resolve(ctx context.Context, id *google.Identity) (*repository.User, bool, error) {
	// Búsqueda 1: subject
	u, err := s.Users.GetByGoogleID(ctx, id.SubjectID)
	switch {
	case err == nil:
		if u.Disabled {
			return nil, false, ErrAccountDisabled
		}
		if err := s.Users.RecordSignIn(ctx, u.UID, id.PictureURL); err != nil {
			return nil, false, fmt.Errorf("record sign-in: %w", err)
		}
		u, err = s.reload(ctx, u.UID)
		return u, false, err
	case !repository.IsNotFound(err):
		return nil, false, fmt.Errorf("lookup by google id: %w", err)
	}

	// Búsqueda 2: email
	u, err = s.Users.GetByEmail(ctx, id.Email)
	switch {
	case err == nil:
		if u.GoogleID != "" {
			// el email ya está vinculado a otro subject de Google
			return nil, false, ErrGoogleAccountConflict
		}
		if u.Disabled {
			return nil, false, ErrAccountDisabled
		}
		if !id.EmailVerified {
			return nil, false, ErrProviderEmailUnverified
		}
		if err := s.Users.LinkGoogle(ctx, u.UID, id.SubjectID, id.PictureURL); err != nil {
			if repository.IsConflict(err) {
				return nil, false, errRetryResolve
			}
			return nil, false, fmt.Errorf("link google: %w", err)
		}
		u, err = s.reload(ctx, u.UID)
		return u, false, err
	case !repository.IsNotFound(err):
		return nil, false, fmt.Errorf("lookup by email: %w", err)
	}

	// Sin match: cuenta nueva
	u, err = s.Users.Create(ctx, repository.CreateUserInput{
		Email:            id.Email,
		PasswordHash:     repository.EmptyPasswordHash,
		GoogleID:         id.SubjectID,
		DisplayName:      id.DisplayName,
		PhotoURL:         id.PictureURL,
		EmailVerified:    id.EmailVerified,
		SubscriptionTier: types.TierFree,
		Role:             types.RoleUser,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, false, errRetryResolve
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	if err := s.Users.RecordSignIn(ctx, u.UID, ""); err != nil {
		return nil, false, fmt.Errorf("record sign-in: %w", err)
	}
	u, err = s.reload(ctx, u.UID)
	return u, true, err
}

func (s *googleService) reload(ctx context.Context, uid string) (*repository.User, error) {
	u, err := s.Users.GetByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	return u, nil
}
