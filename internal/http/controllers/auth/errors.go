package auth

import (
	"context"
	"errors"

	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	svc "github.com/bjrfx/mediacore/internal/http/services/auth"
)

// mapError traduce los errores de los services a la taxonomía HTTP. Lo que no
// matchea es un 500 con la causa adjunta para el log.
func mapError(err error) *httperrors.AppError {
	var verr *svc.ValidationError
	if errors.As(err, &verr) {
		fields := make([]httperrors.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, httperrors.FieldError{Field: f.Field, Message: f.Message})
		}
		return httperrors.Validation(fields...)
	}
	var weak *svc.WeakPasswordError
	if errors.As(err, &weak) {
		return httperrors.ErrWeakPassword.WithData(map[string]any{"errors": weak.Violations})
	}

	switch {
	case errors.Is(err, svc.ErrInvalidCredentials):
		return httperrors.ErrInvalidCredentials
	case errors.Is(err, svc.ErrAccountDisabled):
		return httperrors.ErrAccountDisabled
	case errors.Is(err, svc.ErrEmailTaken):
		return httperrors.ErrEmailAlreadyInUse
	case errors.Is(err, svc.ErrUserNotFound):
		return httperrors.ErrUserNotFound
	case errors.Is(err, svc.ErrInvalidRefreshToken):
		return httperrors.ErrRefreshTokenInvalid
	case errors.Is(err, svc.ErrRefreshTokenExpired):
		return httperrors.ErrRefreshTokenExpired
	case errors.Is(err, svc.ErrPasswordAlreadySet):
		return httperrors.ErrPasswordAlreadySet
	case errors.Is(err, svc.ErrGoogleDisabled):
		return httperrors.ErrServiceUnavailable.WithDetail("Google sign-in is not configured.").WithCause(err)
	case errors.Is(err, svc.ErrInvalidGoogleToken):
		return httperrors.ErrGoogleTokenInvalid
	case errors.Is(err, svc.ErrGoogleAccountConflict), errors.Is(err, svc.ErrProviderEmailUnverified):
		return httperrors.ErrGoogleSignInConflict.WithCause(err)
	case errors.Is(err, svc.ErrInvalidResetToken):
		return httperrors.ErrInvalidResetToken
	case errors.Is(err, svc.ErrInvalidVerifyToken):
		return httperrors.ErrInvalidVerificationToken
	case errors.Is(err, svc.ErrEmailAlreadyVerified):
		return httperrors.ErrEmailAlreadyVerified
	case errors.Is(err, context.DeadlineExceeded):
		return httperrors.ErrServiceUnavailable.WithCause(err)
	}

	var appErr *httperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return httperrors.ErrInternalServerError.WithCause(err)
}
