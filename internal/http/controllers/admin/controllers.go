// Package admin contiene los controllers de /admin.
package admin

import (
	"errors"

	"github.com/bjrfx/mediacore/internal/apikey"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	svc "github.com/bjrfx/mediacore/internal/http/services/admin"
)

// Controllers agrupa los controllers admin.
type Controllers struct {
	APIKeys *APIKeysController
	Users   *UsersController
}

// NewControllers crea el agregador de controllers admin.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		APIKeys: NewAPIKeysController(s.APIKeys),
		Users:   NewUsersController(s.Users),
	}
}

func mapError(err error) *httperrors.AppError {
	var inv *apikey.InvalidPermissionsError
	if errors.As(err, &inv) {
		fields := make([]httperrors.FieldError, 0, len(inv.Invalid))
		for _, p := range inv.Invalid {
			fields = append(fields, httperrors.FieldError{Field: "permissions", Message: "Unknown permission: " + p})
		}
		return httperrors.Validation(fields...)
	}
	var preset *apikey.UnknownPresetError
	if errors.As(err, &preset) {
		return httperrors.Validation(httperrors.FieldError{Field: "preset", Message: "Preset must be read_only, full_access or custom"})
	}

	switch {
	case errors.Is(err, apikey.ErrNameRequired):
		return httperrors.Validation(httperrors.FieldError{Field: "name", Message: "Name is required"})
	case errors.Is(err, apikey.ErrNoPermissions):
		return httperrors.Validation(httperrors.FieldError{Field: "permissions", Message: "At least one permission is required"})
	case errors.Is(err, apikey.ErrExpiryInPast):
		return httperrors.Validation(httperrors.FieldError{Field: "expiresAt", Message: "Expiry must be in the future"})
	case errors.Is(err, svc.ErrKeyNotFound):
		return httperrors.ErrNotFound.WithDetail("API key not found.")
	case errors.Is(err, svc.ErrUserNotFound):
		return httperrors.ErrNotFound.WithDetail("User not found.")
	case errors.Is(err, svc.ErrInvalidRole):
		return httperrors.Validation(httperrors.FieldError{Field: "role", Message: "Role must be user, moderator or admin"})
	case errors.Is(err, svc.ErrEmptyPatch):
		return httperrors.ErrBadRequest.WithDetail("Provide role and/or disabled.")
	case errors.Is(err, svc.ErrSelfModification):
		return httperrors.ErrForbidden.WithDetail("Admins cannot demote or disable their own account.")
	}
	return httperrors.ErrInternalServerError.WithCause(err)
}
