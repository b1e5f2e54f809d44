package middlewares

import (
	"errors"
	"net/http"

	"github.com/bjrfx/mediacore/internal/apikey"
	"github.com/bjrfx/mediacore/internal/domain/types"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/metrics"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// APIKeyHeader es el header que transporta la key.
const APIKeyHeader = "X-API-Key"

// APIKeyOptions configura RequireAPIKey.
type APIKeyOptions struct {
	Service *apikey.Service
	// AdminBypass: una sesión de admin válida saltea el chequeo de key.
	AdminBypass bool
	// Auth solo se usa para el bypass.
	Auth AuthDeps
}

// RequireAPIKey exige una API key con el permiso "<acción>:<recurso>" del request.
func RequireAPIKey(opts APIKeyOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Bypass: solo si hay Authorization y resuelve a un admin habilitado.
			// Cualquier falla cae al chequeo normal de key.
			if opts.AdminBypass && r.Header.Get("Authorization") != "" {
				if id, aerr := resolveIdentity(ctx, opts.Auth, r.Header.Get("Authorization")); aerr == nil {
					role, err := loadRole(ctx, opts.Auth.Users, id.UID)
					if err == nil && role.Can(types.CapAdminBypass) {
						metrics.APIKeyCheck(metrics.ResultBypass)
						ctx = WithRole(attachIdentity(ctx, id), role)
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}
			}

			grant, err := opts.Service.Authorize(ctx, r.Header.Get(APIKeyHeader), r.Method, r.URL.Path)
			if err != nil {
				httperrors.WriteError(w, r, apiKeyError(err))
				return
			}
			ctx = WithGrant(ctx, grant)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.APIKeyID(grant.KeyID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func apiKeyError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, apikey.ErrMissingKey):
		return httperrors.ErrAPIKeyMissing
	case errors.Is(err, apikey.ErrInvalidKey):
		return httperrors.ErrAPIKeyInvalid
	case errors.Is(err, apikey.ErrInactiveKey):
		return httperrors.ErrAPIKeyInactive
	case errors.Is(err, apikey.ErrExpiredKey):
		return httperrors.ErrAPIKeyExpired
	case errors.Is(err, apikey.ErrUnknownResource):
		return httperrors.ErrUnknownResource
	case errors.Is(err, apikey.ErrUnsupportedMethod):
		return httperrors.ErrUnsupportedMethod
	case errors.Is(err, apikey.ErrPermissionDenied):
		return httperrors.ErrInsufficientPermissions
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
