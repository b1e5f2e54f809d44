package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	jwtx "github.com/bjrfx/mediacore/internal/jwt"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// AuthDeps son las dependencias de la resolución de identidad.
type AuthDeps struct {
	Issuer *jwtx.Issuer
	Users  repository.UserRepository
}

// =================================================================================
// AUTHENTICATION MIDDLEWARES
// =================================================================================

// RequireAuth valida "Authorization: Bearer <access token>", vuelve a leer el usuario
// del store y adjunta la Identity. Las claims del token no deciden nada: un usuario
// borrado es 401 y uno deshabilitado es 403 aunque su token siga vigente.
func RequireAuth(d AuthDeps) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolveIdentity(r.Context(), d, r.Header.Get("Authorization"))
			if err != nil {
				if err.HTTPStatus == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				}
				httperrors.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(attachIdentity(r.Context(), id)))
		})
	}
}

func attachIdentity(ctx context.Context, id *Identity) context.Context {
	ctx = WithIdentity(ctx, id)
	return logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(id.UID)))
}

func resolveIdentity(ctx context.Context, d AuthDeps, header string) (*Identity, *httperrors.AppError) {
	// Paso 1: header
	raw, ok := jwtx.ExtractBearer(header)
	if !ok || raw == "" {
		return nil, httperrors.ErrTokenMissing
	}

	// Paso 2: firma, vencimiento y tipo
	claims, err := d.Issuer.Verify(raw, jwtx.TypeAccess)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return nil, httperrors.ErrTokenExpired
	case err != nil:
		return nil, httperrors.ErrTokenInvalid
	}

	// Paso 3: el store manda
	u, err := d.Users.GetByID(ctx, claims.UID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, httperrors.ErrUserNotFound
		}
		return nil, httperrors.ErrInternalServerError.WithCause(err)
	}
	if u.Disabled {
		return nil, httperrors.ErrAccountDisabled
	}

	return &Identity{
		UID:              u.UID,
		Email:            u.Email,
		EmailVerified:    u.EmailVerified,
		DisplayName:      u.DisplayName,
		SubscriptionTier: u.SubscriptionTier,
	}, nil
}

// =================================================================================
// AUTHORIZATION MIDDLEWARES (después de RequireAuth)
// =================================================================================

// RequireAdmin carga la fila de rol y solo deja pasar a admin.
func RequireAdmin(users repository.UserRepository) Middleware {
	return requireRole(users, func(r types.Role) bool { return r == types.RoleAdmin }, httperrors.ErrAdminRequired)
}

// RequireCapability deja pasar a los roles que tienen la capability.
func RequireCapability(users repository.UserRepository, c types.Capability) Middleware {
	return requireRole(users, func(r types.Role) bool { return r.Can(c) }, httperrors.ErrForbidden)
}

func requireRole(users repository.UserRepository, allow func(types.Role) bool, deny *httperrors.AppError) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentity(r.Context())
			if id == nil {
				httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
				return
			}
			role, err := loadRole(r.Context(), users, id.UID)
			if err != nil {
				httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
				return
			}
			if !allow(role) {
				logger.From(r.Context()).Info("role check denied", logger.Role(role.String()))
				httperrors.WriteError(w, r, deny)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}

// loadRole lee el rol. Un usuario sin fila de rol se trata como user.
func loadRole(ctx context.Context, users repository.UserRepository, uid string) (types.Role, error) {
	if r, ok := GetRole(ctx); ok {
		return r, nil
	}
	role, err := users.GetRole(ctx, uid)
	if repository.IsNotFound(err) {
		return types.RoleUser, nil
	}
	return role, err
}
