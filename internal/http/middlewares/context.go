package middlewares

import (
	"context"

	"github.com/bjrfx/mediacore/internal/apikey"
	"github.com/bjrfx/mediacore/internal/domain/types"
)

type ctxKey string

const (
	ctxIdentityKey  ctxKey = "identity"
	ctxRoleKey      ctxKey = "role"
	ctxGrantKey     ctxKey = "apikey_grant"
	ctxRequestIDKey ctxKey = "request_id"
)

// Identity es la identidad resuelta del store (no del token) que reciben los handlers.
type Identity struct {
	UID              string
	Email            string
	EmailVerified    bool
	DisplayName      string
	SubscriptionTier types.SubscriptionTier
}

// WithIdentity inyecta la identidad en el contexto.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

// GetIdentity obtiene la identidad. nil si RequireAuth no corrió.
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxIdentityKey).(*Identity)
	return id
}

// WithRole inyecta el rol cargado por RequireAdmin/RequireCapability.
func WithRole(ctx context.Context, r types.Role) context.Context {
	return context.WithValue(ctx, ctxRoleKey, r)
}

// GetRole obtiene el rol si ya fue cargado.
func GetRole(ctx context.Context) (types.Role, bool) {
	r, ok := ctx.Value(ctxRoleKey).(types.Role)
	return r, ok
}

// WithGrant inyecta el permiso concedido a una API key.
func WithGrant(ctx context.Context, g *apikey.Grant) context.Context {
	return context.WithValue(ctx, ctxGrantKey, g)
}

// GetGrant obtiene el permiso concedido. nil si el request pasó por bypass de admin.
func GetGrant(ctx context.Context) *apikey.Grant {
	g, _ := ctx.Value(ctxGrantKey).(*apikey.Grant)
	return g
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}
