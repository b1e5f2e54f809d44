// Package apikeys expone la introspección de la API key que hace el request.
package apikeys

import (
	"net/http"

	dto "github.com/bjrfx/mediacore/internal/http/dto/admin"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
)

// Controller responde GET /api/keys/me. Montado detrás de RequireAPIKey.
type Controller struct{}

func NewController() *Controller { return &Controller{} }

// Me describe la key que autorizó el request. Con bypass admin no hay key.
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	g := mw.GetGrant(r.Context())
	if g == nil {
		if mw.GetIdentity(r.Context()) == nil {
			httperrors.WriteError(w, r, httperrors.ErrAPIKeyMissing)
			return
		}
		httperrors.WriteSuccess(w, http.StatusOK, "Admin session", dto.CallerKey{AdminBypass: true})
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "API key details", dto.CallerKey{
		ID:          g.KeyID,
		Name:        g.KeyName,
		Prefix:      g.KeyPrefix,
		Permissions: g.Permissions,
		ExpiresAt:   g.ExpiresAt,
	})
}
