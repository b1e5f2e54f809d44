package auth

import (
	"net/http"

	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
	svc "github.com/bjrfx/mediacore/internal/http/services/auth"
)

// MeController devuelve la cuenta del usuario autenticado.
type MeController struct {
	service svc.ProfileService
}

func NewMeController(service svc.ProfileService) *MeController {
	return &MeController{service: service}
}

// Me maneja GET /auth/me. Requiere RequireAuth.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	id := mw.GetIdentity(r.Context())
	if id == nil {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return
	}
	user, err := c.service.Me(r.Context(), id.UID)
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "User retrieved", map[string]any{"user": user})
}
