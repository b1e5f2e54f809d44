package auth

import (
	"net/http"

	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/http/helpers"
	svc "github.com/bjrfx/mediacore/internal/http/services/auth"
)

// SessionController maneja refresh y logout.
type SessionController struct {
	service svc.SessionService
}

func NewSessionController(service svc.SessionService) *SessionController {
	return &SessionController{service: service}
}

// Refresh maneja POST /auth/refresh
func (c *SessionController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	res, err := c.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "Token refreshed", res)
}

// Logout maneja POST /auth/logout. Siempre responde éxito si el body es válido.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.Logout(r.Context(), req.RefreshToken); err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "Logged out successfully", nil)
}
