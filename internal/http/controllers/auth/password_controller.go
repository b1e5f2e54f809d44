package auth

import (
	"net/http"

	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/http/helpers"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
	svc "github.com/bjrfx/mediacore/internal/http/services/auth"
)

// PasswordController fija el primer password de cuentas creadas con Google.
type PasswordController struct {
	service svc.PasswordService
}

func NewPasswordController(service svc.PasswordService) *PasswordController {
	return &PasswordController{service: service}
}

// SetPassword maneja POST /auth/set-password. Requiere RequireAuth.
func (c *PasswordController) SetPassword(w http.ResponseWriter, r *http.Request) {
	id := mw.GetIdentity(r.Context())
	if id == nil {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return
	}
	var req dto.SetPasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.SetPassword(r.Context(), id.UID, req.Password); err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "Password set successfully", nil)
}
