package auth

import (
	"net/http"

	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/http/helpers"
	svc "github.com/bjrfx/mediacore/internal/http/services/auth"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// LoginController maneja el endpoint de login.
type LoginController struct {
	service svc.LoginService
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service svc.LoginService) *LoginController {
	return &LoginController{service: service}
}

// Login maneja POST /auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	res, err := c.service.Login(ctx, req)
	if err != nil {
		log.Debug("login failed", logger.Err(err), logger.ClientIP(helpers.ClientIP(r)))
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "Login successful", res)
}
