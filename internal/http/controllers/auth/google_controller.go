package auth

import (
	"net/http"

	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/http/helpers"
	svc "github.com/bjrfx/mediacore/internal/http/services/auth"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// GoogleController maneja Google Sign-In.
type GoogleController struct {
	service svc.GoogleService
}

func NewGoogleController(service svc.GoogleService) *GoogleController {
	return &GoogleController{service: service}
}

// SignIn maneja POST /auth/google. Acepta {idToken} o {code}.
func (c *GoogleController) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GoogleController.SignIn"))

	var req dto.GoogleRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	res, err := c.service.SignIn(ctx, req)
	if err != nil {
		log.Debug("google sign-in failed", logger.Err(err))
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	status, msg := http.StatusOK, "Login successful"
	if res.IsNewUser {
		status, msg = http.StatusCreated, "Account created with Google"
	}
	httperrors.WriteSuccess(w, status, msg, res)
}
