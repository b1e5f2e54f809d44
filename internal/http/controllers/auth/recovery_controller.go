package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/http/helpers"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
	svc "github.com/bjrfx/mediacore/internal/http/services/auth"
)

// forgotPasswordMessage es la única respuesta de forgot-password, exista o no la cuenta.
const forgotPasswordMessage = "If an account exists for that email, a password reset link has been sent."

// RecoveryController maneja verificación de email y reset de password.
type RecoveryController struct {
	service svc.RecoveryService
}

func NewRecoveryController(service svc.RecoveryService) *RecoveryController {
	return &RecoveryController{service: service}
}

// ForgotPassword maneja POST /auth/forgot-password
func (c *RecoveryController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.ForgotPassword(r.Context(), req.Email); err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, forgotPasswordMessage, nil)
}

// ResetPassword maneja POST /auth/reset-password
func (c *RecoveryController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	if err := c.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "Password has been reset. Please sign in again.", nil)
}

// VerifyEmail maneja GET /auth/verify-email/{token}
func (c *RecoveryController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	uid, err := c.service.VerifyEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "Email verified successfully", map[string]any{"uid": uid})
}

// ResendVerification maneja POST /auth/resend-verification. Requiere RequireAuth.
func (c *RecoveryController) ResendVerification(w http.ResponseWriter, r *http.Request) {
	id := mw.GetIdentity(r.Context())
	if id == nil {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return
	}
	if err := c.service.ResendVerification(r.Context(), id.UID); err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "Verification email sent", nil)
}
