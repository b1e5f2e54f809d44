// Package auth contiene los controllers de /auth.
package auth

import (
	svc "github.com/bjrfx/mediacore/internal/http/services/auth"
)

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	Register *RegisterController
	Login    *LoginController
	Google   *GoogleController
	Session  *SessionController
	Me       *MeController
	Password *PasswordController
	Recovery *RecoveryController
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Register: NewRegisterController(s.Register),
		Login:    NewLoginController(s.Login),
		Google:   NewGoogleController(s.Google),
		Session:  NewSessionController(s.Session),
		Me:       NewMeController(s.Profile),
		Password: NewPasswordController(s.Password),
		Recovery: NewRecoveryController(s.Recovery),
	}
}
