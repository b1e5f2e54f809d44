package router

import (
	"github.com/go-chi/chi/v5"

	authctrl "github.com/bjrfx/mediacore/internal/http/controllers/auth"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
)

// registerAuthRoutes monta /auth. Todas las respuestas llevan no-store.
func registerAuthRoutes(r chi.Router, c *authctrl.Controllers, deps mw.AuthDeps) {
	if c == nil {
		return
	}
	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.WithNoStore())

		// ─── Públicas ───
		r.Post("/register", c.Register.Register)
		r.Post("/login", c.Login.Login)
		r.Post("/google", c.Google.SignIn)
		r.Post("/refresh", c.Session.Refresh)
		r.Post("/logout", c.Session.Logout)
		r.Post("/forgot-password", c.Recovery.ForgotPassword)
		r.Post("/reset-password", c.Recovery.ResetPassword)
		r.Get("/verify-email/{token}", c.Recovery.VerifyEmail)

		// ─── Con sesión ───
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(deps))
			r.Get("/me", c.Me.Me)
			r.Post("/set-password", c.Password.SetPassword)
			r.Post("/resend-verification", c.Recovery.ResendVerification)
		})
	})
}
