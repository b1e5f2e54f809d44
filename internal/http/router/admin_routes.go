package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/bjrfx/mediacore/internal/domain/types"
	adminctrl "github.com/bjrfx/mediacore/internal/http/controllers/admin"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
)

// registerAdminRoutes monta la administración de keys y usuarios. Sesión obligatoria;
// el rol se relee del store en cada request.
func registerAdminRoutes(r chi.Router, c *adminctrl.Controllers, deps mw.AuthDeps) {
	if c == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth(deps), mw.WithNoStore())

		r.Route("/admin/api-keys", func(r chi.Router) {
			r.Use(mw.RequireAdmin(deps.Users))
			r.Get("/", c.APIKeys.List)
			r.Post("/", c.APIKeys.Create)
			r.Delete("/{id}", c.APIKeys.Revoke)
		})

		r.With(mw.RequireCapability(deps.Users, types.CapManageUsers)).
			Patch("/admin/users/{uid}", c.Users.Patch)
	})
}
