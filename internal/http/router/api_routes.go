package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
)

// registerAPIRoutes monta la superficie de clientes con API key. El permiso
// requerido sale del método y del path del request.
func registerAPIRoutes(r chi.Router, o Options, deps mw.AuthDeps) {
	if o.APIKeys == nil {
		return
	}
	keyed := mw.RequireAPIKey(mw.APIKeyOptions{
		Service:     o.APIKeys,
		AdminBypass: o.AdminBypass,
		Auth:        deps,
	})

	r.Group(func(r chi.Router) {
		r.Use(keyed)
		if o.CallerKey != nil {
			r.Get("/api/keys/me", o.CallerKey.Me)
		}
		if o.Catalog != nil {
			o.Catalog(r)
		}
	})
}
