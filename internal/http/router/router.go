// Package router arma el árbol de rutas HTTP (chi) y la cadena de middlewares.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bjrfx/mediacore/internal/apikey"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	adminctrl "github.com/bjrfx/mediacore/internal/http/controllers/admin"
	apikeysctrl "github.com/bjrfx/mediacore/internal/http/controllers/apikeys"
	authctrl "github.com/bjrfx/mediacore/internal/http/controllers/auth"
	"github.com/bjrfx/mediacore/internal/http/controllers/health"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
	jwtx "github.com/bjrfx/mediacore/internal/jwt"
	"github.com/bjrfx/mediacore/internal/metrics"
)

// DefaultRequestTimeout acota cada request completo (store + OIDC incluidos).
const DefaultRequestTimeout = 15 * time.Second

// Options contiene todo lo que el router necesita.
type Options struct {
	Issuer  *jwtx.Issuer
	Users   repository.UserRepository
	APIKeys *apikey.Service

	Auth          *authctrl.Controllers
	Admin         *adminctrl.Controllers
	Health        *health.Controller
	CallerKey     *apikeysctrl.Controller
	MetricsHandle http.Handler // nil = sin /metrics

	// Catalog monta las rutas del catálogo de medios bajo /api y /admin/media,
	// detrás de RequireAPIKey. Lo provee el módulo de CRUD; nil = no se monta.
	Catalog func(r chi.Router)

	AdminBypass    bool
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// New devuelve el handler raíz.
func New(o Options) http.Handler {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		metrics.Middleware,
		mw.WithSecurityHeaders(),
		mw.WithCORS(o.CORSOrigins),
		middleware.Timeout(o.RequestTimeout),
	)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrMethodNotAllowed)
	})

	if o.Health != nil {
		r.Get("/healthz", o.Health.Health)
	}
	if o.MetricsHandle != nil {
		r.Method(http.MethodGet, "/metrics", o.MetricsHandle)
	}

	authDeps := mw.AuthDeps{Issuer: o.Issuer, Users: o.Users}
	registerAuthRoutes(r, o.Auth, authDeps)
	registerAdminRoutes(r, o.Admin, authDeps)
	registerAPIRoutes(r, o, authDeps)
	return r
}
