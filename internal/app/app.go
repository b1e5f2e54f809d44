// Package app arma el grafo de dependencias a partir de la config y corre el servidor HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bjrfx/mediacore/internal/apikey"
	"github.com/bjrfx/mediacore/internal/cache"
	"github.com/bjrfx/mediacore/internal/config"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/email"
	adminctrl "github.com/bjrfx/mediacore/internal/http/controllers/admin"
	apikeysctrl "github.com/bjrfx/mediacore/internal/http/controllers/apikeys"
	authctrl "github.com/bjrfx/mediacore/internal/http/controllers/auth"
	"github.com/bjrfx/mediacore/internal/http/controllers/health"
	"github.com/bjrfx/mediacore/internal/http/router"
	adminsvc "github.com/bjrfx/mediacore/internal/http/services/admin"
	authsvc "github.com/bjrfx/mediacore/internal/http/services/auth"
	jwtx "github.com/bjrfx/mediacore/internal/jwt"
	"github.com/bjrfx/mediacore/internal/metrics"
	"github.com/bjrfx/mediacore/internal/oauth/google"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	"github.com/bjrfx/mediacore/internal/security/password"
	"github.com/bjrfx/mediacore/internal/store/memory"
	"github.com/bjrfx/mediacore/internal/store/pg"
	migrations "github.com/bjrfx/mediacore/migrations/postgres"
)

// App contiene los componentes ya construidos.
type App struct {
	Config  *config.Config
	Store   repository.Store
	Cache   cache.Client // nil con cache.kind=none
	APIKeys *apikey.Service
	Auth    authsvc.Services
	Handler http.Handler
}

// Option ajusta el armado de la App.
type Option func(*options)

type options struct {
	catalog func(r chi.Router)
	mailer  authsvc.Mailer
}

// WithCatalog monta las rutas del catálogo de medios detrás de RequireAPIKey.
func WithCatalog(fn func(r chi.Router)) Option {
	return func(o *options) { o.catalog = fn }
}

// WithMailer reemplaza el mailer armado desde la config (tests).
func WithMailer(m authsvc.Mailer) Option {
	return func(o *options) { o.mailer = m }
}

// OpenStore abre el store configurado. Con postgres y auto_migrate aplica migraciones.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		logger.From(ctx).Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	case "postgres":
		st, err := pg.New(ctx, pg.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
			QueryTimeout:    cfg.Storage.QueryTimeout,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Storage.AutoMigrate {
			n, err := st.MigrateUp(ctx, migrations.FS)
			if err != nil {
				st.Close()
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
			logger.From(ctx).Info("migrations up to date", logger.Count(n))
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// OpenCache abre el cache de API keys; nil con kind=none.
func OpenCache(ctx context.Context, cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Kind == "none" {
		return nil, nil
	}
	return cache.New(ctx, cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
}

// NewAPIKeyService arma el servicio de API keys sobre el store y el cache.
func NewAPIKeyService(cfg *config.Config, st repository.Store, c cache.Client) *apikey.Service {
	return apikey.NewService(apikey.Deps{Repo: st.APIKeys(), Cache: c}, apikey.Config{
		CacheTTL:      cfg.APIKey.CacheTTL,
		UsageTimeout:  cfg.APIKey.UsageTimeout,
		LookupTimeout: cfg.APIKey.LookupTimeout,
		Routes:        cfg.APIKey.Routes,
	})
}

// NewMailer elige SMTP si hay host configurado; si no, solo loguea los emails.
func NewMailer(ctx context.Context, cfg *config.Config) (*email.Mailer, error) {
	var sender email.Sender = email.LogSender{}
	if cfg.SMTP.Host != "" {
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			Username:           cfg.SMTP.Username,
			Password:           cfg.SMTP.Password,
			From:               cfg.SMTP.From,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
			Timeout:            cfg.SMTP.Timeout,
		})
	} else {
		logger.From(ctx).Warn("smtp not configured, emails are only logged")
	}
	return email.NewMailer(sender, cfg.App.Name, cfg.Server.PublicBaseURL)
}

// New construye todo el grafo: store, cache, hasher, issuer, mailer, google, services,
// controllers y router.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	log := logger.From(ctx).With(logger.Component("app"))

	// Paso 1: storage + cache
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c, err := OpenCache(ctx, cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a := &App{Config: cfg, Store: st, Cache: c}

	fail := func(err error) (*App, error) {
		a.Close()
		return nil, err
	}

	// Paso 2: primitivas de seguridad
	hasher, err := password.NewHasher(password.HasherConfig{
		Cost:          cfg.Auth.BcryptCost,
		MaxConcurrent: cfg.Auth.HashConcurrency,
	})
	if err != nil {
		return fail(fmt.Errorf("password hasher: %w", err))
	}
	issuer, err := jwtx.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	if err != nil {
		return fail(fmt.Errorf("jwt issuer: %w", err))
	}

	// Paso 3: email
	mailer := o.mailer
	if mailer == nil {
		m, err := NewMailer(ctx, cfg)
		if err != nil {
			return fail(fmt.Errorf("mailer: %w", err))
		}
		mailer = m
	}

	// Paso 4: Google (opcional)
	var gv authsvc.GoogleVerifier
	if g := cfg.Providers.Google; g.Enabled {
		gv = google.New(google.Config{
			ClientID:     g.ClientID,
			ClientSecret: g.ClientSecret,
			RedirectURL:  g.RedirectURL,
			IssuerURL:    g.IssuerURL,
			Timeout:      g.Timeout,
		})
		log.Info("google sign-in enabled")
	}

	// Paso 5: services y controllers
	a.APIKeys = NewAPIKeyService(cfg, st, c)
	a.Auth = authsvc.NewServices(authsvc.Deps{
		Users:     st.Users(),
		Refresh:   st.RefreshTokens(),
		Recovery:  st.Recovery(),
		Hasher:    hasher,
		Issuer:    issuer,
		Google:    gv,
		Mailer:    mailer,
		VerifyTTL: cfg.Auth.Verify.TTL,
		ResetTTL:  cfg.Auth.Reset.TTL,
	})
	adminServices := adminsvc.NewServices(adminsvc.Deps{
		Users:   st.Users(),
		Refresh: st.RefreshTokens(),
		APIKeys: a.APIKeys,
	})

	// Paso 6: métricas
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		var poolFn func() *pgxpool.Pool
		if ps, ok := st.(*pg.Store); ok {
			poolFn = ps.Pool
		}
		metricsHandler, err = metrics.Register(metrics.Config{Pool: poolFn})
		if err != nil {
			return fail(fmt.Errorf("metrics: %w", err))
		}
	}

	// cache.Client nil no debe llegar como Pinger no-nil
	var cachePinger health.Pinger
	if c != nil {
		cachePinger = c
	}

	a.Handler = router.New(router.Options{
		Issuer:         issuer,
		Users:          st.Users(),
		APIKeys:        a.APIKeys,
		Auth:           authctrl.NewControllers(a.Auth),
		Admin:          adminctrl.NewControllers(adminServices),
		Health:         health.NewController(st, cachePinger, cfg.App.Version),
		CallerKey:      apikeysctrl.NewController(),
		MetricsHandle:  metricsHandler,
		Catalog:        o.catalog,
		AdminBypass:    cfg.APIKey.AdminBypass,
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	return a, nil
}

// Run sirve HTTP hasta que ctx se cancela y luego hace shutdown ordenado.
func (a *App) Run(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Component("app"))
	srv := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logger.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close espera los emails y registros de uso pendientes y libera store y cache.
func (a *App) Close() {
	a.Auth.Wait()
	if a.APIKeys != nil {
		a.APIKeys.Wait()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			logger.L().Warn("cache close failed", logger.Err(err))
		}
	}
	if a.Store != nil {
		a.Store.Close()
	}
}
