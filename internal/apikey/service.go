package apikey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/bjrfx/mediacore/internal/cache"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/metrics"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	tokens "github.com/bjrfx/mediacore/internal/security/token"
)

var (
	ErrMissingKey       = errors.New("apikey: missing key")
	ErrInvalidKey       = errors.New("apikey: invalid key")
	ErrInactiveKey      = errors.New("apikey: key is inactive")
	ErrExpiredKey       = errors.New("apikey: key has expired")
	ErrPermissionDenied = errors.New("apikey: permission denied")
	ErrNameRequired     = errors.New("apikey: name is required")
	ErrExpiryInPast     = errors.New("apikey: expiresAt must be in the future")
)

const cacheKeyPrefix = "apikey:"

// Config ajusta el Service.
type Config struct {
	CacheTTL      time.Duration // 0 = sin cache
	UsageTimeout  time.Duration // timeout del registro de uso en background
	LookupTimeout time.Duration // timeout de la consulta compartida por singleflight
	Routes        map[string]string
}

// Deps contiene las dependencias del Service.
type Deps struct {
	Repo  repository.APIKeyRepository
	Cache cache.Client // opcional
	Now   func() time.Time
}

// Grant es el resultado de una autorización exitosa; se adjunta al contexto del request.
type Grant struct {
	KeyID       string
	KeyName     string
	KeyPrefix   string
	Permission  string
	Permissions []string
	ExpiresAt   *time.Time
}

// CreateInput describe una key nueva.
type CreateInput struct {
	Name        string
	Preset      string
	Permissions []string
	ExpiresAt   *time.Time
	CreatedBy   string
}

// Created contiene la key en claro (se muestra una sola vez) y su registro.
type Created struct {
	Key    string
	Record repository.APIKey
}

// Service autentica keys, autoriza requests y administra el ciclo de vida de las keys.
type Service struct {
	repo     repository.APIKeyRepository
	cache    cache.Client
	resolver *Resolver
	cfg      Config
	now      func() time.Time

	group singleflight.Group
	usage sync.WaitGroup
}

// NewService crea el servicio.
func NewService(d Deps, cfg Config) *Service {
	if cfg.UsageTimeout <= 0 {
		cfg.UsageTimeout = 2 * time.Second
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 5 * time.Second
	}
	routes := cfg.Routes
	if routes == nil {
		routes = DefaultRoutes()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     d.Repo,
		cache:    d.Cache,
		resolver: NewResolver(routes),
		cfg:      cfg,
		now:      now,
	}
}

// Resolver expone el resolver de recursos.
func (s *Service) Resolver() *Resolver { return s.resolver }

// Authenticate valida la key: debe existir, estar activa y no vencida.
func (s *Service) Authenticate(ctx context.Context, raw string) (*repository.APIKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingKey
	}
	if !tokens.LooksLikeAPIKey(raw) {
		return nil, ErrInvalidKey
	}
	k, err := s.lookup(ctx, tokens.SHA256Hex(raw))
	if err != nil {
		return nil, err
	}
	if !k.IsActive {
		return nil, ErrInactiveKey
	}
	if k.ExpiresAt != nil && !s.now().Before(*k.ExpiresAt) {
		return nil, ErrExpiredKey
	}
	return k, nil
}

// Authorize autentica la key y verifica que tenga el permiso exacto que exige
// method+path. Si pasa, registra el uso en background.
func (s *Service) Authorize(ctx context.Context, raw, method, path string) (*Grant, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("apikey"), logger.Op("Authorize"))

	k, err := s.Authenticate(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, ErrExpiredKey):
			metrics.APIKeyCheck(metrics.ResultExpired)
		case errors.Is(err, ErrMissingKey), errors.Is(err, ErrInvalidKey), errors.Is(err, ErrInactiveKey):
			metrics.APIKeyCheck(metrics.ResultInvalid)
		default:
			metrics.APIKeyCheck(metrics.ResultError)
		}
		return nil, err
	}

	perm, err := s.resolver.Required(method, path)
	if err != nil {
		metrics.APIKeyCheck(metrics.ResultInvalid)
		return nil, err
	}
	if !Has(k.Permissions, perm) {
		metrics.APIKeyCheck(metrics.ResultDenied)
		log.Info("api key lacks permission", logger.APIKeyID(k.ID), logger.Permission(perm))
		return nil, ErrPermissionDenied
	}

	metrics.APIKeyCheck(metrics.ResultOK)
	s.recordUsage(ctx, k.ID)
	return &Grant{
		KeyID:       k.ID,
		KeyName:     k.Name,
		KeyPrefix:   k.KeyPrefix,
		Permission:  perm,
		Permissions: append([]string(nil), k.Permissions...),
		ExpiresAt:   k.ExpiresAt,
	}, nil
}

// recordUsage es best-effort: contexto desacoplado del request, timeout propio y
// los errores solo se loguean.
func (s *Service) recordUsage(ctx context.Context, id string) {
	bg := context.WithoutCancel(ctx)
	at := s.now().UTC()
	s.usage.Add(1)
	go func() {
		defer s.usage.Done()
		uctx, cancel := context.WithTimeout(bg, s.cfg.UsageTimeout)
		defer cancel()
		if err := s.repo.RecordUsage(uctx, id, at); err != nil {
			logger.From(bg).Warn("api key usage not recorded",
				logger.Component("apikey"), logger.APIKeyID(id), logger.Err(err))
		}
	}()
}

// Wait bloquea hasta que terminen los registros de uso pendientes.
func (s *Service) Wait() { s.usage.Wait() }

// cachedKey es la forma serializada en cache. No incluye contadores de uso.
type cachedKey struct {
	ID          string     `json:"id"`
	KeyPrefix   string     `json:"prefix"`
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (s *Service) lookup(ctx context.Context, keyHash string) (*repository.APIKey, error) {
	if s.cache != nil && s.cfg.CacheTTL > 0 {
		if b, err := s.cache.Get(ctx, cacheKeyPrefix+keyHash); err == nil {
			var c cachedKey
			if json.Unmarshal(b, &c) == nil {
				return &repository.APIKey{
					ID: c.ID, KeyHash: keyHash, KeyPrefix: c.KeyPrefix, Name: c.Name,
					Permissions: c.Permissions, IsActive: c.IsActive, ExpiresAt: c.ExpiresAt,
				}, nil
			}
		} else if !cache.IsNotFound(err) {
			logger.From(ctx).Warn("api key cache read failed", logger.Component("apikey"), logger.Err(err))
		}
	}

	// Requests concurrentes con la misma key comparten una sola consulta. La consulta
	// no hereda la cancelación del primer request: si ese cliente corta, el resto espera igual.
	v, err, _ := s.group.Do(keyHash, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LookupTimeout)
		defer cancel()
		k, err := s.repo.GetByHash(lctx, keyHash)
		if err != nil {
			return nil, err
		}
		s.store(lctx, k)
		return k, nil
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidKey
		}
		return nil, fmt.Errorf("apikey lookup: %w", err)
	}
	k := *v.(*repository.APIKey)
	k.Permissions = append([]string(nil), k.Permissions...)
	return &k, nil
}

func (s *Service) store(ctx context.Context, k *repository.APIKey) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(cachedKey{
		ID: k.ID, KeyPrefix: k.KeyPrefix, Name: k.Name,
		Permissions: k.Permissions, IsActive: k.IsActive, ExpiresAt: k.ExpiresAt,
	})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+k.KeyHash, b, s.cfg.CacheTTL); err != nil {
		logger.From(ctx).Warn("api key cache write failed", logger.Component("apikey"), logger.Err(err))
	}
}

// Create genera y persiste una key nueva.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("apikey"), logger.Op("Create"))

	// Paso 1: validar
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	perms, err := ExpandPreset(in.Preset, in.Permissions)
	if err != nil {
		return nil, err
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return nil, ErrExpiryInPast
	}

	// Paso 2: generar
	raw, hash, prefix, err := tokens.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	rec := repository.APIKey{
		ID:          uuid.NewString(),
		KeyHash:     hash,
		KeyPrefix:   prefix,
		Name:        name,
		Permissions: perms,
		IsActive:    true,
		ExpiresAt:   in.ExpiresAt,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now().UTC(),
	}

	// Paso 3: persistir
	if err := s.repo.Create(ctx, rec); err != nil {
		log.Error("create api key failed", logger.Err(err))
		return nil, fmt.Errorf("create api key: %w", err)
	}
	log.Info("api key created", logger.APIKeyID(rec.ID), logger.Count(len(perms)))
	return &Created{Key: raw, Record: rec}, nil
}

// List devuelve todas las keys (sin el secreto).
func (s *Service) List(ctx context.Context) ([]repository.APIKey, error) {
	return s.repo.List(ctx)
}

// Revoke desactiva una key e invalida su entrada de cache.
func (s *Service) Revoke(ctx context.Context, id string) error {
	hash, err := s.repo.Revoke(ctx, id)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKeyPrefix+hash); err != nil {
			logger.From(ctx).Warn("api key cache invalidation failed",
				logger.Component("apikey"), logger.APIKeyID(id), logger.Err(err))
		}
	}
	logger.From(ctx).Info("api key revoked", logger.Component("apikey"), logger.APIKeyID(id))
	return nil
}
