// Package health expone el chequeo de salud del servicio.
package health

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// Pinger es cualquier dependencia que se puede chequear (store, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller responde GET /healthz.
type Controller struct {
	store   Pinger
	cache   Pinger // opcional; su falla degrada pero no tumba el check
	version string
	timeout time.Duration
}

// NewController crea el controller. cache puede ser nil.
func NewController(store, cache Pinger, version string) *Controller {
	return &Controller{store: store, cache: cache, version: version, timeout: 2 * time.Second}
}

type status struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// Health maneja GET /healthz: 200 si el store responde, 503 si no.
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	out := status{Status: "ok", Version: c.version, Checks: map[string]string{}}
	if err := c.store.Ping(ctx); err != nil {
		logger.From(ctx).Warn("health: store ping failed", logger.Err(err))
		out.Status = "unavailable"
		out.Checks["store"] = "down"
		httperrors.WriteError(w, r, httperrors.ErrServiceUnavailable.WithData(out).WithCause(err))
		return
	}
	out.Checks["store"] = "up"

	if c.cache != nil {
		if err := c.cache.Ping(ctx); err != nil {
			logger.From(ctx).Warn("health: cache ping failed", logger.Err(err))
			out.Status = "degraded"
			out.Checks["cache"] = "down"
		} else {
			out.Checks["cache"] = "up"
		}
	}
	httperrors.WriteSuccess(w, http.StatusOK, "Service healthy", out)
}
