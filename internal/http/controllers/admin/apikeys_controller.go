package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/bjrfx/mediacore/internal/http/dto/admin"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/http/helpers"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
	svc "github.com/bjrfx/mediacore/internal/http/services/admin"
	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// APIKeysController administra API keys. Montado detrás de RequireAdmin.
type APIKeysController struct {
	service svc.APIKeyService
}

func NewAPIKeysController(service svc.APIKeyService) *APIKeysController {
	return &APIKeysController{service: service}
}

// List maneja GET /admin/api-keys
func (c *APIKeysController) List(w http.ResponseWriter, r *http.Request) {
	keys, err := c.service.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "API keys retrieved", map[string]any{"apiKeys": keys})
}

// Create maneja POST /admin/api-keys. La key en claro viaja solo en esta respuesta.
func (c *APIKeysController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req dto.CreateAPIKeyRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	var actor string
	if id := mw.GetIdentity(ctx); id != nil {
		actor = id.UID
	}
	key, err := c.service.Create(ctx, actor, req)
	if err != nil {
		logger.From(ctx).Debug("create api key failed", logger.Layer("controller"), logger.Err(err))
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusCreated, "API key created. Store it now, it will not be shown again.", map[string]any{"apiKey": key})
}

// Revoke maneja DELETE /admin/api-keys/{id}
func (c *APIKeysController) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Revoke(r.Context(), chi.URLParam(r, "id")); err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "API key revoked", nil)
}
