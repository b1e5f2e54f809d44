package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/bjrfx/mediacore/internal/http/dto/admin"
	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
	"github.com/bjrfx/mediacore/internal/http/helpers"
	mw "github.com/bjrfx/mediacore/internal/http/middlewares"
	svc "github.com/bjrfx/mediacore/internal/http/services/admin"
)

// UsersController modera cuentas. Montado detrás de RequireCapability(CapManageUsers).
type UsersController struct {
	service svc.UserService
}

func NewUsersController(service svc.UserService) *UsersController {
	return &UsersController{service: service}
}

// Patch maneja PATCH /admin/users/{uid}
func (c *UsersController) Patch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mw.GetIdentity(ctx)
	if id == nil {
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized)
		return
	}
	var req dto.PatchUserRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	user, err := c.service.Patch(ctx, id.UID, chi.URLParam(r, "uid"), req)
	if err != nil {
		httperrors.WriteError(w, r, mapError(err))
		return
	}
	httperrors.WriteSuccess(w, http.StatusOK, "User updated", map[string]any{"user": user})
}
