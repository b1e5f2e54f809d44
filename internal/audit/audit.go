// Package audit emite eventos de auditoría para operaciones administrativas.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// Eventos.
const (
	EventAPIKeyCreated  = "apikey.created"
	EventAPIKeyRevoked  = "apikey.revoked"
	EventRoleChanged    = "user.role_changed"
	EventUserDisabled   = "user.disabled"
	EventUserEnabled    = "user.enabled"
	EventAdminBootstrap = "admin.bootstrap"
)

// Log escribe un evento estructurado en el logger "audit" del contexto.
// Hoy el sink es el log; una tabla de auditoría se enchufa acá.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	fs := make([]zap.Field, 0, len(fields)+1)
	fs = append(fs, zap.String("event", event))
	fs = append(fs, fields...)
	logger.From(ctx).Named("audit").Info("audit event", fs...)
}

// Actor identifica quién ejecutó la operación (uid o "cli").
func Actor(v string) zap.Field { return zap.String("actor", v) }
