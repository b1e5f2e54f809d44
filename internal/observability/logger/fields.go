package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field es un alias para no importar zap en cada paquete que arma campos.
type Field = zap.Field

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field { return zap.String("method", v) }
func Path(v string) zap.Field { return zap.String("path", v) }
func Status(v int) zap.Field { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - IDENTIDAD
// =================================================================================

// UserID crea un campo para el uid del usuario.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// Email crea un campo para el email (usar con cuidado en prod).
func Email(v string) zap.Field { return zap.String("email", v) }

// Role crea un campo para el rol resuelto desde el store.
func Role(v string) zap.Field { return zap.String("role", v) }

// TokenType crea un campo para el tipo de token (access | refresh).
func TokenType(v string) zap.Field { return zap.String("token_type", v) }

// APIKeyID crea un campo para el id de una API key (nunca la key en claro).
func APIKeyID(v string) zap.Field { return zap.String("api_key_id", v) }

// Permission crea un campo para el permiso requerido "action:resource".
func Permission(v string) zap.Field { return zap.String("permission", v) }

// Provider crea un campo para el proveedor OAuth.
func Provider(v string) zap.Field { return zap.String("provider", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer: controller, service, repository, middleware.
func Layer(v string) zap.Field { return zap.String("layer", v) }

func Err(err error) zap.Field { return zap.Error(err) }

// =================================================================================
// CAMPOS GENÉRICOS
// =================================================================================

func Count(v int) zap.Field { return zap.Int("count", v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
