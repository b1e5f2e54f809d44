// Package errors define el error HTTP estándar y el envelope de respuesta
// {success, error?, message, data?}.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError es el error que los controllers devuelven al cliente.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Data       any    `json:"-"` // se serializa en "data" (ej: errores por campo)
	Err        error  `json:"-"` // causa original, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un nuevo AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Wrap crea un AppError envolviendo un error existente.
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// FromError convierte cualquier error en AppError. Lo desconocido es 500 y
// conserva la causa para el log.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una copia con un mensaje más específico.
func (e *AppError) WithDetail(detail string) *AppError {
	c := *e
	c.Detail = detail
	return &c
}

// WithCause devuelve una copia con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// WithData devuelve una copia con payload adicional.
func (e *AppError) WithData(data any) *AppError {
	c := *e
	c.Data = data
	return &c
}

// FieldError describe un error de validación de un campo.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validation arma un 400 con los errores por campo en data.errors.
func Validation(errs ...FieldError) *AppError {
	return ErrValidation.WithData(map[string]any{"errors": errs})
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

// ---------------------------------------------------------------------------------
// 400 Bad Request
// ---------------------------------------------------------------------------------

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is malformed or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrValidation = &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "One or more fields are invalid.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrWeakPassword = &AppError{
		Code:       "WEAK_PASSWORD",
		Message:    "Password does not meet the strength requirements.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidResetToken = &AppError{
		Code:       "INVALID_RESET_TOKEN",
		Message:    "Invalid or expired reset token.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidVerificationToken = &AppError{
		Code:       "INVALID_VERIFICATION_TOKEN",
		Message:    "Invalid or expired verification token.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrEmailAlreadyVerified = &AppError{
		Code:       "EMAIL_ALREADY_VERIFIED",
		Message:    "Email is already verified.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnknownResource = &AppError{
		Code:       "UNKNOWN_RESOURCE",
		Message:    "Unknown resource.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnsupportedMethod = &AppError{
		Code:       "UNSUPPORTED_METHOD",
		Message:    "HTTP method cannot be mapped to a permission.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrBodyTooLarge = &AppError{
		Code:       "BODY_TOO_LARGE",
		Message:    "The request body is too large.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
)

// ---------------------------------------------------------------------------------
// 401 Unauthorized
// ---------------------------------------------------------------------------------

var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid email or password",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenMissing = &AppError{
		Code:       "TOKEN_MISSING",
		Message:    "No authentication token provided.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpired = &AppError{
		Code:       "TOKEN_EXPIRED",
		Message:    "Access token expired, please refresh",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "Invalid authentication token.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrRefreshTokenInvalid = &AppError{
		Code:       "REFRESH_TOKEN_INVALID",
		Message:    "Invalid refresh token",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrRefreshTokenExpired = &AppError{
		Code:       "REFRESH_TOKEN_EXPIRED",
		Message:    "Refresh token expired",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrGoogleTokenInvalid = &AppError{
		Code:       "GOOGLE_TOKEN_INVALID",
		Message:    "Invalid Google credential.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrAPIKeyMissing = &AppError{
		Code:       "API_KEY_MISSING",
		Message:    "API key required.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrAPIKeyInvalid = &AppError{
		Code:       "API_KEY_INVALID",
		Message:    "Invalid API key.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrAPIKeyInactive = &AppError{
		Code:       "API_KEY_INACTIVE",
		Message:    "API key is inactive.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrAPIKeyExpired = &AppError{
		Code:       "API_KEY_EXPIRED",
		Message:    "API key has expired.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

// ---------------------------------------------------------------------------------
// 403 Forbidden
// ---------------------------------------------------------------------------------

var (
	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "You do not have permission to perform this action.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrAccountDisabled = &AppError{
		Code:       "ACCOUNT_DISABLED",
		Message:    "This account has been disabled.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrAdminRequired = &AppError{
		Code:       "ADMIN_REQUIRED",
		Message:    "Admin access required.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrInsufficientPermissions = &AppError{
		Code:       "INSUFFICIENT_PERMISSIONS",
		Message:    "API key does not have the required permission.",
		HTTPStatus: http.StatusForbidden,
	}
)

// ---------------------------------------------------------------------------------
// 404 / 405
// ---------------------------------------------------------------------------------

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource was not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrRouteNotFound = &AppError{
		Code:       "ROUTE_NOT_FOUND",
		Message:    "Route not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Method not allowed.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
)

// ---------------------------------------------------------------------------------
// 409 Conflict
// ---------------------------------------------------------------------------------

var (
	ErrConflict = &AppError{
		Code:       "CONFLICT",
		Message:    "The request conflicts with the current state.",
		HTTPStatus: http.StatusConflict,
	}

	ErrEmailAlreadyInUse = &AppError{
		Code:       "EMAIL_ALREADY_IN_USE",
		Message:    "An account with this email already exists.",
		HTTPStatus: http.StatusConflict,
	}

	ErrPasswordAlreadySet = &AppError{
		Code:       "PASSWORD_ALREADY_SET",
		Message:    "Password is already set. Use the reset-password flow to change it.",
		HTTPStatus: http.StatusConflict,
	}

	// Un solo código para los conflictos de Google: no debe revelar si la cuenta existe.
	ErrGoogleSignInConflict = &AppError{
		Code:       "GOOGLE_SIGN_IN_CONFLICT",
		Message:    "Unable to sign in with Google. Sign in with email and password instead.",
		HTTPStatus: http.StatusConflict,
	}
)

// ---------------------------------------------------------------------------------
// 500+
// ---------------------------------------------------------------------------------

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "Service temporarily unavailable.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
