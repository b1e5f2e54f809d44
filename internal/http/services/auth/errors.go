package auth

import (
	"errors"
	"strings"
)

// Errores de los services auth. Los controllers los mapean a la taxonomía HTTP.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAccountDisabled         = errors.New("account disabled")
	ErrEmailTaken              = errors.New("email already registered")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidRefreshToken     = errors.New("invalid refresh token")
	ErrRefreshTokenExpired     = errors.New("refresh token expired")
	ErrPasswordAlreadySet      = errors.New("password already set")
	ErrGoogleDisabled          = errors.New("google sign-in not configured")
	ErrInvalidGoogleToken      = errors.New("invalid google credential")
	ErrGoogleAccountConflict   = errors.New("email linked to another google account")
	ErrProviderEmailUnverified = errors.New("provider email not verified")
	ErrInvalidResetToken       = errors.New("invalid reset token")
	ErrInvalidVerifyToken      = errors.New("invalid verification token")
	ErrEmailAlreadyVerified    = errors.New("email already verified")
)

// FieldError es un error de validación de un campo.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError agrupa todos los campos inválidos de un request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// WeakPasswordError lista todas las reglas que el password no cumple.
type WeakPasswordError struct {
	Violations []string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + strings.Join(e.Violations, "; ")
}
