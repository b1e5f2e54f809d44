package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (duplicado, constraint violation, precondición fallida).
	ErrConflict = errors.New("conflict")

	// ErrTokenExpired indica que el token existe pero ya expiró.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenUsed indica que un token de un solo uso ya fue consumido.
	ErrTokenUsed = errors.New("token already used")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
