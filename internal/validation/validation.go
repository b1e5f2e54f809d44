// Package validation contiene las reglas de formato de los campos de entrada.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Email rules:
// - local@domain, sin espacios.
// - Dominio con al menos un punto y TLD de 2+ letras.
// - Longitud total <= 254.
//
// No intenta cubrir RFC 5322 completo; el link de verificación confirma el resto.
var emailRe = regexp.MustCompile(`^[A-Za-z0-9.!#$%&'*+/=?^_{|}~-]+@[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?)*\.[A-Za-z]{2,}$`)

const (
	maxEmailLen       = 254
	MaxDisplayNameLen = 100
	MaxAPIKeyNameLen  = 100
)

// NormalizeEmail recorta y pasa a minúsculas. Así se guarda y se busca.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail valida el formato de un email ya normalizado.
func ValidEmail(s string) bool {
	return len(s) <= maxEmailLen && emailRe.MatchString(s)
}

// ValidDisplayName: vacío permitido, hasta 100 runas, sin caracteres de control.
func ValidDisplayName(s string) bool {
	return validLabel(s, MaxDisplayNameLen, true)
}

// ValidAPIKeyName: obligatorio, hasta 100 runas, sin caracteres de control.
func ValidAPIKeyName(s string) bool {
	return validLabel(s, MaxAPIKeyNameLen, false)
}

func validLabel(s string, max int, allowEmpty bool) bool {
	if s == "" {
		return allowEmpty
	}
	if !utf8.ValidString(s) || utf8.RuneCountInString(s) > max {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
