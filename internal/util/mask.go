// Package util contiene helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskEmail oculta la mayor parte del email para logs: "alice@example.com" -> "a…@e….com".
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		return "***"
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskToken deja visibles los primeros 6 caracteres de un token opaco o API key.
func MaskToken(s string) string {
	if len(s) <= 6 {
		return "***"
	}
	return s[:6] + "…"
}
