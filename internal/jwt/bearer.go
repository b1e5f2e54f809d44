package jwt

import "strings"

const bearerPrefix = "Bearer "

// ExtractBearer exige el prefijo exacto "Bearer ". ok=false para cualquier otra cosa
// (header vacío, "bearer x", "Basic x"). Con prefijo pero sin token devuelve ("", true).
func ExtractBearer(header string) (token string, ok bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}
