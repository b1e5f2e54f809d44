// Package apikey resuelve y autoriza API keys de clientes no interactivos.
//
// Un request requiere el permiso "<acción>:<recurso>": la acción sale del método HTTP
// y el recurso del path (ver Resolver). La autorización es pertenencia exacta al set
// de permisos de la key, sin jerarquías ni comodines.
package apikey

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Acciones.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Recursos del catálogo.
const (
	ResourceMedia     = "media"
	ResourceArtists   = "artists"
	ResourceAlbums    = "albums"
	ResourcePlaylists = "playlists"
	ResourceUsers     = "users"
	ResourceAnalytics = "analytics"
	ResourceUpload    = "upload"
	ResourceStream    = "stream"
	ResourceAPIKeys   = "apikeys"
)

// Actions y Resources forman el vocabulario cerrado de permisos.
var (
	Actions   = []string{ActionRead, ActionWrite, ActionUpdate, ActionDelete}
	Resources = []string{
		ResourceMedia, ResourceArtists, ResourceAlbums, ResourcePlaylists, ResourceUsers,
		ResourceAnalytics, ResourceUpload, ResourceStream, ResourceAPIKeys,
	}
)

// Presets de permisos.
const (
	PresetReadOnly   = "read_only"
	PresetFullAccess = "full_access"
	PresetCustom     = "custom"
)

// Permission arma "<acción>:<recurso>".
func Permission(action, resource string) string { return action + ":" + resource }

// IsValidPermission reporta si p pertenece al vocabulario.
func IsValidPermission(p string) bool {
	action, resource, ok := strings.Cut(p, ":")
	if !ok {
		return false
	}
	return contains(Actions, action) && contains(Resources, resource)
}

// AllPermissions devuelve todas las combinaciones acción × recurso.
func AllPermissions() []string {
	out := make([]string, 0, len(Actions)*len(Resources))
	for _, r := range Resources {
		for _, a := range Actions {
			out = append(out, Permission(a, r))
		}
	}
	return out
}

// InvalidPermissionsError lista todas las entradas fuera del vocabulario.
type InvalidPermissionsError struct {
	Invalid []string
}

func (e *InvalidPermissionsError) Error() string {
	return fmt.Sprintf("apikey: invalid permissions: %s", strings.Join(e.Invalid, ", "))
}

// ErrNoPermissions: un set custom vacío no sirve para nada.
var ErrNoPermissions = errors.New("apikey: at least one permission is required")

// UnknownPresetError indica un preset desconocido.
type UnknownPresetError struct {
	Preset string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("apikey: unknown preset %q", e.Preset)
}

// ExpandPreset devuelve el set de permisos de un preset. custom solo se usa con
// preset "custom" (o vacío); se deduplica y se ordena.
func ExpandPreset(preset string, custom []string) ([]string, error) {
	switch preset {
	case PresetReadOnly:
		out := make([]string, 0, len(Resources))
		for _, r := range Resources {
			out = append(out, Permission(ActionRead, r))
		}
		return out, nil
	case PresetFullAccess:
		return AllPermissions(), nil
	case PresetCustom, "":
		return ValidateCustom(custom)
	default:
		return nil, &UnknownPresetError{Preset: preset}
	}
}

// ValidateCustom valida un set arbitrario. Reporta TODAS las entradas inválidas.
func ValidateCustom(perms []string) ([]string, error) {
	seen := make(map[string]struct{}, len(perms))
	var invalid []string
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if !IsValidPermission(p) {
			invalid = append(invalid, p)
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(invalid) > 0 {
		return nil, &InvalidPermissionsError{Invalid: invalid}
	}
	if len(out) == 0 {
		return nil, ErrNoPermissions
	}
	sort.Strings(out)
	return out, nil
}

// Has reporta pertenencia exacta.
func Has(perms []string, want string) bool { return contains(perms, want) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
