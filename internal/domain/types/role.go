// Package types define tipos de dominio compartidos entre paquetes.
package types

import (
	"fmt"
	"strings"
)

// Role es el rol de plataforma de un usuario. Conjunto cerrado.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lista todos los roles válidos, de menor a mayor privilegio.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// ParseRole normaliza y valida un rol.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// IsValid retorna true si el rol pertenece al conjunto cerrado.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// Capability es una acción de plataforma que depende del rol.
type Capability int

const (
	// CapReadCatalog: navegar el catálogo con sesión.
	CapReadCatalog Capability = iota
	// CapModerateContent: ocultar/editar contenido de otros usuarios.
	CapModerateContent
	// CapManageUsers: cambiar rol o deshabilitar cuentas.
	CapManageUsers
	// CapManageAPIKeys: crear, listar y revocar API keys.
	CapManageAPIKeys
	// CapAdminBypass: saltear el chequeo de API key en rutas que lo permiten.
	CapAdminBypass
)

// Can reporta si el rol tiene la capability. Roles desconocidos no tienen ninguna.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleModerator:
		switch c {
		case CapReadCatalog, CapModerateContent:
			return true
		}
		return false
	case RoleUser:
		return c == CapReadCatalog
	}
	return false
}

// SubscriptionTier es el plan del usuario; lo consumen los handlers del catálogo.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)
