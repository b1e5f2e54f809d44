// Package admin contiene los DTOs de los endpoints /admin.
package admin

import "time"

// CreateAPIKeyRequest es el body de POST /admin/api-keys.
type CreateAPIKeyRequest struct {
	Name        string     `json:"name"`
	Preset      string     `json:"preset"` // read_only | full_access | custom
	Permissions []string   `json:"permissions,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// APIKey es la vista de una key. Key solo viene en la respuesta de creación.
type APIKey struct {
	ID          string     `json:"id"`
	Key         string     `json:"key,omitempty"`
	Prefix      string     `json:"prefix"`
	Name        string     `json:"name"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	UsageCount  int64      `json:"usageCount"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// PatchUserRequest es el body de PATCH /admin/users/{uid}.
type PatchUserRequest struct {
	Role     *string `json:"role,omitempty"`
	Disabled *bool   `json:"disabled,omitempty"`
}

// CallerKey es la respuesta de GET /api/keys/me.
type CallerKey struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Prefix      string     `json:"prefix,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	AdminBypass bool       `json:"adminBypass"`
}
