package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("superuser")
	require.Error(t, err)

	_, err = ParseRole("")
	require.Error(t, err)
}

func TestRoleCan(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapManageUsers, true},
		{RoleAdmin, CapAdminBypass, true},
		{RoleModerator, CapModerateContent, true},
		{RoleModerator, CapManageAPIKeys, false},
		{RoleModerator, CapAdminBypass, false},
		{RoleUser, CapReadCatalog, true},
		{RoleUser, CapModerateContent, false},
		{Role("root"), CapReadCatalog, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.Can(tt.cap), "%s can %d", tt.role, tt.cap)
	}
}
