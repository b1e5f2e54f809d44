package apikey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPreset_ReadOnly(t *testing.T) {
	perms, err := ExpandPreset(PresetReadOnly, nil)
	require.NoError(t, err)
	assert.Len(t, perms, len(Resources))
	for _, p := range perms {
		assert.Regexp(t, `^read:`, p)
	}
}

func TestExpandPreset_FullAccess(t *testing.T) {
	perms, err := ExpandPreset(PresetFullAccess, nil)
	require.NoError(t, err)
	assert.Len(t, perms, len(Resources)*len(Actions))
	assert.Contains(t, perms, "delete:apikeys")
}

func TestExpandPreset_CustomReportsEveryInvalidEntry(t *testing.T) {
	_, err := ExpandPreset(PresetCustom, []string{"read:media", "fly:media", "read:planets", "nope"})
	var inv *InvalidPermissionsError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, []string{"fly:media", "read:planets", "nope"}, inv.Invalid)
}

func TestExpandPreset_CustomDedupAndSort(t *testing.T) {
	perms, err := ExpandPreset(PresetCustom, []string{"write:media", "read:media", "read:media"})
	require.NoError(t, err)
	assert.Equal(t, []string{"read:media", "write:media"}, perms)
}

func TestExpandPreset_Errors(t *testing.T) {
	_, err := ExpandPreset(PresetCustom, nil)
	assert.ErrorIs(t, err, ErrNoPermissions)

	_, err = ExpandPreset("superuser", nil)
	var up *UnknownPresetError
	assert.True(t, errors.As(err, &up))
}

func TestHas_IsExactMembership(t *testing.T) {
	perms := []string{"read:media"}
	assert.True(t, Has(perms, "read:media"))
	assert.False(t, Has(perms, "read:medi"))
	assert.False(t, Has(perms, "write:media"))
}
