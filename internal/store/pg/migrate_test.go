package pg

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	migrations "github.com/bjrfx/mediacore/migrations/postgres"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	migs, err := LoadMigrations(migrations.FS)
	require.NoError(t, err)
	require.Len(t, migs, 3)

	assert.Equal(t, "0001_users", migs[0].Version)
	assert.Equal(t, "0002_tokens", migs[1].Version)
	assert.Equal(t, "0003_api_keys", migs[2].Version)
	for _, m := range migs {
		assert.NotEmpty(t, m.Up, m.Version)
		assert.NotEmpty(t, m.Down, m.Version)
	}
	assert.Contains(t, migs[0].Up, "CREATE TABLE IF NOT EXISTS users")
}

func TestLoadMigrations_SortsAndPairs(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b_up.sql":   {Data: []byte("SELECT 2")},
		"0001_a_up.sql":   {Data: []byte("SELECT 1")},
		"0001_a_down.sql": {Data: []byte("SELECT -1")},
		"README.md":       {Data: []byte("ignored")},
		"notes.sql":       {Data: []byte("ignored too")},
	}
	migs, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, Migration{Version: "0001_a", Up: "SELECT 1", Down: "SELECT -1"}, migs[0])
	assert.Equal(t, "0002_b", migs[1].Version)
	assert.Empty(t, migs[1].Down)
}

func TestLoadMigrations_DownWithoutUp(t *testing.T) {
	fsys := fstest.MapFS{"0001_a_down.sql": {Data: []byte("DROP TABLE a")}}
	_, err := LoadMigrations(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no up script")
}

func TestParseSteps(t *testing.T) {
	n, err := ParseSteps("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = ParseSteps("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, bad := range []string{"0", "-1", "x"} {
		_, err := ParseSteps(bad)
		assert.Error(t, err, bad)
	}
}
