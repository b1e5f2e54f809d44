package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsAndYAML(t *testing.T) {
	p := writeYAML(t, `
app:
  env: dev
storage:
  driver: memory
jwt:
  secret: "`+secret+`"
  access_ttl: 10m
apikey:
  routes:
    /api/podcasts: media
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 10*time.Minute, c.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, c.JWT.RefreshTTL)
	assert.Equal(t, 24*time.Hour, c.Auth.Verify.TTL)
	assert.Equal(t, time.Hour, c.Auth.Reset.TTL)
	assert.Equal(t, "memory", c.Cache.Kind)
	assert.Equal(t, "media", c.APIKey.Routes["/api/podcasts"])
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	p := writeYAML(t, `
storage:
  driver: memory
jwt:
  secret: "`+secret+`"
`)
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("APIKEY_ADMIN_BYPASS", "true")

	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, 5*time.Minute, c.JWT.AccessTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Server.CORSAllowedOrigins)
	assert.True(t, c.APIKey.AdminBypass)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	p := writeYAML(t, `
app:
  env: prod
storage:
  driver: memory
cache:
  kind: redis
jwt:
  secret: short
smtp:
  tls: maybe
`)
	_, err := Load(p)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "storage.driver=memory is not allowed in prod")
	assert.Contains(t, msg, "cache.redis.addr")
	assert.Contains(t, msg, "jwt.secret")
	assert.Contains(t, msg, "smtp.tls")
}

func TestValidate_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")

	t.Setenv("DATABASE_URL", "postgres://localhost/mediacore")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", c.Storage.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
