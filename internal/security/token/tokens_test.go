package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOpaqueToken_Unique(t *testing.T) {
	a, err := GenerateOpaqueToken(RecoveryTokenBytes)
	require.NoError(t, err)
	b, err := GenerateOpaqueToken(RecoveryTokenBytes)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43) // 32 bytes base64url sin padding
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(""))
}

func TestGenerateAPIKey(t *testing.T) {
	key, hash, prefix, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, LooksLikeAPIKey(key))
	assert.Equal(t, SHA256Hex(key), hash)
	assert.Len(t, prefix, len(APIKeyPrefix)+8)
	assert.Equal(t, key[:len(prefix)], prefix)

	assert.False(t, LooksLikeAPIKey("sk_live_123"))
	assert.False(t, LooksLikeAPIKey("mck_short"))
	assert.False(t, LooksLikeAPIKey("mck_!!!!!!!!!!!!!!!!!!!!"))
}
