// Package tokens genera tokens opacos y sus hashes de almacenamiento.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// RecoveryTokenBytes: 32 bytes = 256 bits para links de verificación y reset.
const RecoveryTokenBytes = 32

// APIKeyPrefix identifica las API keys de mediacore.
const APIKeyPrefix = "mck_"

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Hex devuelve sha256(input) en hexadecimal; es la forma en que se guardan
// refresh tokens, tokens de recuperación y API keys.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey crea una key "mck_<base64url(32 bytes)>".
// Devuelve la key completa (se muestra una sola vez), su hash y un prefijo visible.
func GenerateAPIKey() (key, keyHash, displayPrefix string, err error) {
	raw, err := GenerateOpaqueToken(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate api key: %w", err)
	}
	key = APIKeyPrefix + raw
	return key, SHA256Hex(key), key[:len(APIKeyPrefix)+8], nil
}

// LooksLikeAPIKey valida el formato sin tocar el store.
func LooksLikeAPIKey(s string) bool {
	if !strings.HasPrefix(s, APIKeyPrefix) {
		return false
	}
	body := strings.TrimPrefix(s, APIKeyPrefix)
	if len(body) < 16 {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(body)
	return err == nil
}
