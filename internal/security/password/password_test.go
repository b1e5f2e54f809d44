package password

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidateStrength_ReportsEveryRule(t *testing.T) {
	res := ValidateStrength("abc")
	assert.False(t, res.Valid)
	assert.Equal(t, []string{RuleTooShort, RuleMissingUpper, RuleMissingDigit, RuleMissingSymbol}, res.Violations)
	assert.Len(t, res.Messages(), 4)

	res = ValidateStrength("")
	assert.ElementsMatch(t, []string{RuleTooShort, RuleMissingUpper, RuleMissingLower, RuleMissingDigit, RuleMissingSymbol}, res.Violations)
}

func TestValidateStrength_Valid(t *testing.T) {
	for _, pw := range []string{"Abcd1234!", "xY9#xxxx", "Pa55word`"} {
		res := ValidateStrength(pw)
		assert.True(t, res.Valid, pw)
		assert.Empty(t, res.Violations, pw)
	}
}

func TestValidateStrength_SymbolMustBeFromFixedSet(t *testing.T) {
	// "€" no está en el set fijo
	res := ValidateStrength("Abcd1234€")
	assert.Equal(t, []string{RuleMissingSymbol}, res.Violations)
}

func TestValidateStrength_TooLong(t *testing.T) {
	res := ValidateStrength("Aa1!" + strings.Repeat("x", 80))
	assert.Equal(t, []string{RuleTooLong}, res.Violations)
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(HasherConfig{Cost: bcrypt.MinCost, MaxConcurrent: 2})
	require.NoError(t, err)
	return h
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "Abcd1234!")
	require.NoError(t, err)
	assert.NotEqual(t, "Abcd1234!", hash)

	ok, err := h.Verify(ctx, "Abcd1234!", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(ctx, "wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_EmptyHashNeverVerifies(t *testing.T) {
	h := newTestHasher(t)
	ok, err := h.Verify(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, h.VerifyDummy(context.Background(), "anything"))
}

func TestHasher_MalformedHashIsInfraError(t *testing.T) {
	h := newTestHasher(t)
	_, err := h.Verify(context.Background(), "Abcd1234!", "not-a-bcrypt-hash")
	require.Error(t, err)
}

func TestHasher_CancelledContext(t *testing.T) {
	h := newTestHasher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Hash(ctx, "Abcd1234!")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewHasher_RejectsBadCost(t *testing.T) {
	_, err := NewHasher(HasherConfig{Cost: 99})
	require.Error(t, err)
}
