package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClientID = "client-123.apps.googleusercontent.com"

// fakeIssuer sirve discovery, JWKS y token endpoint firmando con una clave RSA local.
type fakeIssuer struct {
	srv *httptest.Server
	key *rsa.PrivateKey
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &fakeIssuer{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                f.srv.URL,
			"authorization_endpoint":                f.srv.URL + "/auth",
			"token_endpoint":                        f.srv.URL + "/token",
			"jwks_uri":                              f.srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"alg": "RS256",
				"use": "sig",
				"kid": "k1",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     f.sign(t, f.claims("sub-1", testClientID)),
		})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIssuer) claims(sub, aud string) jwtv5.MapClaims {
	now := time.Now()
	return jwtv5.MapClaims{
		"iss":            f.srv.URL,
		"aud":            aud,
		"sub":            sub,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"email":          "Alice@Example.com",
		"email_verified": true,
		"name":           "Alice",
		"picture":        "https://example.com/a.png",
	}
}

func (f *fakeIssuer) sign(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims)
	tk.Header["kid"] = "k1"
	s, err := tk.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func TestVerifyIDToken(t *testing.T) {
	f := newFakeIssuer(t)
	g := New(Config{ClientID: testClientID, IssuerURL: f.srv.URL})

	id, err := g.VerifyIDToken(context.Background(), f.sign(t, f.claims("sub-1", testClientID)))
	require.NoError(t, err)
	assert.Equal(t, "sub-1", id.SubjectID)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, "Alice", id.DisplayName)
	assert.True(t, id.EmailVerified)
}

func TestVerifyIDToken_WrongAudience(t *testing.T) {
	f := newFakeIssuer(t)
	g := New(Config{ClientID: testClientID, IssuerURL: f.srv.URL})

	_, err := g.VerifyIDToken(context.Background(), f.sign(t, f.claims("sub-1", "someone-else")))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyIDToken_Expired(t *testing.T) {
	f := newFakeIssuer(t)
	g := New(Config{ClientID: testClientID, IssuerURL: f.srv.URL})

	cl := f.claims("sub-1", testClientID)
	cl["exp"] = time.Now().Add(-time.Hour).Unix()
	_, err := g.VerifyIDToken(context.Background(), f.sign(t, cl))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyIDToken_Garbage(t *testing.T) {
	f := newFakeIssuer(t)
	g := New(Config{ClientID: testClientID, IssuerURL: f.srv.URL})

	_, err := g.VerifyIDToken(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExchangeCode(t *testing.T) {
	f := newFakeIssuer(t)
	g := New(Config{ClientID: testClientID, ClientSecret: "secret", RedirectURL: "postmessage", IssuerURL: f.srv.URL})

	id, err := g.ExchangeCode(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", id.SubjectID)

	_, err = g.ExchangeCode(context.Background(), "bad-code")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestDiscoveryFailureIsNotInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	g := New(Config{ClientID: testClientID, IssuerURL: srv.URL, Timeout: time.Second})

	_, err := g.VerifyIDToken(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}
