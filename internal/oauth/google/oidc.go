// Package google verifica identidades de Google Sign-In (OIDC).
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DefaultIssuer es el issuer OIDC de Google.
const DefaultIssuer = "https://accounts.google.com"

// ErrInvalidToken: el id_token o el code no son válidos para este client.
var ErrInvalidToken = errors.New("google: invalid token")

// Identity es la identidad verificada que devuelve el proveedor.
type Identity struct {
	SubjectID     string
	Email         string
	DisplayName   string
	PictureURL    string
	EmailVerified bool
}

// Config configura el verificador.
type Config struct {
	ClientID     string
	ClientSecret string // solo para ExchangeCode
	RedirectURL  string // solo para ExchangeCode
	IssuerURL    string // default DefaultIssuer; tests apuntan a un issuer local
	Timeout      time.Duration
}

// OIDC verifica id_tokens contra el discovery/JWKS del issuer.
// El discovery se hace lazy en el primer uso y se reintenta si falla.
type OIDC struct {
	cfg  Config
	http *http.Client

	mu       sync.Mutex
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   *oauth2.Config
}

// New crea el verificador. No hace I/O.
func New(cfg Config) *OIDC {
	if cfg.IssuerURL == "" {
		cfg.IssuerURL = DefaultIssuer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &OIDC{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (g *OIDC) init() (*oidc.IDTokenVerifier, *oauth2.Config, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifier != nil {
		return g.verifier, g.oauth2, nil
	}

	// El keyset remoto guarda este contexto para refrescar claves: no puede ser el
	// del request. El timeout lo pone el http.Client.
	base := oidc.ClientContext(context.Background(), g.http)
	provider, err := oidc.NewProvider(base, g.cfg.IssuerURL)
	if err != nil {
		return nil, nil, fmt.Errorf("google: discovery: %w", err)
	}
	g.provider = provider
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.cfg.ClientID})
	g.oauth2 = &oauth2.Config{
		ClientID:     g.cfg.ClientID,
		ClientSecret: g.cfg.ClientSecret,
		RedirectURL:  g.cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	return g.verifier, g.oauth2, nil
}

type idClaims struct {
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"` // Google a veces lo manda como string
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// VerifyIDToken valida firma, iss, aud y exp del id_token y devuelve la identidad.
func (g *OIDC) VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	verifier, _, err := g.init()
	if err != nil {
		return nil, err
	}
	idToken, err := verifier.Verify(oidc.ClientContext(ctx, g.http), rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var cl idClaims
	if err := idToken.Claims(&cl); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrInvalidToken, err)
	}
	if idToken.Subject == "" || cl.Email == "" {
		return nil, fmt.Errorf("%w: missing sub or email", ErrInvalidToken)
	}
	return &Identity{
		SubjectID:     idToken.Subject,
		Email:         strings.ToLower(strings.TrimSpace(cl.Email)),
		DisplayName:   cl.Name,
		PictureURL:    cl.Picture,
		EmailVerified: truthy(cl.EmailVerified),
	}, nil
}

// ExchangeCode canjea un authorization code y verifica el id_token recibido.
func (g *OIDC) ExchangeCode(ctx context.Context, code string) (*Identity, error) {
	_, oc, err := g.init()
	if err != nil {
		return nil, err
	}
	tok, err := oc.Exchange(context.WithValue(ctx, oauth2.HTTPClient, g.http), code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange: %v", ErrInvalidToken, err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: missing id_token in response", ErrInvalidToken)
	}
	return g.VerifyIDToken(ctx, raw)
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}
