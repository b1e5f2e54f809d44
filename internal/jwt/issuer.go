// Package jwt emite y verifica los access/refresh tokens de sesión (HS256).
package jwt

import (
	"errors"
	"time"

	"github.com/google/uuid"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// TokenType distingue access de refresh dentro del payload ("typ").
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// minSecretLen: HS256 con menos de 32 bytes de secreto no se acepta.
const minSecretLen = 32

// Payload son los datos de identidad que viajan en ambos tokens.
// Son informativos: las decisiones de autorización se toman sobre el store.
type Payload struct {
	UID           string
	Email         string
	EmailVerified bool
	DisplayName   string
}

// Claims es el payload firmado.
type Claims struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	DisplayName   string    `json:"displayName,omitempty"`
	TokenType     TokenType `json:"typ"`
	jwtv5.RegisteredClaims
}

// Issuer firma tokens con un secreto compartido y iss/aud fijos.
type Issuer struct {
	Iss        string
	Aud        string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	secret []byte
	now    func() time.Time
}

// NewIssuer crea un Issuer. TTLs en cero toman los defaults (15m / 7d).
func NewIssuer(secret, iss, aud string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if len(secret) < minSecretLen {
		return nil, errors.New("jwt: secret must be at least 32 bytes")
	}
	if iss == "" || aud == "" {
		return nil, errors.New("jwt: issuer and audience are required")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Issuer{
		Iss:        iss,
		Aud:        aud,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		secret:     []byte(secret),
		now:        time.Now,
	}, nil
}

// WithClock devuelve una copia del Issuer con otro reloj (tests).
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	c := *i
	c.now = now
	return &c
}

// IssueAccess emite un access token.
func (i *Issuer) IssueAccess(p Payload) (string, time.Time, error) {
	return i.issue(p, TypeAccess, i.AccessTTL)
}

// IssueRefresh emite un refresh token. El caller debe persistir su hash.
func (i *Issuer) IssueRefresh(p Payload) (string, time.Time, error) {
	return i.issue(p, TypeRefresh, i.RefreshTTL)
}

func (i *Issuer) issue(p Payload, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	if p.UID == "" {
		return "", time.Time{}, errors.New("jwt: empty uid")
	}
	now := i.now().UTC()
	exp := now.Add(ttl)

	claims := Claims{
		UID:           p.UID,
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		DisplayName:   p.DisplayName,
		TokenType:     typ,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   p.UID,
			Audience:  jwtv5.ClaimStrings{i.Aud},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
			// jti distingue dos tokens emitidos en el mismo segundo
			ID: uuid.NewString(),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
