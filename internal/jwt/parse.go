package jwt

import (
	"errors"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired: firma válida pero exp vencido. El caller puede intentar refresh.
	ErrExpired = errors.New("token expired")
	// ErrInvalid: firma, formato, iss, aud o typ inválidos. El caller debe re-loguear.
	ErrInvalid = errors.New("token invalid")
)

// Verify valida firma, exp, iss, aud y typ.
//
// Si la única falla es el vencimiento, devuelve las claims verificadas junto con
// ErrExpired: la firma ya fue chequeada y el refresh necesita el uid para limpiar.
func (i *Issuer) Verify(raw string, want TokenType) (*Claims, error) {
	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithAudience(i.Aud),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithTimeFunc(i.now),
	)
	claims := &Claims{}
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwtv5.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		if onlyExpired(err) && claims.TokenType == want {
			return claims, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: want %s token, got %q", ErrInvalid, want, claims.TokenType)
	}
	if claims.UID == "" || claims.UID != claims.Subject {
		return nil, fmt.Errorf("%w: uid/sub mismatch", ErrInvalid)
	}
	return claims, nil
}

// onlyExpired: el parser de v5 verifica la firma antes de validar claims, así que
// un ErrTokenExpired sin ningún otro error implica firma e iss/aud correctos.
func onlyExpired(err error) bool {
	if !errors.Is(err, jwtv5.ErrTokenExpired) {
		return false
	}
	for _, other := range []error{
		jwtv5.ErrTokenMalformed,
		jwtv5.ErrTokenUnverifiable,
		jwtv5.ErrTokenSignatureInvalid,
		jwtv5.ErrTokenInvalidIssuer,
		jwtv5.ErrTokenInvalidAudience,
		jwtv5.ErrTokenNotValidYet,
		jwtv5.ErrTokenUsedBeforeIssued,
		jwtv5.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}

// DecodeUnverified lee las claims sin verificar firma ni vencimiento.
// Solo para diagnóstico y logs; nunca para decidir autorización.
func DecodeUnverified(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwtv5.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return claims, nil
}
