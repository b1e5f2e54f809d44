package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	jwtx "github.com/bjrfx/mediacore/internal/jwt"
	tokens "github.com/bjrfx/mediacore/internal/security/token"
)

// minted es un par recién firmado más la fila que lo respalda.
type minted struct {
	tokens dto.Tokens
	row    repository.RefreshToken
}

// mint firma access + refresh para el usuario. No persiste nada.
func (c *core) mint(u *repository.User) (*minted, error) {
	p := jwtx.Payload{
		UID:           u.UID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		DisplayName:   u.DisplayName,
	}
	access, accessExp, err := c.Issuer.IssueAccess(p)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := c.Issuer.IssueRefresh(p)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &minted{
		tokens: dto.Tokens{
			AccessToken:           access,
			RefreshToken:          refresh,
			TokenType:             "Bearer",
			ExpiresIn:             int64(c.Issuer.AccessTTL / time.Second),
			AccessTokenExpiresAt:  accessExp,
			RefreshTokenExpiresAt: refreshExp,
		},
		row: repository.RefreshToken{
			TokenHash: tokens.SHA256Hex(refresh),
			UserID:    u.UID,
			ExpiresAt: refreshExp,
			CreatedAt: c.Now().UTC(),
		},
	}, nil
}

// issueSession firma un par nuevo y persiste el refresh.
func (c *core) issueSession(ctx context.Context, u *repository.User) (*dto.Tokens, error) {
	m, err := c.mint(u)
	if err != nil {
		return nil, err
	}
	if err := c.Refresh.Put(ctx, m.row); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return &m.tokens, nil
}

// userView arma la vista pública con el rol actual.
func (c *core) userView(ctx context.Context, u *repository.User) (*dto.User, error) {
	role, err := c.Users.GetRole(ctx, u.UID)
	if repository.IsNotFound(err) {
		role, err = types.RoleUser, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	view := dto.NewUser(u, role)
	return &view, nil
}

// checkStrength aplica la política y devuelve todas las violaciones.
func (c *core) checkStrength(pw string) error {
	res := c.policy.ValidateStrength(pw)
	if res.Valid {
		return nil
	}
	return &WeakPasswordError{Violations: res.Messages()}
}
