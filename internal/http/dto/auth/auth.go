// Package auth contiene los DTOs de los endpoints /auth.
package auth

import (
	"time"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
)

// RegisterRequest es el body de POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// LoginRequest es el body de POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleRequest es el body de POST /auth/google: un id_token de Google Sign-In
// o un authorization code del flujo server-side.
type GoogleRequest struct {
	IDToken string `json:"idToken,omitempty"`
	Code    string `json:"code,omitempty"`
}

// RefreshRequest es el body de POST /auth/refresh y POST /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ForgotPasswordRequest es el body de POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest es el body de POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SetPasswordRequest es el body de POST /auth/set-password.
type SetPasswordRequest struct {
	Password string `json:"password"`
}

// User es la vista pública de una cuenta. Nunca incluye el hash.
type User struct {
	UID              string     `json:"uid"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"displayName"`
	PhotoURL         string     `json:"photoURL,omitempty"`
	EmailVerified    bool       `json:"emailVerified"`
	SubscriptionTier string     `json:"subscriptionTier"`
	Role             string     `json:"role"`
	HasPassword      bool       `json:"hasPassword"`
	GoogleLinked     bool       `json:"googleLinked"`
	CreatedAt        time.Time  `json:"createdAt"`
	LastSignInAt     *time.Time `json:"lastSignInAt,omitempty"`
}

// NewUser arma la vista pública a partir del registro y su rol.
func NewUser(u *repository.User, role types.Role) User {
	return User{
		UID:              u.UID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		PhotoURL:         u.PhotoURL,
		EmailVerified:    u.EmailVerified,
		SubscriptionTier: string(u.SubscriptionTier),
		Role:             role.String(),
		HasPassword:      u.HasPassword(),
		GoogleLinked:     u.GoogleID != "",
		CreatedAt:        u.CreatedAt,
		LastSignInAt:     u.LastSignInAt,
	}
}

// Tokens es el par emitido en login, registro, google y refresh.
type Tokens struct {
	AccessToken           string    `json:"accessToken"`
	RefreshToken          string    `json:"refreshToken"`
	TokenType             string    `json:"tokenType"`
	ExpiresIn             int64     `json:"expiresIn"` // segundos del access token
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// AuthResult es la respuesta de register y login.
type AuthResult struct {
	User   User   `json:"user"`
	Tokens Tokens `json:"tokens"`
}

// GoogleResult agrega los flags del linker.
type GoogleResult struct {
	User          User   `json:"user"`
	Tokens        Tokens `json:"tokens"`
	IsNewUser     bool   `json:"isNewUser"`
	NeedsPassword bool   `json:"needsPassword"`
}
