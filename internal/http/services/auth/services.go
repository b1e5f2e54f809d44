// Package auth contiene los services de autenticación: registro, login, rotación de
// sesiones, Google Sign-In y recuperación de cuenta.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
	jwtx "github.com/bjrfx/mediacore/internal/jwt"
	"github.com/bjrfx/mediacore/internal/oauth/google"
	"github.com/bjrfx/mediacore/internal/security/password"
)

const (
	DefaultVerifyTTL = 24 * time.Hour
	DefaultResetTTL  = time.Hour
)

// GoogleVerifier valida credenciales de Google y devuelve la identidad verificada.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, rawIDToken string) (*google.Identity, error)
	ExchangeCode(ctx context.Context, code string) (*google.Identity, error)
}

// Mailer envía los links de verificación y reset.
type Mailer interface {
	SendVerification(to, name, token string, ttl time.Duration) error
	SendPasswordReset(to, name, token string, ttl time.Duration) error
}

// Deps contiene las dependencias para crear los services auth.
type Deps struct {
	Users    repository.UserRepository
	Refresh  repository.RefreshTokenRepository
	Recovery repository.RecoveryRepository
	Hasher   *password.Hasher
	Policy   *password.Policy // nil = password.DefaultPolicy
	Issuer   *jwtx.Issuer
	Google   GoogleVerifier // nil = /auth/google deshabilitado
	Mailer   Mailer
	// VerifyTTL y ResetTTL: 0 toma 24h / 1h.
	VerifyTTL time.Duration
	ResetTTL  time.Duration
	Now       func() time.Time
}

// RegisterService crea cuentas con email y password.
type RegisterService interface {
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.AuthResult, error)
}

// LoginService autentica con email y password.
type LoginService interface {
	Login(ctx context.Context, in dto.LoginRequest) (*dto.AuthResult, error)
}

// SessionService rota y revoca refresh tokens.
type SessionService interface {
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

// ProfileService devuelve la cuenta del usuario autenticado.
type ProfileService interface {
	Me(ctx context.Context, uid string) (*dto.User, error)
}

// GoogleService resuelve un login de Google contra las cuentas locales.
type GoogleService interface {
	SignIn(ctx context.Context, in dto.GoogleRequest) (*dto.GoogleResult, error)
}

// PasswordService fija el primer password de una cuenta solo-OAuth.
type PasswordService interface {
	SetPassword(ctx context.Context, uid, newPassword string) error
}

// RecoveryService maneja verificación de email y reset de password.
type RecoveryService interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) (uid string, err error)
	ResendVerification(ctx context.Context, uid string) error
}

// Services agrupa todos los services del dominio auth.
type Services struct {
	Register RegisterService
	Login    LoginService
	Session  SessionService
	Profile  ProfileService
	Google   GoogleService
	Password PasswordService
	Recovery RecoveryService

	core *core
}

// Wait bloquea hasta que terminen los envíos de email en background.
func (s Services) Wait() {
	if s.core != nil {
		s.core.mail.Wait()
	}
}

// NewServices crea el agregador de services auth.
func NewServices(d Deps) Services {
	c := newCore(d)
	return Services{
		Register: &registerService{c},
		Login:    &loginService{c},
		Session:  &sessionService{c},
		Profile:  &profileService{c},
		Google:   &googleService{c},
		Password: &passwordService{c},
		Recovery: &recoveryService{c},
		core:     c,
	}
}

// core comparte dependencias y helpers entre los services.
type core struct {
	Deps
	policy password.Policy
	mail   sync.WaitGroup
}

func newCore(d Deps) *core {
	if d.VerifyTTL <= 0 {
		d.VerifyTTL = DefaultVerifyTTL
	}
	if d.ResetTTL <= 0 {
		d.ResetTTL = DefaultResetTTL
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	p := password.DefaultPolicy
	if d.Policy != nil {
		p = *d.Policy
	}
	return &core{Deps: d, policy: p}
}
