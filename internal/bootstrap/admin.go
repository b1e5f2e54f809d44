// Package bootstrap crea la primera cuenta admin desde la CLI.
package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bjrfx/mediacore/internal/audit"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	"github.com/bjrfx/mediacore/internal/security/password"
	"github.com/bjrfx/mediacore/internal/validation"
)

// ErrAccountExists indica que el email ya tiene cuenta; para promoverla usar set-role.
var ErrAccountExists = errors.New("bootstrap: an account with that email already exists")

// AdminConfig contiene lo necesario para crear el admin.
type AdminConfig struct {
	Users  repository.UserRepository
	Hasher *password.Hasher

	// Email/Password pre-cargados; si faltan se piden por In/Out.
	Email       string
	Password    string
	DisplayName string

	In  io.Reader // default os.Stdin
	Out io.Writer // default os.Stdout
	// ReadPassword lee sin eco; default term.ReadPassword sobre stdin.
	ReadPassword func() ([]byte, error)
}

// CreateAdmin crea una cuenta con rol admin y email verificado.
func CreateAdmin(ctx context.Context, cfg AdminConfig) (*repository.User, error) {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.ReadPassword == nil {
		cfg.ReadPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
	}

	// Paso 1: credenciales (flags o prompt)
	email, plain, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	if res := password.ValidateStrength(plain); !res.Valid {
		return nil, fmt.Errorf("weak password: %s", strings.Join(res.Messages(), "; "))
	}

	// Paso 2: hash + alta
	hash, err := cfg.Hasher.Hash(ctx, plain)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := cfg.Users.Create(ctx, repository.CreateUserInput{
		Email:            email,
		PasswordHash:     hash,
		DisplayName:      strings.TrimSpace(cfg.DisplayName),
		EmailVerified:    true,
		SubscriptionTier: types.TierFree,
		Role:             types.RoleAdmin,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	audit.Log(ctx, audit.EventAdminBootstrap, audit.Actor("cli"), logger.UserID(u.UID), logger.Email(u.Email))
	return u, nil
}

func credentials(cfg AdminConfig) (email, plain string, err error) {
	email = validation.NormalizeEmail(cfg.Email)
	if email == "" {
		fmt.Fprint(cfg.Out, "Admin email: ")
		line, err := bufio.NewReader(cfg.In).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", err
		}
		email = validation.NormalizeEmail(line)
	}
	if !validation.ValidEmail(email) {
		return "", "", fmt.Errorf("invalid email %q", email)
	}

	plain = cfg.Password
	if plain == "" {
		fmt.Fprint(cfg.Out, "Admin password: ")
		b, err := cfg.ReadPassword()
		fmt.Fprintln(cfg.Out)
		if err != nil {
			return "", "", err
		}
		fmt.Fprint(cfg.Out, "Confirm password: ")
		confirm, err := cfg.ReadPassword()
		fmt.Fprintln(cfg.Out)
		if err != nil {
			return "", "", err
		}
		if string(b) != string(confirm) {
			return "", "", errors.New("passwords do not match")
		}
		plain = string(b)
	}
	return email, plain, nil
}
