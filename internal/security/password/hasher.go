// Package password hashea, verifica y valida passwords.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/bjrfx/mediacore/internal/domain/repository"
)

// DefaultCost ronda los 100-250ms por operación en hardware actual.
const DefaultCost = 12

// HasherConfig configura el Hasher.
type HasherConfig struct {
	// Cost de bcrypt. 0 = DefaultCost.
	Cost int
	// MaxConcurrent limita cuántos hash/verify corren a la vez. 0 = GOMAXPROCS.
	MaxConcurrent int
}

// Hasher corre bcrypt en goroutines acotadas por un semáforo, fuera del goroutine
// que atiende el request. Si el contexto vence, el caller vuelve enseguida.
type Hasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewHasher crea un Hasher. Precalcula un hash señuelo para igualar tiempos
// cuando el usuario no existe o no tiene password.
func NewHasher(cfg HasherConfig) (*Hasher, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password: bcrypt cost %d out of range", cost)
	}
	n := cfg.MaxConcurrent
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("mediacore-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("password: dummy hash: %w", err)
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(n)), dummy: dummy}, nil
}

// run ejecuta fn en un goroutine con un slot del semáforo.
func (h *Hasher) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		defer h.sem.Release(1)
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hash devuelve el hash bcrypt de plain.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password: empty password")
	}
	var out []byte
	err := h.run(ctx, func() error {
		b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
		out = b
		return err
	})
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(out), nil
}

// Verify compara plain contra hash. Un mismatch es (false, nil); el error queda para
// fallas del primitivo o del contexto. El hash vacío (cuenta sin password) nunca
// verifica, pero igual paga el costo de una comparación.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) (bool, error) {
	target := []byte(hash)
	if hash == repository.EmptyPasswordHash {
		target = h.dummy
	}
	var cmpErr error
	err := h.run(ctx, func() error {
		cmpErr = bcrypt.CompareHashAndPassword(target, []byte(plain))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("password: verify: %w", err)
	}
	if hash == repository.EmptyPasswordHash {
		return false, nil
	}
	switch {
	case cmpErr == nil:
		return true, nil
	case errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("password: verify: %w", cmpErr)
	}
}

// VerifyDummy quema el mismo tiempo que un Verify real. Se usa cuando el email no existe.
func (h *Hasher) VerifyDummy(ctx context.Context, plain string) error {
	_, err := h.Verify(ctx, plain, repository.EmptyPasswordHash)
	return err
}
