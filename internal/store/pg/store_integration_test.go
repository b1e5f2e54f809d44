package pg

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	migrations "github.com/bjrfx/mediacore/migrations/postgres"
)

// newTestStore levanta un Postgres efímero y aplica las migraciones embebidas.
// Sin Docker el test se saltea.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("mediacore_test"),
		postgres.WithUsername("mediacore"),
		postgres.WithPassword("mediacore"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ctr.Terminate(cctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	st, err := New(ctx, Config{DSN: dsn, MaxConns: 16, QueryTimeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(st.Close)

	n, err := st.MigrateUp(ctx, migrations.FS)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	return st
}

func createUser(t *testing.T, st *Store, email, hash string) *repository.User {
	t.Helper()
	u, err := st.Users().Create(context.Background(), repository.CreateUserInput{Email: email, PasswordHash: hash})
	require.NoError(t, err)
	return u
}

func TestPostgres_StoreSemantics(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	t.Run("migrations are idempotent", func(t *testing.T) {
		n, err := st.MigrateUp(ctx, migrations.FS)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("concurrent rotation has exactly one winner", func(t *testing.T) {
		u := createUser(t, st, "rotate@example.com", "$2a$hash")
		exp := time.Now().Add(time.Hour)
		require.NoError(t, st.RefreshTokens().Put(ctx, repository.RefreshToken{TokenHash: "old", UserID: u.UID, ExpiresAt: exp}))

		const workers = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			wins     int
			notFound int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				next := repository.RefreshToken{TokenHash: fmt.Sprintf("next-%d", i), UserID: u.UID, ExpiresAt: exp}
				err := st.RefreshTokens().Rotate(ctx, "old", u.UID, next)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case repository.IsNotFound(err):
					notFound++
				default:
					t.Errorf("unexpected rotate error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
		assert.Equal(t, workers-1, notFound)

		_, err := st.RefreshTokens().Get(ctx, "old", u.UID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("expired refresh row cannot rotate", func(t *testing.T) {
		u := createUser(t, st, "stale@example.com", "$2a$hash")
		require.NoError(t, st.RefreshTokens().Put(ctx, repository.RefreshToken{TokenHash: "stale", UserID: u.UID, ExpiresAt: time.Now().Add(-time.Minute)}))
		err := st.RefreshTokens().Rotate(ctx, "stale", u.UID, repository.RefreshToken{TokenHash: "stale-next", UserID: u.UID, ExpiresAt: time.Now().Add(time.Hour)})
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = st.RefreshTokens().Get(ctx, "stale-next", u.UID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("password reset is single use and revokes sessions", func(t *testing.T) {
		u := createUser(t, st, "reset@example.com", "$2a$old")
		exp := time.Now().Add(time.Hour)
		for _, h := range []string{"s1", "s2"} {
			require.NoError(t, st.RefreshTokens().Put(ctx, repository.RefreshToken{TokenHash: h, UserID: u.UID, ExpiresAt: exp}))
		}
		require.NoError(t, st.Recovery().CreatePasswordReset(ctx, repository.PasswordResetToken{TokenHash: "reset-1", UserID: u.UID, ExpiresAt: exp}))

		res, err := st.Recovery().ConsumePasswordReset(ctx, "reset-1", "$2a$new")
		require.NoError(t, err)
		assert.Equal(t, u.UID, res.UserID)
		assert.EqualValues(t, 2, res.RevokedSessions)

		_, err = st.Recovery().ConsumePasswordReset(ctx, "reset-1", "$2a$other")
		assert.ErrorIs(t, err, repository.ErrTokenUsed)

		got, err := st.Users().GetByID(ctx, u.UID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$new", got.PasswordHash)
		_, err = st.RefreshTokens().Get(ctx, "s1", u.UID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("expired verification leaves user unverified", func(t *testing.T) {
		u := createUser(t, st, "verify@example.com", "$2a$hash")
		require.NoError(t, st.Recovery().CreateEmailVerification(ctx, repository.EmailVerificationToken{TokenHash: "v-old", UserID: u.UID, ExpiresAt: time.Now().Add(-time.Minute)}))

		_, err := st.Recovery().ConsumeEmailVerification(ctx, "v-old")
		assert.ErrorIs(t, err, repository.ErrTokenExpired)

		got, err := st.Users().GetByID(ctx, u.UID)
		require.NoError(t, err)
		assert.False(t, got.EmailVerified)

		_, err = st.Recovery().ConsumeEmailVerification(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("set password only when empty", func(t *testing.T) {
		withPw := createUser(t, st, "haspw@example.com", "$2a$hash")
		ok, err := st.Users().SetPasswordIfEmpty(ctx, withPw.UID, "$2a$replaced")
		require.NoError(t, err)
		assert.False(t, ok)

		oauthOnly := createUser(t, st, "oauth@example.com", repository.EmptyPasswordHash)
		ok, err = st.Users().SetPasswordIfEmpty(ctx, oauthOnly.UID, "$2a$first")
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := st.Users().GetByID(ctx, withPw.UID)
		require.NoError(t, err)
		assert.Equal(t, "$2a$hash", got.PasswordHash)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		createUser(t, st, "dup@example.com", "$2a$hash")
		_, err := st.Users().Create(ctx, repository.CreateUserInput{Email: "dup@example.com", PasswordHash: "$2a$hash"})
		assert.ErrorIs(t, err, repository.ErrConflict)
	})
}
