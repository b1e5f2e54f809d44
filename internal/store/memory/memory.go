// Package memory implementa repository.Store en memoria.
// Sirve para desarrollo local (storage.driver=memory) y para tests; el estado se
// pierde al reiniciar, por eso config.Validate lo rechaza en prod.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
)

// Store guarda todo bajo un único mutex: cada operación es atómica igual que una
// transacción en pg.
type Store struct {
	mu sync.Mutex

	users       map[string]*repository.User // uid -> user
	roles       map[string]types.Role
	refresh     map[string]repository.RefreshToken
	verify      map[string]repository.EmailVerificationToken
	resets      map[string]repository.PasswordResetToken
	apiKeys     map[string]*repository.APIKey // key hash -> key
	now         func() time.Time
	failUsageFn func() error
}

var _ repository.Store = (*Store)(nil)

// New crea un store vacío.
func New() *Store {
	return &Store{
		users:   map[string]*repository.User{},
		roles:   map[string]types.Role{},
		refresh: map[string]repository.RefreshToken{},
		verify:  map[string]repository.EmailVerificationToken{},
		resets:  map[string]repository.PasswordResetToken{},
		apiKeys: map[string]*repository.APIKey{},
		now:     time.Now,
	}
}

// SetClock fija el reloj usado para vencimientos (tests).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailUsage hace que RecordUsage devuelva el error de fn (tests de best-effort).
func (s *Store) FailUsage(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUsageFn = fn
}

func (s *Store) Users() repository.UserRepository                 { return (*userRepo)(s) }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return (*refreshRepo)(s) }
func (s *Store) Recovery() repository.RecoveryRepository          { return (*recoveryRepo)(s) }
func (s *Store) APIKeys() repository.APIKeyRepository             { return (*apiKeyRepo)(s) }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close()                         {}

// =================================================================================
// USERS
// =================================================================================

type userRepo Store

func copyUser(u *repository.User) *repository.User {
	c := *u
	if u.LastSignInAt != nil {
		t := *u.LastSignInAt
		c.LastSignInAt = &t
	}
	return &c
}

func (r *userRepo) Create(ctx context.Context, in repository.CreateUserInput) (*repository.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == in.Email || (in.GoogleID != "" && u.GoogleID == in.GoogleID) {
			return nil, repository.ErrConflict
		}
	}
	role := in.Role
	if role == "" {
		role = types.RoleUser
	}
	tier := in.SubscriptionTier
	if tier == "" {
		tier = types.TierFree
	}
	u := &repository.User{
		UID:              uuid.NewString(),
		Email:            in.Email,
		PasswordHash:     in.PasswordHash,
		GoogleID:         in.GoogleID,
		DisplayName:      in.DisplayName,
		PhotoURL:         in.PhotoURL,
		EmailVerified:    in.EmailVerified,
		SubscriptionTier: tier,
		CreatedAt:        s.now().UTC(),
	}
	s.users[u.UID] = u
	s.roles[u.UID] = role
	return copyUser(u), nil
}

func (r *userRepo) find(match func(*repository.User) bool) (*repository.User, error) {
	for _, u := range r.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByID(ctx context.Context, uid string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(func(u *repository.User) bool { return u.Email == email })
}

func (r *userRepo) GetByGoogleID(ctx context.Context, googleID string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if googleID == "" {
		return nil, repository.ErrNotFound
	}
	return r.find(func(u *repository.User) bool { return u.GoogleID == googleID })
}

func (r *userRepo) LinkGoogle(ctx context.Context, uid, googleID, photoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok || u.GoogleID != "" {
		return repository.ErrConflict
	}
	for _, other := range r.users {
		if other.GoogleID == googleID {
			return repository.ErrConflict
		}
	}
	u.GoogleID = googleID
	u.EmailVerified = true
	if u.PhotoURL == "" {
		u.PhotoURL = photoURL
	}
	now := r.now().UTC()
	u.LastSignInAt = &now
	return nil
}

func (r *userRepo) RecordSignIn(ctx context.Context, uid, photoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return repository.ErrNotFound
	}
	if photoURL != "" {
		u.PhotoURL = photoURL
	}
	now := r.now().UTC()
	u.LastSignInAt = &now
	return nil
}

func (r *userRepo) SetPasswordIfEmpty(ctx context.Context, uid, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return false, repository.ErrNotFound
	}
	if u.PasswordHash != repository.EmptyPasswordHash {
		return false, nil
	}
	u.PasswordHash = hash
	return true, nil
}

func (r *userRepo) SetEmailVerified(ctx context.Context, uid string) error {
	return r.update(uid, func(u *repository.User) { u.EmailVerified = true })
}

func (r *userRepo) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	return r.update(uid, func(u *repository.User) { u.Disabled = disabled })
}

func (r *userRepo) update(uid string, fn func(*repository.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[uid]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (r *userRepo) GetRole(ctx context.Context, uid string) (types.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[uid]
	if !ok {
		return "", repository.ErrNotFound
	}
	return role, nil
}

func (r *userRepo) SetRole(ctx context.Context, uid string, role types.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[uid]; !ok {
		return repository.ErrNotFound
	}
	r.roles[uid] = role
	return nil
}

// =================================================================================
// REFRESH TOKENS
// =================================================================================

type refreshRepo Store

func (r *refreshRepo) Put(ctx context.Context, t repository.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.refresh[t.TokenHash]; dup {
		return repository.ErrConflict
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now().UTC()
	}
	r.refresh[t.TokenHash] = t
	return nil
}

func (r *refreshRepo) Get(ctx context.Context, tokenHash, uid string) (*repository.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.refresh[tokenHash]
	if !ok || t.UserID != uid {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *refreshRepo) DeleteByToken(ctx context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.refresh[tokenHash]
	delete(r.refresh, tokenHash)
	return ok, nil
}

func (r *refreshRepo) DeleteAllForUser(ctx context.Context, uid string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteAllLocked(uid), nil
}

func (r *refreshRepo) deleteAllLocked(uid string) int64 {
	var n int64
	for h, t := range r.refresh {
		if t.UserID == uid {
			delete(r.refresh, h)
			n++
		}
	}
	return n
}

func (r *refreshRepo) Rotate(ctx context.Context, oldHash, uid string, next repository.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.refresh[oldHash]
	if !ok || old.UserID != uid || old.Expired(r.now()) {
		return repository.ErrNotFound
	}
	delete(r.refresh, oldHash)
	if next.CreatedAt.IsZero() {
		next.CreatedAt = r.now().UTC()
	}
	r.refresh[next.TokenHash] = next
	return nil
}

// =================================================================================
// RECOVERY
// =================================================================================

type recoveryRepo Store

func (r *recoveryRepo) CreateEmailVerification(ctx context.Context, t repository.EmailVerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verify[t.TokenHash] = t
	return nil
}

func (r *recoveryRepo) ConsumeEmailVerification(ctx context.Context, tokenHash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.verify[tokenHash]
	if !ok {
		return "", repository.ErrNotFound
	}
	if !r.now().Before(t.ExpiresAt) {
		return "", repository.ErrTokenExpired
	}
	u, ok := r.users[t.UserID]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(r.verify, tokenHash)
	u.EmailVerified = true
	return t.UserID, nil
}

func (r *recoveryRepo) CreatePasswordReset(ctx context.Context, t repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets[t.TokenHash] = t
	return nil
}

func (r *recoveryRepo) ConsumePasswordReset(ctx context.Context, tokenHash, newPasswordHash string) (*repository.PasswordResetResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.resets[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.Used {
		return nil, repository.ErrTokenUsed
	}
	if !r.now().Before(t.ExpiresAt) {
		return nil, repository.ErrTokenExpired
	}
	u, ok := r.users[t.UserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.Used = true
	r.resets[tokenHash] = t
	u.PasswordHash = newPasswordHash
	revoked := (*refreshRepo)(r).deleteAllLocked(t.UserID)
	return &repository.PasswordResetResult{UserID: t.UserID, RevokedSessions: revoked}, nil
}

// ResetToken expone una fila de reset (tests de auditoría).
func (s *Store) ResetToken(tokenHash string) (repository.PasswordResetToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.resets[tokenHash]
	return t, ok
}

// CountRefreshTokens cuenta sesiones vivas del usuario (tests).
func (s *Store) CountRefreshTokens(uid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.refresh {
		if t.UserID == uid {
			n++
		}
	}
	return n
}

// =================================================================================
// API KEYS
// =================================================================================

type apiKeyRepo Store

func copyKey(k *repository.APIKey) *repository.APIKey {
	c := *k
	c.Permissions = append([]string(nil), k.Permissions...)
	return &c
}

func (r *apiKeyRepo) Create(ctx context.Context, k repository.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.apiKeys[k.KeyHash]; dup {
		return repository.ErrConflict
	}
	if k.ID == "" {
		k.ID = uuid.NewString()
	}
	if k.CreatedAt.IsZero() {
		k.CreatedAt = r.now().UTC()
	}
	r.apiKeys[k.KeyHash] = copyKey(&k)
	return nil
}

func (r *apiKeyRepo) GetByHash(ctx context.Context, keyHash string) (*repository.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.apiKeys[keyHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyKey(k), nil
}

func (r *apiKeyRepo) List(ctx context.Context) ([]repository.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.APIKey, 0, len(r.apiKeys))
	for _, k := range r.apiKeys {
		out = append(out, *copyKey(k))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *apiKeyRepo) Revoke(ctx context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, k := range r.apiKeys {
		if k.ID == id {
			k.IsActive = false
			return h, nil
		}
	}
	return "", repository.ErrNotFound
}

func (r *apiKeyRepo) RecordUsage(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUsageFn != nil {
		if err := r.failUsageFn(); err != nil {
			return err
		}
	}
	for _, k := range r.apiKeys {
		if k.ID == id {
			k.UsageCount++
			t := at
			k.LastUsedAt = &t
			return nil
		}
	}
	return repository.ErrNotFound
}
