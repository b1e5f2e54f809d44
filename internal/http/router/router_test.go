package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bjrfx/mediacore/internal/apikey"
	"github.com/bjrfx/mediacore/internal/domain/types"
	adminctrl "github.com/bjrfx/mediacore/internal/http/controllers/admin"
	apikeysctrl "github.com/bjrfx/mediacore/internal/http/controllers/apikeys"
	authctrl "github.com/bjrfx/mediacore/internal/http/controllers/auth"
	"github.com/bjrfx/mediacore/internal/http/controllers/health"
	adminsvc "github.com/bjrfx/mediacore/internal/http/services/admin"
	authsvc "github.com/bjrfx/mediacore/internal/http/services/auth"
	jwtx "github.com/bjrfx/mediacore/internal/jwt"
	"github.com/bjrfx/mediacore/internal/oauth/google"
	"github.com/bjrfx/mediacore/internal/security/password"
	"github.com/bjrfx/mediacore/internal/store/memory"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	goodPassword = "Abcd1234!"
)

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string // kind -> último token
}

func (m *captureMailer) SendVerification(_, _, token string, _ time.Duration) error {
	m.put("verify", token)
	return nil
}

func (m *captureMailer) SendPasswordReset(_, _, token string, _ time.Duration) error {
	m.put("reset", token)
	return nil
}

func (m *captureMailer) put(kind, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[kind] = token
}

func (m *captureMailer) get(kind string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[kind]
}

type server struct {
	h      http.Handler
	store  *memory.Store
	mailer *captureMailer
	keys   *apikey.Service
	auth   authsvc.Services
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// idGoogle resuelve credenciales desde un mapa fijo.
type idGoogle map[string]*google.Identity

func (g idGoogle) VerifyIDToken(_ context.Context, raw string) (*google.Identity, error) {
	id, ok := g[raw]
	if !ok {
		return nil, google.ErrInvalidToken
	}
	cp := *id
	return &cp, nil
}

func (g idGoogle) ExchangeCode(ctx context.Context, code string) (*google.Identity, error) {
	return g.VerifyIDToken(ctx, code)
}

func newServer(t *testing.T) *server { return newServerWithGoogle(t, nil) }

func newServerWithGoogle(t *testing.T, gv authsvc.GoogleVerifier) *server {
	t.Helper()
	st := memory.New()
	iss, err := jwtx.NewIssuer(testSecret, "mediacore", "mediacore-app", 0, 0)
	require.NoError(t, err)
	h, err := password.NewHasher(password.HasherConfig{Cost: bcrypt.MinCost, MaxConcurrent: 4})
	require.NoError(t, err)
	mailer := &captureMailer{tokens: map[string]string{}}
	keys := apikey.NewService(apikey.Deps{Repo: st.APIKeys()}, apikey.Config{})
	t.Cleanup(keys.Wait)

	auth := authsvc.NewServices(authsvc.Deps{
		Users: st.Users(), Refresh: st.RefreshTokens(), Recovery: st.Recovery(),
		Hasher: h, Issuer: iss, Mailer: mailer, Google: gv,
	})
	t.Cleanup(auth.Wait)
	admin := adminsvc.NewServices(adminsvc.Deps{Users: st.Users(), Refresh: st.RefreshTokens(), APIKeys: keys})

	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	handler := New(Options{
		Issuer:    iss,
		Users:     st.Users(),
		APIKeys:   keys,
		Auth:      authctrl.NewControllers(auth),
		Admin:     adminctrl.NewControllers(admin),
		Health:    health.NewController(st, nil, "test"),
		CallerKey: apikeysctrl.NewController(),
		Catalog: func(r chi.Router) {
			r.Get("/api/feed", ok)
			r.Get("/api/misc", ok)
			r.Post("/admin/media", ok)
		},
		AdminBypass: true,
	})
	return &server{h: handler, store: st, mailer: mailer, keys: keys, auth: auth}
}

func (s *server) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

type session struct {
	User struct {
		UID           string `json:"uid"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

func (s *server) register(t *testing.T, email string) session {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": goodPassword}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out session
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (s *server) login(t *testing.T, email string) session {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": goodPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out session
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (s *server) admin(t *testing.T, email string) session {
	t.Helper()
	reg := s.register(t, email)
	require.NoError(t, s.store.Users().SetRole(context.Background(), reg.User.UID, types.RoleAdmin))
	return reg
}

func bearer(tok string) map[string]string { return map[string]string{"Authorization": "Bearer " + tok} }

func TestRegister_Created(t *testing.T) {
	s := newServer(t)
	rec, env := s.do(t, http.MethodPost, "/auth/register", map[string]string{"email": "a@b.com", "password": goodPassword}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var out session
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.False(t, out.User.EmailVerified)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec, env = s.do(t, http.MethodPost, "/auth/register", map[string]string{"email": "a@b.com", "password": goodPassword}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_ALREADY_IN_USE", env.Error)
}

func TestRegister_ValidationDetails(t *testing.T) {
	s := newServer(t)
	rec, env := s.do(t, http.MethodPost, "/auth/register", map[string]string{"email": "a@b.com", "password": "abc"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "WEAK_PASSWORD", env.Error)
	assert.Contains(t, string(env.Data), "errors")

	rec, env = s.do(t, http.MethodPost, "/auth/register", map[string]string{"email": "nope"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	r := httptest.NewRecorder()
	s.h.ServeHTTP(r, req)
	assert.Equal(t, http.StatusBadRequest, r.Code)
	assert.Contains(t, r.Body.String(), "INVALID_JSON")
}

func TestLogin_ErrorsDoNotRevealWhichFieldWasWrong(t *testing.T) {
	s := newServer(t)
	s.register(t, "alice@example.com")

	wrongPass, env := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": "Wrong123!"}, nil)
	require.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, "Invalid email or password", env.Message)

	wrongEmail, _ := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "ghost@example.com", "password": goodPassword}, nil)
	assert.Equal(t, wrongPass.Body.String(), wrongEmail.Body.String())
}

func TestLogin_DisabledAccountIsForbidden(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "alice@example.com")
	require.NoError(t, s.store.Users().SetDisabled(context.Background(), reg.User.UID, true))

	rec, env := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "alice@example.com", "password": goodPassword}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_DISABLED", env.Error)
}

func TestMe(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "alice@example.com")

	rec, env := s.do(t, http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_MISSING", env.Error)

	rec, env = s.do(t, http.MethodGet, "/auth/me", nil, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", env.Error)

	// un refresh token no sirve como access
	rec, _ = s.do(t, http.MethodGet, "/auth/me", nil, bearer(reg.Tokens.RefreshToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/auth/me", nil, bearer(reg.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), reg.User.UID)

	require.NoError(t, s.store.Users().SetDisabled(context.Background(), reg.User.UID, true))
	rec, env = s.do(t, http.MethodGet, "/auth/me", nil, bearer(reg.Tokens.AccessToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_DISABLED", env.Error)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "alice@example.com")

	rec, env := s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": reg.Tokens.RefreshToken}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var next session
	require.NoError(t, json.Unmarshal(env.Data, &next))

	rec, env = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": reg.Tokens.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "REFRESH_TOKEN_INVALID", env.Error)

	for i := 0; i < 2; i++ {
		rec, _ = s.do(t, http.MethodPost, "/auth/logout", map[string]string{"refreshToken": next.Tokens.RefreshToken}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": next.Tokens.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPassword_ByteIdenticalResponses(t *testing.T) {
	s := newServer(t)
	s.register(t, "alice@example.com")

	known, _ := s.do(t, http.MethodPost, "/auth/forgot-password", map[string]string{"email": "alice@example.com"}, nil)
	unknown, _ := s.do(t, http.MethodPost, "/auth/forgot-password", map[string]string{"email": "ghost@example.com"}, nil)
	require.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	s.auth.Wait()
	assert.NotEmpty(t, s.mailer.get("reset"))
}

func TestResetPassword_InvalidatesSessions(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "alice@example.com")
	s.do(t, http.MethodPost, "/auth/forgot-password", map[string]string{"email": "alice@example.com"}, nil)
	s.auth.Wait()

	rec, _ := s.do(t, http.MethodPost, "/auth/reset-password", map[string]string{"token": s.mailer.get("reset"), "password": "N3w$ecret!"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = s.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": reg.Tokens.RefreshToken}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/auth/reset-password", map[string]string{"token": s.mailer.get("reset"), "password": "N3w$ecret!"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_RESET_TOKEN", env.Error)
}

func TestVerifyEmail(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "alice@example.com")

	rec, _ := s.do(t, http.MethodGet, "/auth/verify-email/"+s.mailer.get("verify"), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := s.do(t, http.MethodGet, "/auth/verify-email/"+s.mailer.get("verify"), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_VERIFICATION_TOKEN", env.Error)

	rec, env = s.do(t, http.MethodPost, "/auth/resend-verification", nil, bearer(reg.Tokens.AccessToken))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMAIL_ALREADY_VERIFIED", env.Error)
}

func TestSetPassword_ConflictWhenAlreadySet(t *testing.T) {
	s := newServer(t)
	reg := s.register(t, "alice@example.com")

	rec, env := s.do(t, http.MethodPost, "/auth/set-password", map[string]string{"password": "N3w$ecret!"}, bearer(reg.Tokens.AccessToken))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PASSWORD_ALREADY_SET", env.Error)
}

func TestGoogle_NotConfigured(t *testing.T) {
	s := newServer(t)
	rec, env := s.do(t, http.MethodPost, "/auth/google", map[string]string{"idToken": "x"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error)
}

func TestGoogle_ConflictsShareOneResponse(t *testing.T) {
	s := newServerWithGoogle(t, idGoogle{
		"bob-first":        {SubjectID: "g-1", Email: "bob@example.com", EmailVerified: true},
		"bob-other":        {SubjectID: "g-2", Email: "bob@example.com", EmailVerified: true},
		"alice-unverified": {SubjectID: "g-3", Email: "alice@example.com", EmailVerified: false},
	})
	s.register(t, "alice@example.com")
	s.register(t, "bob@example.com")

	rec, _ := s.do(t, http.MethodPost, "/auth/google", map[string]string{"idToken": "bob-first"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	linked, env := s.do(t, http.MethodPost, "/auth/google", map[string]string{"idToken": "bob-other"}, nil)
	assert.Equal(t, http.StatusConflict, linked.Code)
	assert.Equal(t, "GOOGLE_SIGN_IN_CONFLICT", env.Error)

	unverified, _ := s.do(t, http.MethodPost, "/auth/google", map[string]string{"idToken": "alice-unverified"}, nil)
	assert.Equal(t, linked.Code, unverified.Code)
	assert.Equal(t, linked.Body.String(), unverified.Body.String())
	assert.NotContains(t, unverified.Body.String(), "exists")
}

func createKey(t *testing.T, s *server, adminToken string, body map[string]any) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/admin/api-keys", body, bearer(adminToken))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		APIKey struct {
			Key string `json:"key"`
			ID  string `json:"id"`
		} `json:"apiKey"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.APIKey.Key)
	return out.APIKey.Key
}

func TestAPIKey_ReadMediaOnly(t *testing.T) {
	s := newServer(t)
	adm := s.admin(t, "root@example.com")
	key := createKey(t, s, adm.Tokens.AccessToken, map[string]any{"name": "partner", "preset": "custom", "permissions": []string{"read:media"}})
	hdr := map[string]string{"X-API-Key": key}

	rec, _ := s.do(t, http.MethodGet, "/api/feed", nil, hdr)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := s.do(t, http.MethodPost, "/admin/media", map[string]string{}, hdr)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", env.Error)

	rec, env = s.do(t, http.MethodGet, "/api/misc", nil, hdr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_RESOURCE", env.Error)

	rec, env = s.do(t, http.MethodGet, "/api/feed", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API_KEY_MISSING", env.Error)

	rec, env = s.do(t, http.MethodGet, "/api/feed", nil, map[string]string{"X-API-Key": "mk_doesnotexist"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API_KEY_INVALID", env.Error)
}

func TestAPIKey_RevokedKeyIsRejected(t *testing.T) {
	s := newServer(t)
	adm := s.admin(t, "root@example.com")
	createKey(t, s, adm.Tokens.AccessToken, map[string]any{"name": "k", "preset": "full_access"})

	rec, env := s.do(t, http.MethodGet, "/admin/api-keys", nil, bearer(adm.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		APIKeys []struct {
			ID string `json:"id"`
		} `json:"apiKeys"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.APIKeys, 1)

	rec, _ = s.do(t, http.MethodDelete, "/admin/api-keys/"+out.APIKeys[0].ID, nil, bearer(adm.Tokens.AccessToken))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKey_AdminBypassAndCallerKey(t *testing.T) {
	s := newServer(t)
	adm := s.admin(t, "root@example.com")

	rec, env := s.do(t, http.MethodGet, "/api/keys/me", nil, bearer(adm.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"adminBypass":true`)

	user := s.register(t, "alice@example.com")
	rec, env = s.do(t, http.MethodGet, "/api/keys/me", nil, bearer(user.Tokens.AccessToken))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "API_KEY_MISSING", env.Error)

	key := createKey(t, s, adm.Tokens.AccessToken, map[string]any{"name": "k", "preset": "read_only"})
	rec, env = s.do(t, http.MethodGet, "/api/keys/me", nil, map[string]string{"X-API-Key": key})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "read:apikeys")
	assert.NotContains(t, string(env.Data), key)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	s := newServer(t)
	user := s.register(t, "alice@example.com")

	rec, env := s.do(t, http.MethodGet, "/admin/api-keys", nil, bearer(user.Tokens.AccessToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ADMIN_REQUIRED", env.Error)

	rec, _ = s.do(t, http.MethodGet, "/admin/api-keys", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adm := s.admin(t, "root@example.com")
	rec, env = s.do(t, http.MethodPatch, "/admin/users/"+user.User.UID, map[string]any{"disabled": true}, bearer(adm.Tokens.AccessToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(t, http.MethodGet, "/auth/me", nil, bearer(user.Tokens.AccessToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_DISABLED", env.Error)
}

func TestNotFoundAndHealth(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", env.Error)
	assert.False(t, env.Success)

	rec, env = s.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
