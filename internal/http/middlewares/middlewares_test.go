package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bjrfx/mediacore/internal/apikey"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	"github.com/bjrfx/mediacore/internal/domain/types"
	jwtx "github.com/bjrfx/mediacore/internal/jwt"
	"github.com/bjrfx/mediacore/internal/observability/logger"
	"github.com/bjrfx/mediacore/internal/store/memory"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	store  *memory.Store
	issuer *jwtx.Issuer
	deps   AuthDeps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	iss, err := jwtx.NewIssuer(testSecret, "mediacore", "mediacore-api", 0, 0)
	require.NoError(t, err)
	st := memory.New()
	return &fixture{store: st, issuer: iss, deps: AuthDeps{Issuer: iss, Users: st.Users()}}
}

func (f *fixture) user(t *testing.T, email string, role types.Role) *repository.User {
	t.Helper()
	u, err := f.store.Users().Create(context.Background(), repository.CreateUserInput{
		Email: email, PasswordHash: "x", SubscriptionTier: types.TierFree, Role: role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) access(t *testing.T, uid string) string {
	t.Helper()
	tok, _, err := f.issuer.IssueAccess(jwtx.Payload{UID: uid})
	require.NoError(t, err)
	return tok
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@b.com", types.RoleUser)

	var got *Identity
	h := RequireAuth(f.deps)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetIdentity(r.Context())
	}))

	rec := serve(h, http.MethodGet, "/auth/me", map[string]string{"Authorization": "Bearer " + f.access(t, u.UID)})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, u.UID, got.UID)
	assert.Equal(t, "a@b.com", got.Email)
	assert.Equal(t, types.TierFree, got.SubscriptionTier)
}

func TestRequireAuth_Failures(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@b.com", types.RoleUser)
	h := RequireAuth(f.deps)(okHandler)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "TOKEN_MISSING"},
		{"lowercase scheme", "bearer " + f.access(t, u.UID), http.StatusUnauthorized, "TOKEN_MISSING"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "TOKEN_MISSING"},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "TOKEN_INVALID"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := serve(h, http.MethodGet, "/", map[string]string{"Authorization": c.header})
			assert.Equal(t, c.status, rec.Code)
			assert.Equal(t, c.code, errorCode(t, rec))
		})
	}
}

func TestRequireAuth_RefreshTokenRejected(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@b.com", types.RoleUser)
	refresh, _, err := f.issuer.IssueRefresh(jwtx.Payload{UID: u.UID})
	require.NoError(t, err)

	rec := serve(RequireAuth(f.deps)(okHandler), http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", errorCode(t, rec))
}

func TestRequireAuth_Expired(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@b.com", types.RoleUser)
	past := f.issuer.WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	tok, _, err := past.IssueAccess(jwtx.Payload{UID: u.UID})
	require.NoError(t, err)

	rec := serve(RequireAuth(f.deps)(okHandler), http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, rec))
}

func TestRequireAuth_StoreDecides(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@b.com", types.RoleUser)
	tok := f.access(t, u.UID)
	h := RequireAuth(f.deps)(okHandler)

	require.NoError(t, f.store.Users().SetDisabled(context.Background(), u.UID, true))
	rec := serve(h, http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCOUNT_DISABLED", errorCode(t, rec))

	ghost := f.access(t, "3f2b8c1e-9d4a-4b6e-8f7a-1c2d3e4f5a6b")
	rec = serve(h, http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + ghost})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, rec))
}

func TestRequireAdmin(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin@b.com", types.RoleAdmin)
	mod := f.user(t, "mod@b.com", types.RoleModerator)
	h := Chain(okHandler, RequireAuth(f.deps), RequireAdmin(f.store.Users()))

	rec := serve(h, http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + f.access(t, admin.UID)})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + f.access(t, mod.UID)})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ADMIN_REQUIRED", errorCode(t, rec))
}

func TestRequireCapability(t *testing.T) {
	f := newFixture(t)
	mod := f.user(t, "mod@b.com", types.RoleModerator)
	usr := f.user(t, "usr@b.com", types.RoleUser)
	h := Chain(okHandler, RequireAuth(f.deps), RequireCapability(f.store.Users(), types.CapModerateContent))

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + f.access(t, mod.UID)}).Code)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "/", map[string]string{"Authorization": "Bearer " + f.access(t, usr.UID)}).Code)
}

func TestRequireAPIKey(t *testing.T) {
	f := newFixture(t)
	svc := apikey.NewService(apikey.Deps{Repo: f.store.APIKeys()}, apikey.Config{})
	created, err := svc.Create(context.Background(), apikey.CreateInput{Name: "reader", Permissions: []string{"read:media"}})
	require.NoError(t, err)

	var grant *apikey.Grant
	h := RequireAPIKey(APIKeyOptions{Service: svc})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		grant = GetGrant(r.Context())
	}))

	rec := serve(h, http.MethodGet, "/api/feed", map[string]string{APIKeyHeader: created.Key})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, grant)
	assert.Equal(t, "read:media", grant.Permission)

	rec = serve(h, http.MethodPost, "/admin/media", map[string]string{APIKeyHeader: created.Key})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", errorCode(t, rec))

	rec = serve(h, http.MethodGet, "/api/feed", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodGet, "/api/whatever", map[string]string{APIKeyHeader: created.Key})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNKNOWN_RESOURCE", errorCode(t, rec))

	require.NoError(t, svc.Revoke(context.Background(), created.Record.ID))
	rec = serve(h, http.MethodGet, "/api/feed", map[string]string{APIKeyHeader: created.Key})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.Wait()
}

func TestRequireAPIKey_AdminBypass(t *testing.T) {
	f := newFixture(t)
	admin := f.user(t, "admin@b.com", types.RoleAdmin)
	usr := f.user(t, "usr@b.com", types.RoleUser)
	svc := apikey.NewService(apikey.Deps{Repo: f.store.APIKeys()}, apikey.Config{})

	bypass := RequireAPIKey(APIKeyOptions{Service: svc, AdminBypass: true, Auth: f.deps})(okHandler)
	strict := RequireAPIKey(APIKeyOptions{Service: svc, Auth: f.deps})(okHandler)

	adminHdr := map[string]string{"Authorization": "Bearer " + f.access(t, admin.UID)}
	assert.Equal(t, http.StatusOK, serve(bypass, http.MethodPost, "/admin/media", adminHdr).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(strict, http.MethodPost, "/admin/media", adminHdr).Code)

	userHdr := map[string]string{"Authorization": "Bearer " + f.access(t, usr.UID)}
	assert.Equal(t, http.StatusUnauthorized, serve(bypass, http.MethodPost, "/admin/media", userHdr).Code)
}

func TestCORS(t *testing.T) {
	h := WithCORS([]string{"https://app.example.com/"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDAndRecover(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		panic("boom")
	}), WithRequestID(), WithLogging(), WithRecover())

	rec := serve(h, http.MethodGet, "/", map[string]string{"X-Request-ID": "req-1"})
	assert.Equal(t, "req-1", seen)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", errorCode(t, rec))
}

func TestLogging_RequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), WithRequestID(), WithLogging())
	serve(h, http.MethodGet, "/api/feed", map[string]string{"X-Request-ID": "req-2", "User-Agent": "mediacore-test/1.0"})

	entries := logs.FilterMessage("request completed with client error").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-2", fields["request_id"])
	assert.Equal(t, "/api/feed", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.Equal(t, "mediacore-test/1.0", fields["user_agent"])
}

func TestSecurityHeadersAndNoStore(t *testing.T) {
	h := Chain(okHandler, WithSecurityHeaders(), WithNoStore())
	rec := serve(h, http.MethodGet, "/", map[string]string{"X-Forwarded-Proto": "https"})
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}
