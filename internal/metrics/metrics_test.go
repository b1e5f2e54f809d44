package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"/auth/login", "/auth/login"},
		{"/auth/verify-email/a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6", "/auth/verify-email/:param"},
		{"/admin/users/3f2b8c1e-9d4a-4b6e-8f7a-1c2d3e4f5a6b", "/admin/users/:param"},
		{"/api/media/42?x=1", "/api/media/:param"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizePath(c.in), c.in)
	}
}

func TestMiddleware_CountsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := Register(Config{Registry: reg})
	require.NoError(t, err)

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/brew", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/brew", "418"))
	assert.Equal(t, before+1, after)
}

func TestAuthCounters(t *testing.T) {
	before := testutil.ToFloat64(loginTotal.WithLabelValues(ResultInvalid))
	LoginResult(ResultInvalid)
	assert.Equal(t, before+1, testutil.ToFloat64(loginTotal.WithLabelValues(ResultInvalid)))

	before = testutil.ToFloat64(apiKeyChecksTotal.WithLabelValues(ResultDenied))
	APIKeyCheck(ResultDenied)
	assert.Equal(t, before+1, testutil.ToFloat64(apiKeyChecksTotal.WithLabelValues(ResultDenied)))
}
