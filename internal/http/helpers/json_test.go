package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
)

type payload struct {
	Email string `json:"email"`
}

func TestReadJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","extra":1}`))
	r.Header.Set("Content-Type", "application/json")
	var p payload
	require.NoError(t, ReadJSON(httptest.NewRecorder(), r, &p))
	assert.Equal(t, "a@b.com", p.Email)
}

func TestReadJSON_EmptyBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	var p payload
	require.NoError(t, ReadJSON(httptest.NewRecorder(), r, &p))
	assert.Empty(t, p.Email)
}

func TestReadJSON_Errors(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	err := ReadJSON(httptest.NewRecorder(), r, &payload{})
	assert.Equal(t, httperrors.ErrInvalidJSON, err)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`email=x`))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	err = ReadJSON(httptest.NewRecorder(), r, &payload{})
	assert.Equal(t, http.StatusBadRequest, httperrors.FromError(err).HTTPStatus)

	big := `{"email":"` + strings.Repeat("a", MaxBodySize) + `"}`
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	err = ReadJSON(httptest.NewRecorder(), r, &payload{})
	assert.Equal(t, httperrors.ErrBodyTooLarge, err)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", ClientIP(r))
}
