// Package helpers contiene utilidades HTTP compartidas por controllers y middlewares.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	httperrors "github.com/bjrfx/mediacore/internal/http/errors"
)

// MaxBodySize es el límite por defecto de los bodies JSON.
const MaxBodySize = 64 * 1024

// ReadJSON decodifica el body (tolerante a campos desconocidos) con límite de tamaño.
// Un body vacío deja v en su zero value. Devuelve un *AppError listo para escribir.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "application/json") {
		return httperrors.ErrBadRequest.WithDetail("Content-Type must be application/json")
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return httperrors.ErrBodyTooLarge
		}
		return httperrors.ErrInvalidJSON
	}
	return nil
}

// ClientIP devuelve la IP del cliente. RemoteAddr ya viene resuelto por chi RealIP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
