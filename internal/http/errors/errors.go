package errors

import (
	"encoding/json"
	"net/http"

	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// Envelope es la forma de todas las respuestas JSON del servicio.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// WriteError escribe el envelope de error. Los 5xx se loguean con la causa usando
// el logger del request; al cliente solo le llega el mensaje genérico.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	msg := appErr.Message
	if appErr.Detail != "" {
		msg = appErr.Detail
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log := logger.L()
		if r != nil {
			log = logger.From(r.Context())
		}
		log.Error("request failed", logger.String("code", appErr.Code), logger.Err(appErr.Err))
		msg = appErr.Message
	}

	writeJSON(w, appErr.HTTPStatus, Envelope{
		Success: false,
		Error:   appErr.Code,
		Message: msg,
		Data:    appErr.Data,
	})
}

// WriteSuccess escribe el envelope de éxito.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
