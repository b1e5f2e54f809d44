// Package email renderiza y envía los correos de verificación y reset.
package email

import (
	"sync"

	"github.com/bjrfx/mediacore/internal/observability/logger"
)

// Sender envía un email con contenido HTML y texto plano (multipart/alternative).
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// LogSender no envía nada: loguea destinatario y asunto. Para dev sin SMTP.
type LogSender struct{}

func (LogSender) Send(to, subject, htmlBody, textBody string) error {
	logger.L().Info("email not sent (log sender)",
		logger.Component("email"),
		logger.String("to", to),
		logger.String("subject", subject),
	)
	return nil
}

// Outbox guarda los mensajes en memoria. Lo usan los tests de flujos.
type Outbox struct {
	mu   sync.Mutex
	Sent []Message
	Err  error
}

// Message es un email capturado por Outbox.
type Message struct {
	To, Subject, HTML, Text string
}

func (o *Outbox) Send(to, subject, htmlBody, textBody string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.Sent = append(o.Sent, Message{To: to, Subject: subject, HTML: htmlBody, Text: textBody})
	return nil
}

// Last devuelve el último mensaje enviado.
func (o *Outbox) Last() (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.Sent) == 0 {
		return Message{}, false
	}
	return o.Sent[len(o.Sent)-1], true
}

// Len devuelve cuántos mensajes se enviaron.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.Sent)
}
