package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltpl "html/template"
	"net/url"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

// vars son las variables comunes a los templates.
type vars struct {
	App  string
	Name string
	Link string
	TTL  string
}

type pair struct {
	html *htmltpl.Template
	text *texttpl.Template
}

// Mailer arma los links y renderiza los templates de verificación y reset.
type Mailer struct {
	sender  Sender
	app     string
	baseURL string
	verify  pair
	reset   pair
}

// NewMailer parsea los templates embebidos. baseURL es la URL pública del frontend/API
// sobre la que se construyen los links (ej: https://api.example.com).
func NewMailer(sender Sender, appName, baseURL string) (*Mailer, error) {
	load := func(name string) (pair, error) {
		h, err := htmltpl.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return pair{}, err
		}
		t, err := texttpl.ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return pair{}, err
		}
		return pair{html: h, text: t}, nil
	}
	v, err := load("verify_email")
	if err != nil {
		return nil, fmt.Errorf("email: verify template: %w", err)
	}
	r, err := load("reset_password")
	if err != nil {
		return nil, fmt.Errorf("email: reset template: %w", err)
	}
	return &Mailer{
		sender:  sender,
		app:     appName,
		baseURL: strings.TrimRight(baseURL, "/"),
		verify:  v,
		reset:   r,
	}, nil
}

// SendVerification envía el link GET /auth/verify-email/{token}.
func (m *Mailer) SendVerification(to, name, token string, ttl time.Duration) error {
	link := m.baseURL + "/auth/verify-email/" + url.PathEscape(token)
	return m.send(m.verify, to, "Verify your email", vars{App: m.app, Name: displayName(name, to), Link: link, TTL: humanTTL(ttl)})
}

// SendPasswordReset envía el link al formulario de reset con el token como query.
func (m *Mailer) SendPasswordReset(to, name, token string, ttl time.Duration) error {
	link := m.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	return m.send(m.reset, to, "Reset your password", vars{App: m.app, Name: displayName(name, to), Link: link, TTL: humanTTL(ttl)})
}

func (m *Mailer) send(p pair, to, subject string, v vars) error {
	var hb, tb bytes.Buffer
	if err := p.html.Execute(&hb, v); err != nil {
		return fmt.Errorf("email: render html: %w", err)
	}
	if err := p.text.Execute(&tb, v); err != nil {
		return fmt.Errorf("email: render text: %w", err)
	}
	return m.sender.Send(to, subject, hb.String(), tb.String())
}

func displayName(name, email string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return "there"
}

func humanTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
