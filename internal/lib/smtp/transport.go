// Package smtp implements the outgoing-mail transport used by the
// notification-sender worker.
package smtp

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"

	"github.com/decorent/decorent/internal/config"
)

// Transport dials the configured SMTP server with STARTTLS and
// authenticates when credentials are present.
type Transport struct {
	cfg config.SMTP
}

// NewTransport returns a Transport for the given SMTP settings.
func NewTransport(cfg config.SMTP) *Transport {
	return &Transport{cfg: cfg}
}

// GetSMTPUser returns the From address for outgoing mail.
func (t *Transport) GetSMTPUser() string {
	return t.cfg.SMTPUser
}

// Connect opens an authenticated SMTP client. The caller owns the client
// and must Quit it.
func (t *Transport) Connect() (*smtp.Client, error) {
	const op = "smtp.Connect"
	addr := net.JoinHostPort(t.cfg.SMTPHost, fmt.Sprint(t.cfg.SMTPPort))

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: t.cfg.SMTPHost}
		if err := client.StartTLS(tlsCfg); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if t.cfg.SMTPPass != "" {
		auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return client, nil
}
