// Package sender turns queued notification events into outgoing emails.
// It runs in the notification-sender worker, consuming the email queue.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

type Transport interface {
	Connect() (*smtp.Client, error)
	GetSMTPUser() string
}

// Service composes and sends one email per consumed event.
type Service struct {
	transport Transport
	log       *slog.Logger
}

func New(transport Transport, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

var subjects = map[string]string{
	models.NotificationRequestCreated:   "New budget request on DecoRent",
	models.NotificationRequestAnswered:  "Your budget request was answered",
	models.NotificationPaymentConfirmed: "Payment confirmed",
	models.NotificationRateService:      "Tell us how it went",
}

// ProcessEvent unmarshals a queued event and sends the matching email. An
// unknown kind still goes out under a generic subject; a malformed body is
// an error so the delivery is not acked.
func (s *Service) ProcessEvent(body []byte) error {
	var event models.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal event body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject, ok := subjects[event.Kind]
	if !ok {
		subject = "DecoRent notification"
	}
	bodyText := fmt.Sprintf("Hello, %s!\n\n%s\n\nThe DecoRent team",
		event.FullName, event.Message)

	return s.sendEmail([]string{event.Email}, subject, bodyText)
}

// ComposeSubject is exposed for the worker's logging.
func ComposeSubject(kind string) string {
	if subject, ok := subjects[kind]; ok {
		return subject
	}
	return "DecoRent notification"
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err := wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err := client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", "to", to, "subject", subject)
	return nil
}
