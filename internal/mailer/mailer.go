package mailer

import (
	"fmt"
	"time"

	mail "gopkg.in/mail.v2"
)

const (
	FromName   = "Souq"
	maxRetries = 3
)

// Client sends operational mail. The engine's integrity alarms and review
// moderation notices go through here; delivery runs in the background and
// failures are logged, never surfaced to the request.
type Client interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTP(host string, port int, username, password, fromEmail string) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(host, port, username, password),
		from:   fromEmail,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.from, FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = m.dialer.DialAndSend(msg)
		if lastErr == nil {
			return nil
		}
		time.Sleep(time.Second * time.Duration(attempt))
	}
	return fmt.Errorf("send mail after %d attempts: %w", maxRetries, lastErr)
}
