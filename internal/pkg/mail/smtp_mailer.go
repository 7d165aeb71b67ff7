package mail

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/gomail.v2"

	"github.com/jHLuno/telfera/internal/pkg/env"
)

// Dialer opens an SMTP session. *gomail.Dialer satisfies it.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

// SMTPMailer sends HTML emails via SMTP
type SMTPMailer struct {
	dialer Dialer
	sender string
}

func NewSMTPMailer(dialer Dialer, sender string) *SMTPMailer {
	return &SMTPMailer{dialer: dialer, sender: sender}
}

// FromEnv builds a mailer from the SMTP_* keys. ok is false when SMTP_HOST is unset.
func FromEnv() (*SMTPMailer, bool) {
	host := env.GetEnv("SMTP_HOST", "")
	if host == "" {
		return nil, false
	}
	port := env.GetInt("SMTP_PORT", 587)
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = "no-reply@telfera.kz"
		log.Warnf("[Mail] SMTP_SENDER not set, using default sender: %s", sender)
	}

	return NewSMTPMailer(gomail.NewDialer(host, port, username, password), sender), true
}

// Send delivers one HTML message to the given recipients
func (m *SMTPMailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	sc, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Infof("[Mail] email %q sent to %d recipient(s)", subject, len(to))
	return nil
}
