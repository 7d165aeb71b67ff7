// Package notify tells the sales team about new leads. Delivery is best
// effort: a failed notification never affects the lead itself.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/ttacon/libphonenumber"

	"github.com/jHLuno/telfera/app/models"
	"github.com/jHLuno/telfera/internal/pkg/env"
	"github.com/jHLuno/telfera/internal/pkg/mail"
	"github.com/jHLuno/telfera/internal/pkg/metrics"
)

// DefaultRegion is used to parse numbers written without a country code.
const DefaultRegion = "KZ"

// Notifier delivers a "new lead" message to one channel.
type Notifier interface {
	LeadCreated(ctx context.Context, lead *models.Lead) error
}

// Noop drops every notification.
type Noop struct{}

func (Noop) LeadCreated(context.Context, *models.Lead) error { return nil }

// Channel gives a notifier a name for logs and metrics.
type Channel struct {
	Name     string
	Notifier Notifier
}

// Multi fans out to every channel and joins their errors.
type Multi struct {
	Channels []Channel
	// OnError is called once per failed channel
	OnError func(channel string, err error)
}

func (m *Multi) LeadCreated(ctx context.Context, lead *models.Lead) error {
	var errs []error
	for _, ch := range m.Channels {
		if err := ch.Notifier.LeadCreated(ctx, lead); err != nil {
			if m.OnError != nil {
				m.OnError(ch.Name, err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every channel that holds a connection.
func (m *Multi) Close() error {
	var errs []error
	for _, ch := range m.Channels {
		if c, ok := ch.Notifier.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", ch.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// FormatPhone renders a stored phone in international format, e.g.
// "+7 701 532 0626". Unparseable numbers are returned unchanged.
func FormatPhone(phone string) string {
	num, err := libphonenumber.Parse(phone, DefaultRegion)
	if err != nil {
		return phone
	}
	return libphonenumber.Format(num, libphonenumber.INTERNATIONAL)
}

// LeadMessage is the plain text body shared by the chat channels.
func LeadMessage(lead *models.Lead) string {
	var b strings.Builder
	b.WriteString("🔔 Новая заявка с сайта\n\n")
	fmt.Fprintf(&b, "Имя: %s\n", lead.ClientName)
	fmt.Fprintf(&b, "Телефон: %s\n", FormatPhone(lead.ClientPhone))
	if lead.ProductInterest != "" {
		fmt.Fprintf(&b, "Товар: %s\n", lead.ProductInterest)
	}
	if lead.ClientEmail != "" {
		fmt.Fprintf(&b, "Email: %s\n", lead.ClientEmail)
	}
	if lead.Company != "" {
		fmt.Fprintf(&b, "Компания: %s\n", lead.Company)
	}
	if lead.Notes != "" {
		fmt.Fprintf(&b, "Комментарий: %s\n", lead.Notes)
	}
	fmt.Fprintf(&b, "Источник: %s", lead.Source)
	return b.String()
}

// leadHTML escapes the message for email bodies.
func leadHTML(lead *models.Lead) string {
	return "<pre>" + html.EscapeString(LeadMessage(lead)) + "</pre>"
}

// FromEnv assembles every channel that has configuration. With none
// configured it returns Noop.
func FromEnv() Notifier {
	var channels []Channel

	if token, chat := env.GetEnv("TELEGRAM_BOT_TOKEN", ""), env.GetEnv("TELEGRAM_CHAT_ID", ""); token != "" && chat != "" {
		channels = append(channels, Channel{Name: "telegram", Notifier: NewTelegram(token, chat)})
	}

	if to := env.GetEnv("LEAD_NOTIFY_EMAIL", ""); to != "" {
		if mailer, ok := mail.FromEnv(); ok {
			channels = append(channels, Channel{Name: "email", Notifier: NewEmail(mailer, strings.Split(to, ","))})
		} else {
			log.Warn("[Notify] LEAD_NOTIFY_EMAIL is set but SMTP_HOST is not, email notifications disabled")
		}
	}

	if url := env.GetEnv("AMQP_URL", ""); url != "" {
		pub, err := DialAMQP(url)
		if err != nil {
			log.Errorf("[Notify] AMQP disabled: %v", err)
		} else {
			channels = append(channels, Channel{Name: "amqp", Notifier: pub})
		}
	}

	if len(channels) == 0 {
		log.Info("[Notify] no notification channels configured")
		return Noop{}
	}

	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name
	}
	log.Infof("[Notify] lead notifications via %s", strings.Join(names, ", "))
	return &Multi{
		Channels: channels,
		OnError: func(channel string, err error) {
			metrics.NotificationFailed(channel)
		},
	}
}
