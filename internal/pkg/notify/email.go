package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/jHLuno/telfera/app/models"
)

// Sender is the part of mail.SMTPMailer used here
type Sender interface {
	Send(to []string, subject, body string) error
}

// Email sends new leads to the sales mailbox.
type Email struct {
	sender Sender
	to     []string
}

func NewEmail(sender Sender, to []string) *Email {
	clean := make([]string, 0, len(to))
	for _, addr := range to {
		if a := strings.TrimSpace(addr); a != "" {
			clean = append(clean, a)
		}
	}
	return &Email{sender: sender, to: clean}
}

func (e *Email) LeadCreated(ctx context.Context, lead *models.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject := fmt.Sprintf("Новая заявка: %s, %s", lead.ClientName, FormatPhone(lead.ClientPhone))
	return e.sender.Send(e.to, subject, leadHTML(lead))
}
