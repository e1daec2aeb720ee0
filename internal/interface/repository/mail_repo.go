package repository

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/pkg/logger"

	"github.com/mailersend/mailersend-go"
)

// MailerSendRepository implements the MailRepository interface on MailerSend
type MailerSendRepository struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

// NewMailerSendRepository creates a new MailerSend mail transport
func NewMailerSendRepository(apiKey, fromName, fromEmail string) repository.MailRepository {
	return &MailerSendRepository{
		client: mailersend.NewMailersend(apiKey),
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
}

// Send delivers the email and returns the provider message ID
func (m *MailerSendRepository) Send(ctx context.Context, email *entity.OutboundEmail) (string, error) {
	if err := email.Validate(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: email.ToName, Email: email.To}})
	msg.SetSubject(email.Subject)
	if strings.TrimSpace(email.Text) != "" {
		msg.SetText(email.Text)
	}
	if strings.TrimSpace(email.HTML) != "" {
		msg.SetHTML(email.HTML)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("mailersend send failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}

// DevMailRepository logs emails instead of sending them
type DevMailRepository struct {
	logger logger.Logger
}

// NewDevMailRepository creates a mail transport for local development
func NewDevMailRepository(logger logger.Logger) repository.MailRepository {
	return &DevMailRepository{logger: logger}
}

// Send logs the email and returns a synthetic message ID
func (d *DevMailRepository) Send(ctx context.Context, email *entity.OutboundEmail) (string, error) {
	if err := email.Validate(); err != nil {
		return "", err
	}
	d.logger.Info("[DEV MAIL]",
		"to", email.To,
		"name", email.ToName,
		"subject", email.Subject,
		"text", email.Text,
	)
	return fmt.Sprintf("dev-%d", time.Now().UnixNano()), nil
}
