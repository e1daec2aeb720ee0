package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"

	"villa-portal-service/internal/domain/entity"
	"villa-portal-service/internal/domain/repository"
	"villa-portal-service/pkg/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailService sends transactional mail through the Gmail API
type GmailService struct {
	gmailService *gmail.Service
	from         mail.Address
	logger       logger.Logger
}

// NewGmailService creates a new Gmail mail transport
func NewGmailService(ctx context.Context, tokenSource oauth2.TokenSource, fromName, fromEmail string, logger logger.Logger) (repository.MailRepository, error) {
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &GmailService{
		gmailService: service,
		from:         mail.Address{Name: fromName, Address: fromEmail},
		logger:       logger,
	}, nil
}

// Send delivers the email and returns the Gmail message ID
func (s *GmailService) Send(ctx context.Context, email *entity.OutboundEmail) (string, error) {
	raw, err := buildMIME(s.from, email)
	if err != nil {
		return "", err
	}

	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := s.gmailService.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		s.logger.Error("Failed to send message", "to", email.To, "error", err)
		return "", fmt.Errorf("gmail send failed: %w", err)
	}

	s.logger.Debug("Message sent", "to", email.To, "messageID", sent.Id)
	return sent.Id, nil
}

// buildMIME renders a multipart/alternative message with text and html parts
func buildMIME(from mail.Address, email *entity.OutboundEmail) ([]byte, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	to := mail.Address{Name: email.ToName, Address: email.To}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=UTF-8", email.Text},
		{"text/html; charset=UTF-8", email.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from.String())
	fmt.Fprintf(&out, "To: %s\r\n", to.String())
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&out, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())

	return out.Bytes(), nil
}
