package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/mailgun/mailgun-go/v4"
)

// mailgunClient is the part of *mailgun.MailgunImpl the sender uses.
type mailgunClient interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

type MailgunSender struct {
	mg      mailgunClient
	from    string
	timeout time.Duration
}

func NewMailgunSender(cfg config.MailgunConfig, from string, timeout time.Duration) *MailgunSender {
	return &MailgunSender{mg: mailgun.NewMailgun(cfg.Domain, cfg.APIKey), from: from, timeout: timeout}
}

func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	m := s.mg.NewMessage(s.from, msg.Subject, msg.Text, msg.To)
	if _, _, err := s.mg.Send(ctx, m); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
