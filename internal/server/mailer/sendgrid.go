package mailer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client  sendgridClient
	from    string
	timeout time.Duration
}

func NewSendGridSender(cfg config.SendGridConfig, from string, timeout time.Duration) *SendGridSender {
	return &SendGridSender{client: sendgrid.NewSendClient(cfg.APIKey), from: from, timeout: timeout}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	m := mail.NewSingleEmail(mail.NewEmail("", s.from), msg.Subject, mail.NewEmail("", msg.To), msg.Text, "")
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid send: unexpected status %d", resp.StatusCode)
	}
	return nil
}
