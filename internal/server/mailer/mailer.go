// Package mailer sends transactional email (password reset codes, issue
// resolution notices) through one configured provider.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/logging"
	"github.com/dmitrijs2005/issuedesk/internal/server/config"
)

const (
	ProviderSMTP     = "smtp"
	ProviderMailgun  = "mailgun"
	ProviderSendGrid = "sendgrid"
	ProviderLog      = "log"
)

// ErrInvalidConfig is returned by New when the selected provider is unknown
// or its settings are incomplete.
var ErrInvalidConfig = errors.New("invalid mail configuration")

// Message is a plain-text email to a single recipient.
type Message struct {
	To      string
	Subject string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New validates cfg and builds the sender for cfg.Provider.
func New(cfg config.MailConfig, log logging.Logger) (Sender, error) {
	switch cfg.Provider {
	case ProviderLog:
		return NewLogSender(log), nil
	case ProviderSMTP:
		c := cfg.SMTP
		if c.Host == "" || c.Port <= 0 || c.Username == "" || c.Password == "" || cfg.From == "" {
			return nil, fmt.Errorf("%w: smtp needs host, port, username, password and from", ErrInvalidConfig)
		}
		return NewSMTPSender(c, cfg.From, cfg.Timeout), nil
	case ProviderMailgun:
		c := cfg.Mailgun
		if c.Domain == "" || c.APIKey == "" || cfg.From == "" {
			return nil, fmt.Errorf("%w: mailgun needs domain, api key and from", ErrInvalidConfig)
		}
		return NewMailgunSender(c, cfg.From, cfg.Timeout), nil
	case ProviderSendGrid:
		if cfg.SendGrid.APIKey == "" || cfg.From == "" {
			return nil, fmt.Errorf("%w: sendgrid needs api key and from", ErrInvalidConfig)
		}
		return NewSendGridSender(cfg.SendGrid, cfg.From, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	if log == nil {
		log = logging.Nop{}
	}
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info(ctx, "mail not delivered (log provider)", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
