package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/server/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers through an authenticated SMTP relay (Gmail by default).
type SMTPSender struct {
	cfg      config.SMTPConfig
	from     string
	timeout  time.Duration
	sendMail sendMailFunc
}

func NewSMTPSender(cfg config.SMTPConfig, from string, timeout time.Duration) *SMTPSender {
	return &SMTPSender{cfg: cfg, from: from, timeout: timeout, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	body := buildMIME(s.from, msg)

	// net/smtp has no context support; the send keeps running in the
	// background if ctx expires first.
	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(addr, auth, s.from, []string{msg.To}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	return []byte(b.String())
}
