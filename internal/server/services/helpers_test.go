package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/server/mailer"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

func factoryFor(s mailer.Sender) MailerFactory {
	return func() (mailer.Sender, error) { return s, nil }
}

func failingFactory(err error) MailerFactory {
	return func() (mailer.Sender, error) { return nil, err }
}

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
