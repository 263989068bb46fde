package spies

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/bike-loan-engine-go/shell/mail"
)

// MailSenderSpy is a mail.Sender that records messages and can be told to fail.
type MailSenderSpy struct {
	sent      []mail.Message
	attempts  int
	failTimes int
	failWith  error
	mu        sync.Mutex
}

// NewMailSenderSpy creates a MailSenderSpy that accepts every message.
func NewMailSenderSpy() *MailSenderSpy {
	return &MailSenderSpy{}
}

// FailNext makes the next n sends fail with err.
func (s *MailSenderSpy) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTimes = n
	s.failWith = err
}

// Send implements mail.Sender.
func (s *MailSenderSpy) Send(ctx context.Context, msg mail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++

	if s.failTimes > 0 {
		s.failTimes--
		return s.failWith
	}

	s.sent = append(s.sent, msg)

	return nil
}

// SentMessages returns a copy of the delivered messages.
func (s *MailSenderSpy) SentMessages() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]mail.Message(nil), s.sent...)
}

// SentCount returns how many messages were delivered.
func (s *MailSenderSpy) SentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sent)
}

// Attempts returns how many sends were tried, failed ones included.
func (s *MailSenderSpy) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.attempts
}

var _ mail.Sender = (*MailSenderSpy)(nil)
