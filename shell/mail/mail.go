// Package mail delivers outgoing emails such as late notices.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/resend/resend-go/v2"

	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

var (
	ErrEmptyAPIKey        = errors.New("mail provider api key must not be empty")
	ErrEmptySender        = errors.New("sender address must not be empty")
	ErrInvalidMessage     = errors.New("message needs a recipient and a subject")
	ErrProviderRejected   = errors.New("mail provider rejected the message")
	ErrInvalidProviderURL = errors.New("invalid mail provider url")
)

const (
	logMsgMailLogged = "mail not sent, logged instead"
	logMsgMailSent   = "mail sent"
	logAttrTo        = "to"
	logAttrSubject   = "subject"
	logAttrMessageID = "message_id"
)

// Message is one outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Validate checks the fields every provider needs.
func (m Message) Validate() error {
	if m.To == "" || m.Subject == "" {
		return ErrInvalidMessage
	}

	return nil
}

// Sender delivers messages. Implementations must honor ctx cancellation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSender delivers messages through the Resend HTTP API.
type ResendSender struct {
	client *resend.Client
	from   string
	logger loanstore.Logger
}

// ResendOption configures a ResendSender.
type ResendOption func(*ResendSender) error

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(rawURL string) ResendOption {
	return func(s *ResendSender) error {
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidProviderURL, rawURL)
		}
		s.client.BaseURL = u

		return nil
	}
}

// WithResendLogger sets a logger for delivered messages.
func WithResendLogger(logger loanstore.Logger) ResendOption {
	return func(s *ResendSender) error {
		s.logger = logger
		return nil
	}
}

// NewResendSender creates a ResendSender that sends as from.
func NewResendSender(apiKey, from string, opts ...ResendOption) (*ResendSender, error) {
	if apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	if from == "" {
		return nil, ErrEmptySender
	}

	s := &ResendSender{client: resend.NewClient(apiKey), from: from}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return errors.Join(ErrProviderRejected, err)
	}

	if s.logger != nil {
		s.logger.Info(logMsgMailSent, logAttrTo, msg.To, logAttrMessageID, sent.Id)
	}

	return nil
}

// LogSender logs messages instead of sending them. It is meant for local runs without a provider.
type LogSender struct {
	logger loanstore.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger loanstore.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := msg.Validate(); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info(logMsgMailLogged, logAttrTo, msg.To, logAttrSubject, msg.Subject)
	}

	return nil
}

var (
	_ Sender = (*ResendSender)(nil)
	_ Sender = (*LogSender)(nil)
)
