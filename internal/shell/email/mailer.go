// Package email provides outbound email delivery for the portal.
package email

import (
	"context"
	"errors"
	"log/slog"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrRecipientRequired is returned when a message has no recipient.
	ErrRecipientRequired = errors.New("message recipient is required")

	// ErrSubjectRequired is returned when a message has no subject.
	ErrSubjectRequired = errors.New("message subject is required")
)

// =============================================================================
// Message
// =============================================================================

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Validate checks the message has the fields delivery needs.
func (m Message) Validate() error {
	if m.To == "" {
		return ErrRecipientRequired
	}
	if m.Subject == "" {
		return ErrSubjectRequired
	}
	return nil
}

// =============================================================================
// Mailer Interface
// =============================================================================

// Mailer delivers messages. Implementations must return provider failures
// to the caller unchanged; nothing in this package swallows a send error.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// =============================================================================
// Noop Mailer
// =============================================================================

// NoopMailer logs instead of sending. Used in development and tests when no
// SMTP host is configured.
type NoopMailer struct {
	logger *slog.Logger
}

// NewNoopMailer creates a mailer that only logs.
func NewNoopMailer(logger *slog.Logger) *NoopMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopMailer{logger: logger}
}

// Send logs the message and succeeds.
func (m *NoopMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m.logger.Info("email suppressed (no SMTP configured)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
