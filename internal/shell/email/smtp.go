package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// =============================================================================
// SMTP Mailer
// =============================================================================

// SMTPConfig holds SMTP delivery configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers messages over SMTP using go-mail.
type SMTPMailer struct {
	client *mail.Client
	from   string
	logger *slog.Logger
}

// NewSMTPMailer creates an SMTP mailer. The connection is dialed per send;
// go-mail handles TLS negotiation and auth.
func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{
		client: client,
		from:   cfg.From,
		logger: logger,
	}, nil
}

// Send delivers one message. Provider errors are returned to the caller
// unchanged after logging.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Text)

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		m.logger.Error("email send failed",
			"to", msg.To,
			"subject", msg.Subject,
			"error", err,
		)
		return err
	}

	m.logger.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
