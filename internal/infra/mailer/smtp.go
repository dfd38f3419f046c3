package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Config contains SMTP relay settings. Username doubles as the sender
// address when From is unset (app-password style relays such as Gmail).
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers messages through an SMTP relay using STARTTLS.
type SMTPMailer struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs the SMTP transport.
func New(cfg Config, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger.With("component", "mailer.smtp")}
}

// Configured reports whether relay credentials are present.
func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.Username != "" && m.cfg.Password != ""
}

// Send delivers a single message. Each call dials its own connection; the
// dispatch pipeline issues per-recipient sends concurrently and there is no
// shared session to serialize on.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	mm := mail.NewMsg()
	if err := mm.From(m.fromAddress()); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	mm.Subject(msg.Subject)
	mm.SetMessageIDWithValue(uuid.NewString() + "@" + m.cfg.Host)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		m.logger.Warn("smtp send failed", "recipient", msg.To, "error", err)
		return err
	}
	return nil
}

func (m *SMTPMailer) fromAddress() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return m.cfg.Username
}
