// File: internal/infra/adapters/mail/smtp_sender.go
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"membership-billing/internal/config"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/adapter"
)

var _ adapter.ConfirmationSender = (*SMTPSender)(nil)

// SMTPSender delivers membership confirmations over plain SMTP with
// STARTTLS-capable auth. Delivery is best-effort by contract; callers decide
// what a failure means.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	log      *zerolog.Logger
}

func NewSMTPSender(cfg config.MailConfig, logger *zerolog.Logger) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("mail.host and mail.from are required")
	}
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		log:      logger,
	}, nil
}

func (s *SMTPSender) SendConfirmation(ctx context.Context, sub *model.Subscription) error {
	msg := buildConfirmation(s.from, sub)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}
	if err := smtp.SendMail(addr, auth, s.from, []string{sub.Email}, msg); err != nil {
		return fmt.Errorf("send confirmation to %s: %w", sub.Email, err)
	}
	s.log.Info().Str("subscription_id", sub.ID).Msg("confirmation email sent")
	return nil
}

func buildConfirmation(from string, sub *model.Subscription) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", sub.Email)
	fmt.Fprintf(&b, "Subject: Your %s membership is active\r\n", sub.Tier)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", sub.FullName)
	fmt.Fprintf(&b, "Your %s membership (%s billing) is now active.\r\n", sub.Tier, sub.BillingCycle)
	fmt.Fprintf(&b, "Payment reference: %s\r\n\r\n", sub.PaymentReference)
	b.WriteString("Welcome aboard.\r\n")
	return []byte(b.String())
}
