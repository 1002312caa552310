package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jmercadier/raccordement-platform/internal/admin"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// SMTPConfigSource loads the outbound mail configuration. The admin
// SMTPStore satisfies it, so back office edits apply to the next send
// without a restart.
type SMTPConfigSource interface {
	Get(ctx context.Context) (*admin.SMTPSettings, error)
}

// SMTPSender sends emails through the SMTP server configured in the
// back office.
type SMTPSender struct {
	config SMTPConfigSource
	logger *logging.Logger

	// sendMail is swapped in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTP email sender.
func NewSMTPSender(config SMTPConfigSource, logger *logging.Logger) *SMTPSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SMTPSender{
		config:   config,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// Send delivers the message through the configured SMTP relay.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return fmt.Errorf("notify: load smtp settings: %w", err)
	}
	if cfg.Host == "" {
		return fmt.Errorf("notify: smtp host not configured")
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	raw := buildMIMEMessage(cfg.FromName, cfg.FromEmail, msg)

	if err := s.sendMail(addr, auth, cfg.FromEmail, []string{msg.To}, raw); err != nil {
		s.logger.Error("smtp send failed", "error", err, "to", msg.To, "host", cfg.Host)
		return fmt.Errorf("notify: smtp send failed: %w", err)
	}

	s.logger.Info("email sent via smtp", "to", msg.To, "subject", msg.Subject, "host", cfg.Host)
	return nil
}

// buildMIMEMessage assembles headers and body. HTML wins over plain
// text when both are present.
func buildMIMEMessage(fromName, fromEmail string, msg EmailMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
	if msg.ToName != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", msg.ToName, msg.To)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTML != "" {
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTML)
	} else {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.Body)
	}
	return []byte(b.String())
}

var _ EmailSender = (*SMTPSender)(nil)
