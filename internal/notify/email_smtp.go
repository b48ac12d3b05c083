package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rishimehra/portfolio-api/pkg/logging"
)

// SMTPConfig is the relay the failure notifier talks to.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From defaults to Username.
	From string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends plain-text mail through an authenticated relay.
// smtp.SendMail upgrades to STARTTLS whenever the server offers it.
type SMTPSender struct {
	addr     string
	auth     smtp.Auth
	from     string
	sendMail sendMailFunc
	now      func() time.Time
	logger   *logging.Logger
}

// NewSMTPSender returns nil when no host is configured.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) *SMTPSender {
	if cfg.Host == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPSender{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:     auth,
		from:     cfg.From,
		sendMail: smtp.SendMail,
		now:      time.Now,
		logger:   logger,
	}
}

// Send delivers msg. net/smtp has no context support, so ctx is only
// checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.sendMail == nil {
		return fmt.Errorf("notify: smtp relay not configured")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify: smtp send cancelled: %w", err)
	}

	to := headerValue(msg.To)
	if to == "" {
		return fmt.Errorf("notify: smtp send: missing recipient")
	}

	if err := s.sendMail(s.addr, s.auth, s.from, []string{to}, s.buildMessage(to, msg)); err != nil {
		return fmt.Errorf("notify: smtp send via %s failed: %w", s.addr, err)
	}

	s.logger.Info("email sent via smtp", "to", to, "subject", msg.Subject, "relay", s.addr)
	return nil
}

func (s *SMTPSender) buildMessage(to string, msg EmailMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(s.from))
	if msg.ToName != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", headerValue(msg.ToName), to)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", to)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

// headerValue strips line breaks so user-supplied text cannot add headers.
func headerValue(v string) string {
	v = strings.ReplaceAll(v, "\r", "")
	v = strings.ReplaceAll(v, "\n", " ")
	return strings.TrimSpace(v)
}

var _ EmailSender = (*SMTPSender)(nil)
