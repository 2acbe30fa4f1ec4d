// Package mail delivers outbound account emails.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/devtail-backend/pkg/config"
	"github.com/angelmondragon/devtail-backend/pkg/logger"
	gomail "github.com/wneessen/go-mail"
)

// Message is a single outbound email. HTMLBody is optional; when set, TextBody
// becomes the plain text alternative.
type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

func (m Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("mail recipient is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("mail subject is required")
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return errors.New("mail body is required")
	}
	return nil
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPSender delivers through an SMTP relay.
type SMTPSender struct {
	client dialer
	from   string
	logg   *logger.Logger
}

// New returns the SMTP sender when a relay is configured and a log-only sender
// otherwise.
func New(cfg config.MailConfig, logg *logger.Logger) (Sender, error) {
	if !cfg.Enabled() {
		return &LogSender{logg: logg}, nil
	}
	return NewSMTPSender(cfg, logg)
}

// NewSMTPSender builds a go-mail client for the configured relay.
func NewSMTPSender(cfg config.MailConfig, logg *logger.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("mail from address is required")
	}
	policy, err := tlsPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(policy),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From, logg: logg}, nil
}

func tlsPolicy(value string) (gomail.TLSPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "opportunistic":
		return gomail.TLSOpportunistic, nil
	case "mandatory":
		return gomail.TLSMandatory, nil
	case "none":
		return gomail.NoTLS, nil
	default:
		return gomail.TLSOpportunistic, fmt.Errorf("unknown mail tls policy %q", value)
	}
}

// Send builds the MIME message and hands it to the relay.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "mail_subject", msg.Subject), "mail sent")
	}
	return nil
}

func (s *SMTPSender) build(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("mail from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mail to: %w", err)
	}
	m.Subject(msg.Subject)
	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}

// LogSender writes messages to the log instead of delivering them. It backs
// local development where no relay is configured.
type LogSender struct {
	logg *logger.Logger
}

// Send logs the message metadata and body.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"mail_to":      strings.Join(msg.To, ","),
			"mail_subject": msg.Subject,
			"mail_body":    msg.TextBody,
		})
		s.logg.Info(ctx, "mail delivery skipped: no smtp relay configured")
	}
	return nil
}
