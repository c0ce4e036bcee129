package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/hospital-ops/pkg/circuitbreaker"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
)

// Mailer delivers one plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	dialer  *gomail.Dialer
	from    string
	breaker *circuitbreaker.CircuitBreaker
}

// NewSMTPMailer sends through an SMTP relay. Repeated relay failures open
// the breaker so queued mail fails fast instead of piling up on dials.
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: 3,
			Timeout:     30 * time.Second,
		}),
	}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.breaker.Execute(func() error {
		if err := m.dialer.DialAndSend(msg); err != nil {
			return fmt.Errorf("failed to send mail to %s: %w", to, err)
		}
		return nil
	})
}

type logMailer struct {
	log *logger.Logger
}

// NewLogMailer writes messages to the log instead of sending them. Used in
// development and tests.
func NewLogMailer(log *logger.Logger) Mailer {
	return &logMailer{log: log}
}

func (m *logMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info("Mail not sent (log transport)", "to", to, "subject", subject, "body", body)
	return nil
}
