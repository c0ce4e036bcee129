package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
	"github.com/jwalitptl/hospital-ops/pkg/worker"
)

const (
	verificationSubject = "Healthcare Management - Email Verification"
	resetSubject        = "Healthcare Management - Password Reset"
)

// ErrNotQueued is returned when the dispatcher refuses a mail task.
var ErrNotQueued = errors.New("mail not queued")

// Service queues templated account mail. Sends happen on the dispatcher;
// delivery failures are logged and never reach the caller. Only a refused
// enqueue is reported.
type Service interface {
	SendVerification(ctx context.Context, email, name, token string) error
	SendPasswordReset(ctx context.Context, email, name, token string) error
}

type service struct {
	mailer      Mailer
	dispatcher  *worker.Dispatcher
	frontendURL string
	log         *logger.Logger
	metrics     *metrics.Metrics
}

func NewService(mailer Mailer, dispatcher *worker.Dispatcher, frontendURL string, log *logger.Logger, m *metrics.Metrics) Service {
	return &service{
		mailer:      mailer,
		dispatcher:  dispatcher,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
		metrics:     m,
	}
}

func (s *service) SendVerification(ctx context.Context, email, name, token string) error {
	body := fmt.Sprintf("Dear %s,\n\n"+
		"Thank you for registering with Healthcare Management System.\n\n"+
		"Please click the following link to verify your email address:\n"+
		"%s/verify-email?token=%s\n\n"+
		"This link will expire in 15 minutes.\n\n"+
		"If you didn't create an account, please ignore this email.\n\n"+
		"Best regards,\n"+
		"Healthcare Management Team",
		name, s.frontendURL, token)
	return s.enqueue("mail.verification", email, verificationSubject, body)
}

func (s *service) SendPasswordReset(ctx context.Context, email, name, token string) error {
	body := fmt.Sprintf("Dear %s,\n\n"+
		"You have requested to reset your password.\n\n"+
		"Please click the following link to reset your password:\n"+
		"%s/reset-password?token=%s\n\n"+
		"This link will expire in 15 minutes.\n\n"+
		"If you didn't request this, please ignore this email.\n\n"+
		"Best regards,\n"+
		"Healthcare Management Team",
		name, s.frontendURL, token)
	return s.enqueue("mail.password_reset", email, resetSubject, body)
}

func (s *service) enqueue(name, to, subject, body string) error {
	accepted := s.dispatcher.Submit(worker.Task{
		Name: name,
		Key:  to,
		Run: func(ctx context.Context) error {
			if err := s.mailer.Send(ctx, to, subject, body); err != nil {
				s.metrics.MailFailed.Inc()
				return err
			}
			s.metrics.MailSent.Inc()
			return nil
		},
	})
	if !accepted {
		s.metrics.MailFailed.Inc()
		return fmt.Errorf("%w: %s to %s", ErrNotQueued, name, to)
	}
	return nil
}
