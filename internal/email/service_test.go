package email

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
	"github.com/jwalitptl/hospital-ops/pkg/worker"
)

type sent struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, sent{to, subject, body})
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

func newTestService(t *testing.T, mailer Mailer) Service {
	t.Helper()
	d := worker.NewDispatcher(worker.DispatcherConfig{Workers: 1, QueueSize: 8}, logger.Nop(), metrics.Noop())
	d.Start()
	t.Cleanup(func() { _ = d.Stop(context.Background()) })
	return NewService(mailer, d, "https://ops.example.com/", logger.Nop(), metrics.Noop())
}

func TestSendVerification(t *testing.T) {
	mailer := &recordingMailer{}
	svc := newTestService(t, mailer)

	require.NoError(t, svc.SendVerification(context.Background(), "a@example.com", "Ana", "123456"))
	require.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 5*time.Millisecond)

	msg := mailer.msgs[0]
	assert.Equal(t, "a@example.com", msg.to)
	assert.Equal(t, "Healthcare Management - Email Verification", msg.subject)
	assert.Contains(t, msg.body, "Dear Ana,")
	assert.Contains(t, msg.body, "https://ops.example.com/verify-email?token=123456")
	assert.Contains(t, msg.body, "expire in 15 minutes")
}

func TestSendPasswordReset(t *testing.T) {
	mailer := &recordingMailer{}
	svc := newTestService(t, mailer)

	require.NoError(t, svc.SendPasswordReset(context.Background(), "b@example.com", "Ben", "654321"))
	require.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Healthcare Management - Password Reset", mailer.msgs[0].subject)
	assert.Contains(t, mailer.msgs[0].body, "https://ops.example.com/reset-password?token=654321")
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	mailer := &recordingMailer{err: errors.New("relay down")}
	svc := newTestService(t, mailer)

	assert.NoError(t, svc.SendVerification(context.Background(), "c@example.com", "Cy", "111111"))
	require.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, NewLogMailer(logger.Nop()).Send(context.Background(), "x@example.com", "s", "b"))
}

func TestRefusedEnqueueIsReported(t *testing.T) {
	mailer := &recordingMailer{}
	d := worker.NewDispatcher(worker.DispatcherConfig{Workers: 1, QueueSize: 8}, logger.Nop(), metrics.Noop())
	d.Start()
	require.NoError(t, d.Stop(context.Background()))
	svc := NewService(mailer, d, "https://ops.example.com", logger.Nop(), metrics.Noop())

	err := svc.SendPasswordReset(context.Background(), "d@example.com", "Di", "222222")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotQueued)
	assert.Zero(t, mailer.count())
}
