package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-ops/internal/model"
	"github.com/jwalitptl/hospital-ops/internal/repository/memory"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
)

type stubSyncer struct {
	synced int
	err    error
	calls  int
}

func (s *stubSyncer) SyncCounters(ctx context.Context) (int, error) {
	s.calls++
	return s.synced, s.err
}

func TestCounterSyncJob(t *testing.T) {
	syncer := &stubSyncer{synced: 2}
	job := NewCounterSyncJob(syncer, logger.Nop())

	assert.Equal(t, "counter_sync", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, syncer.calls)

	syncer.err = errors.New("db down")
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, syncer.err)
}

func TestCodeCleanupJob(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	expired := &model.User{Name: "Old", Email: "old@example.com", Role: model.RoleNurse}
	expired.SetVerificationCode("111111", now.Add(-time.Minute))
	require.NoError(t, store.Users.Create(ctx, expired))

	fresh := &model.User{Name: "New", Email: "new@example.com", Role: model.RoleNurse}
	fresh.SetResetCode("222222", now.Add(time.Minute))
	require.NoError(t, store.Users.Create(ctx, fresh))

	job := NewCodeCleanupJob(store.Users, logger.Nop())
	job.now = func() time.Time { return now }
	require.NoError(t, job.Run(ctx))

	got, err := store.Users.Get(ctx, expired.ID)
	require.NoError(t, err)
	assert.Nil(t, got.VerificationCode)

	got, err = store.Users.Get(ctx, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResetCode)
	assert.Equal(t, "222222", *got.ResetCode)
}
