package worker

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hospital-ops/pkg/logger"
)

// CounterSyncer refreshes the denormalized hospital bed counters.
type CounterSyncer interface {
	SyncCounters(ctx context.Context) (int, error)
}

type CounterSyncJob struct {
	syncer CounterSyncer
	log    *logger.Logger
}

func NewCounterSyncJob(syncer CounterSyncer, log *logger.Logger) *CounterSyncJob {
	return &CounterSyncJob{syncer: syncer, log: log}
}

func (j *CounterSyncJob) Name() string { return "counter_sync" }

func (j *CounterSyncJob) Run(ctx context.Context) error {
	synced, err := j.syncer.SyncCounters(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync bed counters: %w", err)
	}
	if synced > 0 {
		j.log.Info("Synced hospital bed counters", "hospitals", synced)
	}
	return nil
}
