package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/hospital-ops/internal/repository"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
)

// CodeCleanupJob clears verification and reset codes past their expiry.
type CodeCleanupJob struct {
	users repository.UserRepository
	log   *logger.Logger
	now   func() time.Time
}

func NewCodeCleanupJob(users repository.UserRepository, log *logger.Logger) *CodeCleanupJob {
	return &CodeCleanupJob{
		users: users,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (j *CodeCleanupJob) Name() string { return "verification_cleanup" }

func (j *CodeCleanupJob) Run(ctx context.Context) error {
	cleared, err := j.users.ClearExpiredCodes(ctx, j.now())
	if err != nil {
		return fmt.Errorf("failed to clear expired codes: %w", err)
	}
	if cleared > 0 {
		j.log.Info("Cleared expired account codes", "users", cleared)
	}
	return nil
}
