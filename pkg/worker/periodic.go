package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
)

// Job is a background task run on a fixed interval.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Periodic struct {
	job      Job
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewPeriodic(job Job, interval time.Duration, log *logger.Logger, metrics *metrics.Metrics) *Periodic {
	if interval <= 0 {
		panic("interval must be greater than 0")
	}

	return &Periodic{
		job:      job,
		interval: interval,
		logger:   log.WithFields(map[string]interface{}{"job": job.Name()}),
		metrics:  metrics,
	}
}

// Start runs the job once, then on every tick until ctx is cancelled.
func (p *Periodic) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Starting periodic job", "interval", p.interval.String())
	p.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down periodic job")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Periodic) runOnce(ctx context.Context) {
	if err := p.job.Run(ctx); err != nil {
		p.metrics.WorkerRuns.WithLabelValues(p.job.Name(), "error").Inc()
		p.logger.Error(err, "Periodic job failed")
		return
	}
	p.metrics.WorkerRuns.WithLabelValues(p.job.Name(), "success").Inc()
}
