package worker

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
)

var ErrDispatcherStopped = errors.New("dispatcher stopped")

type DispatcherConfig struct {
	Workers       int
	QueueSize     int
	RetryAttempts int
	RetryDelay    time.Duration
	TaskTimeout   time.Duration
}

// Task is a unit of fire-and-forget work. Tasks sharing a Key run on the
// same worker in submission order.
type Task struct {
	Name string
	Key  string
	Run  func(ctx context.Context) error
}

// Dispatcher runs tasks on a fixed set of workers, each owning a bounded
// queue. Submit never blocks: when the target queue is full the task is
// dropped and counted.
type Dispatcher struct {
	queues  []chan Task
	config  DispatcherConfig
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	stopped bool
	started bool
	next    uint32
	wg      sync.WaitGroup
}

func NewDispatcher(config DispatcherConfig, logger *logger.Logger, metrics *metrics.Metrics) *Dispatcher {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = 10 * time.Second
	}

	queues := make([]chan Task, config.Workers)
	for i := range queues {
		queues[i] = make(chan Task, config.QueueSize)
	}

	return &Dispatcher{
		queues:  queues,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	d.logger.Info("Starting dispatcher", "workers", d.config.Workers, "queue_size", d.config.QueueSize)

	for i, q := range d.queues {
		d.wg.Add(1)
		go d.loop(i, q)
	}
}

// Submit enqueues task and reports whether it was accepted.
func (d *Dispatcher) Submit(task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.drop(task, ErrDispatcherStopped)
		return false
	}

	q := d.queues[d.shard(task.Key)]
	select {
	case q <- task:
		d.metrics.DispatchQueueDepth.Inc()
		return true
	default:
		d.drop(task, errors.New("queue full"))
		return false
	}
}

// Stop refuses new tasks and waits for queued ones to finish or ctx to end.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Dispatcher drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) shard(key string) int {
	n := len(d.queues)
	if key == "" {
		return int(atomic.AddUint32(&d.next, 1) % uint32(n))
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

func (d *Dispatcher) loop(id int, q <-chan Task) {
	defer d.wg.Done()
	for task := range q {
		d.metrics.DispatchQueueDepth.Dec()
		d.run(id, task)
	}
}

func (d *Dispatcher) run(id int, task Task) {
	timer := prometheus.NewTimer(d.metrics.DispatchLatency)
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("Dispatched task panicked", "task", task.Name, "key", task.Key, "panic", r)
		}
	}()

	err := retry(d.config.RetryAttempts, d.config.RetryDelay, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), d.config.TaskTimeout)
		defer cancel()
		return task.Run(ctx)
	})
	if err != nil {
		d.logger.Error(err, "Dispatched task failed",
			"task", task.Name,
			"key", task.Key,
			"worker", id)
	}
}

func (d *Dispatcher) drop(task Task, reason error) {
	d.metrics.DispatchDropped.WithLabelValues(task.Name).Inc()
	d.logger.Warn("Dropping dispatched task",
		"task", task.Name,
		"key", task.Key,
		"reason", reason.Error())
}

// Helper retry function
func retry(attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
