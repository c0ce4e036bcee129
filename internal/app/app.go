// Package app assembles the storage, messaging and service graph shared by
// the API server, the background worker and the seeder.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/hospital-ops/internal/config"
	"github.com/jwalitptl/hospital-ops/internal/email"
	"github.com/jwalitptl/hospital-ops/internal/lock"
	"github.com/jwalitptl/hospital-ops/internal/repository"
	"github.com/jwalitptl/hospital-ops/internal/repository/memory"
	"github.com/jwalitptl/hospital-ops/internal/repository/postgres"
	ambulanceService "github.com/jwalitptl/hospital-ops/internal/service/ambulance"
	authService "github.com/jwalitptl/hospital-ops/internal/service/auth"
	bedService "github.com/jwalitptl/hospital-ops/internal/service/bed"
	hospitalService "github.com/jwalitptl/hospital-ops/internal/service/hospital"
	"github.com/jwalitptl/hospital-ops/internal/service/notification"
	userService "github.com/jwalitptl/hospital-ops/internal/service/user"
	workHourService "github.com/jwalitptl/hospital-ops/internal/service/workhour"
	"github.com/jwalitptl/hospital-ops/pkg/auth"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/messaging"
	brokermem "github.com/jwalitptl/hospital-ops/pkg/messaging/memory"
	brokerredis "github.com/jwalitptl/hospital-ops/pkg/messaging/redis"
	"github.com/jwalitptl/hospital-ops/pkg/metrics"
	"github.com/jwalitptl/hospital-ops/pkg/security"
	"github.com/jwalitptl/hospital-ops/pkg/worker"
)

const metricsNamespace = "hospital_ops"

type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Store      *repository.Store
	Broker     messaging.Broker
	Locker     lock.Locker
	Dispatcher *worker.Dispatcher
	Tokens     auth.TokenManager

	Notifier   notification.Service
	Auth       *authService.Service
	Users      *userService.Service
	Hospitals  *hospitalService.Service
	Beds       *bedService.Service
	Ambulances *ambulanceService.Service
	WorkHours  *workHourService.Service

	db    *sqlx.DB
	redis *redis.Client
}

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Level),
		TimeFormat: time.RFC3339,
		JSON:       cfg.Format == "json",
	})
}

// New connects the configured backends and builds every service. The
// dispatcher is started; Close stops it.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Log:      log,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewMetrics(metricsNamespace, "", a.Registry)

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	if err := a.openMessaging(ctx); err != nil {
		a.closeStore()
		return nil, err
	}

	a.Dispatcher = worker.NewDispatcher(worker.DispatcherConfig{
		Workers:       cfg.Dispatcher.Workers,
		QueueSize:     cfg.Dispatcher.QueueSize,
		RetryAttempts: cfg.Dispatcher.RetryAttempts,
		RetryDelay:    cfg.Dispatcher.RetryDelay,
		TaskTimeout:   cfg.Dispatcher.TaskTimeout,
	}, log, a.Metrics)
	a.Dispatcher.Start()

	var mailer email.Mailer
	if cfg.Mail.Transport == "smtp" {
		mailer = email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	} else {
		mailer = email.NewLogMailer(log)
	}
	mail := email.NewService(mailer, a.Dispatcher, cfg.Mail.FrontendURL, log, a.Metrics)

	a.Tokens = auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	a.Notifier = notification.NewService(a.Broker, a.Dispatcher, log, a.Metrics)
	a.Auth = authService.NewService(a.Store, hasher, a.Tokens, mail, cfg.Verification.CodeTTL, log)
	a.Users = userService.NewService(a.Store, hasher, log)
	a.Hospitals = hospitalService.NewService(a.Store, cfg.Cache.HospitalTTL, log)
	a.Beds = bedService.NewService(a.Store, a.Locker, log, a.Metrics)
	a.Ambulances = ambulanceService.NewService(a.Store, a.Locker, a.Notifier, log, a.Metrics)
	a.WorkHours = workHourService.NewService(a.Store, log, a.Metrics)

	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	if a.Config.Database.Driver == "memory" {
		a.Log.Warn("Using in-memory store; data is lost on exit")
		a.Store = memory.NewStore()
		return nil
	}

	db, err := postgres.NewDB(a.Config.Database)
	if err != nil {
		return err
	}
	if a.Config.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return err
		}
	}
	a.db = db
	a.Store = postgres.NewStore(db, a.Metrics)
	return nil
}

func (a *App) openMessaging(ctx context.Context) error {
	if a.Config.Redis.URL == "" {
		a.Broker = brokermem.NewBroker()
		a.Locker = lock.NewMemoryLocker()
		return nil
	}

	client, err := brokerredis.NewClient(ctx, brokerredis.Config{
		URL:          a.Config.Redis.URL,
		PoolSize:     a.Config.Redis.PoolSize,
		MinIdleConns: a.Config.Redis.MinIdleConns,
	})
	if err != nil {
		return err
	}
	a.redis = client
	a.Broker = brokerredis.NewRedisBroker(client, a.Log.Zerolog())
	a.Locker = lock.NewRedisLocker(client, a.Config.Lock.TTL, a.Config.Lock.Wait)
	return nil
}

// HealthChecks lists the readiness probes of the connected backends.
func (a *App) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"database": a.Store.Ping,
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close drains the dispatcher and then releases the backends.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Dispatcher.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop dispatcher: %w", err))
	}
	if err := a.Broker.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close broker: %w", err))
	}
	if err := a.closeStore(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) closeStore() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
