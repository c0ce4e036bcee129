package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-ops/internal/app"
	"github.com/jwalitptl/hospital-ops/internal/config"
	"github.com/jwalitptl/hospital-ops/internal/handler/health"
	"github.com/jwalitptl/hospital-ops/internal/middleware"
	jobs "github.com/jwalitptl/hospital-ops/internal/worker"
	"github.com/jwalitptl/hospital-ops/pkg/logger"
	"github.com/jwalitptl/hospital-ops/pkg/worker"
)

func healthServer(a *app.App, port int) *http.Server {
	engine := gin.New()
	engine.Use(middleware.Recovery())
	health.NewHandler(a.Registry, a.HealthChecks()).RegisterRoutes(&engine.RouterGroup)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg.Log).WithFields(map[string]interface{}{"process": "worker"})
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal(err, "Failed to initialize worker")
	}

	srv := healthServer(a, cfg.Workers.HealthPort)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "Health check server failed")
			stop()
		}
	}()

	periodics := []*worker.Periodic{
		worker.NewPeriodic(jobs.NewCounterSyncJob(a.Hospitals, log), cfg.Workers.CounterSyncInterval, log, a.Metrics),
		worker.NewPeriodic(jobs.NewCodeCleanupJob(a.Store.Users, log), cfg.Workers.CleanupInterval, log, a.Metrics),
	}

	var wg sync.WaitGroup
	for _, p := range periodics {
		wg.Add(1)
		go func(p *worker.Periodic) {
			defer wg.Done()
			p.Start(ctx)
		}(p)
	}

	log.Info("Worker started",
		"counter_sync_interval", cfg.Workers.CounterSyncInterval.String(),
		"cleanup_interval", cfg.Workers.CleanupInterval.String(),
	)

	<-ctx.Done()
	log.Info("Shutting down worker")
	wg.Wait()

	shutdown(log, a, srv, cfg)
	log.Info("Worker exited")
}

func shutdown(log *logger.Logger, a *app.App, srv *http.Server, cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Health check server forced to shutdown")
	}
	if err := a.Close(ctx); err != nil {
		log.Error(err, "Failed to release resources")
	}
}
