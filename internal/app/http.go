package app

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-ops/internal/handler/ambulance"
	"github.com/jwalitptl/hospital-ops/internal/handler/auth"
	"github.com/jwalitptl/hospital-ops/internal/handler/bed"
	"github.com/jwalitptl/hospital-ops/internal/handler/health"
	"github.com/jwalitptl/hospital-ops/internal/handler/hospital"
	httpmetrics "github.com/jwalitptl/hospital-ops/internal/handler/prometheus"
	"github.com/jwalitptl/hospital-ops/internal/handler/user"
	"github.com/jwalitptl/hospital-ops/internal/middleware"
	"github.com/jwalitptl/hospital-ops/internal/router"
)

// Engine builds the HTTP API on top of the service graph.
func (a *App) Engine() *gin.Engine {
	cfg := a.Config

	routerConfig := router.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSConfig:     middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...),
		MaxBodySize:    middleware.DefaultMaxBodySize,
		Metrics:        httpmetrics.New(metricsNamespace, a.Registry).Middleware(),
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = &middleware.RateLimiterConfig{
			RPS:     cfg.RateLimit.RequestsPerSecond,
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: cfg.RateLimit.IdleTTL,
		}
	}

	r := router.NewRouter(middleware.NewAuthMiddleware(a.Tokens), router.Handlers{
		Health:    health.NewHandler(a.Registry, a.HealthChecks()),
		Auth:      auth.NewHandler(a.Auth),
		Hospital:  hospital.NewHandler(a.Hospitals),
		Bed:       bed.NewHandler(a.Beds),
		Ambulance: ambulance.NewHandler(a.Ambulances, a.Hospitals, a.Notifier),
		User:      user.NewHandler(a.Users, a.WorkHours),
	}, routerConfig)
	r.Setup()

	return r.Engine()
}
