package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-ops/internal/middleware"
)

// Handler registers public routes.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// ProtectedHandler registers routes behind Authenticate and picks its own
// role guards.
type ProtectedHandler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

type Handlers struct {
	Health    Handler
	Auth      Handler
	Hospital  ProtectedHandler
	Bed       ProtectedHandler
	Ambulance ProtectedHandler
	User      ProtectedHandler
}

type RouterConfig struct {
	RequestTimeout time.Duration
	CORSConfig     middleware.CORSConfig
	// RateLimit is nil when rate limiting is disabled.
	RateLimit   *middleware.RateLimiterConfig
	MaxBodySize int64
	// Metrics records per-route HTTP metrics; nil skips it.
	Metrics gin.HandlerFunc
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, config RouterConfig) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorHandler(),
	)
	if config.Metrics != nil {
		engine.Use(config.Metrics)
	}

	timeout := middleware.DefaultTimeoutConfig()
	if config.RequestTimeout > 0 {
		timeout.Duration = config.RequestTimeout
	}
	timeout.SkipSuffixes = []string{"/stream"}

	engine.Use(
		middleware.Timeout(timeout),
		middleware.RequestID(),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimit != nil {
		engine.Use(middleware.NewRateLimiter(*config.RateLimit).RateLimit())
	}

	engine.Use(
		middleware.SecurityHeaders(),
		middleware.BodyLimit(config.MaxBodySize),
	)

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.handlers.Health.RegisterRoutes(api)
	r.handlers.Auth.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.handlers.Hospital.RegisterRoutes(protected, r.auth)
	r.handlers.Bed.RegisterRoutes(protected, r.auth)
	r.handlers.Ambulance.RegisterRoutes(protected, r.auth)
	r.handlers.User.RegisterRoutes(protected, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
