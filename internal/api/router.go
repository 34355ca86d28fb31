package api

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/audit"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/config"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/database"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/synthesis"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/treatment"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/ws"
)

const (
	Version = "0.1.0"

	// multipart framing on top of the photo itself
	multipartOverhead = 1 << 20
)

type Dependencies struct {
	Config      *config.Config
	Generator   handler.Generator
	Compiler    *treatment.Compiler
	Processor   ws.FrameProcessor
	Synthesizer provider.ImageSynthesizer
	Worker      *synthesis.DeviceWorker
	Audit       audit.Logger

	// Optional, history routes are only mounted with a store
	Generations handler.GenerationStore
	DB          database.Pinger
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	registry    *ws.Registry
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	bodyLimit := handler.DefaultMaxUploadBytes + multipartOverhead
	if deps != nil && deps.Config != nil && deps.Config.MaxUploadBytes > 0 {
		bodyLimit = deps.Config.MaxUploadBytes + multipartOverhead
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Dermasim API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:      app,
		logger:   logger,
		deps:     deps,
		registry: ws.NewRegistry(),
	}
}

func (r *Router) Setup() {
	cfg := r.config()

	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(Version).
		WithStats("sessions", func() any { return r.registry.Count() })
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	if hc, ok := r.deps.Synthesizer.(provider.HealthChecker); ok {
		healthHandler.WithCheck("synthesizer", hc.HealthCheck)
	}
	if r.deps.DB != nil {
		db := r.deps.DB
		healthHandler.WithCheck("database", func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		})
	}
	if r.deps.Worker != nil {
		worker := r.deps.Worker
		healthHandler.WithStats("device_worker", func() any { return worker.Stats() })
	}

	// Catalog
	if r.deps.Compiler != nil {
		areasHandler := handler.NewAreasHandler(r.deps.Compiler)
		r.app.Get("/areas", areasHandler.List)
		r.app.Get("/areas/:key/prompt", areasHandler.Prompt)
	}

	// Generation, rate limited per client IP
	if r.deps.Generator != nil {
		r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Max:    cfg.RateLimitMax,
			Window: cfg.RateLimitWindow,
		})
		generateHandler := handler.NewGenerateHandler(r.deps.Generator, int64(cfg.MaxUploadBytes), r.logger)
		r.app.Post("/generate/",
			handler.Envelope,
			middleware.Recover(r.logger),
			r.rateLimiter.Handler(),
			generateHandler.Generate,
		)
	}

	// History
	if r.deps.Generations != nil {
		generationsHandler := handler.NewGenerationsHandler(r.deps.Generations, r.logger)
		r.app.Get("/generations", generationsHandler.List)
		r.app.Get("/generations/stats", generationsHandler.Stats)
	}

	// WebSocket endpoint
	if r.deps.Processor != nil {
		r.app.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(
			r.registry,
			r.deps.Processor,
			r.deps.Audit,
			ws.HandlerConfig{
				Session: ws.DefaultSessionConfig(),
				Backend: cfg.DetectorBackend,
			},
			r.logger,
		))
	}
}

// config returns the configured values, or defaults when none were given
func (r *Router) config() *config.Config {
	if r.deps != nil && r.deps.Config != nil {
		return r.deps.Config
	}
	return &config.Config{
		CORSOrigins:     []string{"*"},
		MaxUploadBytes:  handler.DefaultMaxUploadBytes,
		RateLimitMax:    middleware.DefaultRateLimiterConfig().Max,
		RateLimitWindow: middleware.DefaultRateLimiterConfig().Window,
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

// Registry exposes the active streaming sessions
func (r *Router) Registry() *ws.Registry {
	return r.registry
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Close streaming sessions first so their handlers return
	r.registry.CloseAll()

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
