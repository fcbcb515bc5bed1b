package bootstrap

import (
	"context"
	"os"
	"strings"
	"time"

	"stylist_server/adapter/in/http"
	"stylist_server/config"
	"stylist_server/infra/middleware"
	"stylist_server/internal/stream"
	"stylist_server/pkg/logger"
	"stylist_server/pkg/ratelimit"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		StrictRouting:         false,
		CaseSensitive:         false,

		// go-json: 표준 encoding/json 대비 빠른 직렬화
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:    1 * 1024 * 1024, // 1MB
		ServerHeader: "",
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())       // 1. Panic recovery
	app.Use(middleware.RequestID())     // 2. Request ID
	app.Use(middleware.RequestLogger()) // 3. Request logging
	app.Use(middleware.Latency(deps.Latency))

	// SSE 스트림은 압축하지 않음
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/events")
		},
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID,x-auth-token",
		ExposeHeaders:    "X-Request-ID,Retry-After",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health check (no auth required)
	http.NewHealthHandler(healthChecks(deps)).Register(app)

	if cfg.IsDevelopment() {
		RegisterDevRoutes(app, deps)
		logger.Info("Development routes enabled under /dev")
	}

	auth := middleware.JWTAuth(cfg.JWTSecret)
	optionalAuth := middleware.OptionalJWTAuth(cfg.JWTSecret)
	chatLimit := middleware.RateLimit(newChatLimiter(cfg, deps), "chat")

	api := app.Group("/api")

	http.NewChatHandler(deps.ChatService).Register(api, optionalAuth, chatLimit)
	http.NewStyleHandler(deps.StylistService).Register(api, auth)
	http.NewAnalyticsHandler(deps.MetricsService).Register(api)
	http.NewSSEHandler(deps.SSEHub, deps.MetricsService, logger.Component("sse_handler")).Register(api, optionalAuth)

	stopConsumer := startActivityConsumer(deps)

	logger.Info("API server initialized successfully")

	shutdown := func() {
		stopConsumer()
		deps.Close()
		cleanup()
	}
	return app, shutdown, nil
}

// startActivityConsumer feeds order, cart and wishlist events into the
// metrics broadcaster. It is a no-op without Redis.
func startActivityConsumer(deps *Dependencies) func() {
	if deps.ActivityStream == nil {
		return func() {}
	}

	consumerName, err := os.Hostname()
	if err != nil || consumerName == "" {
		consumerName = "stylist-api"
	}
	consumer := stream.NewActivityConsumer(deps.ActivityStream, deps.MetricsService, consumerName, deps.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Run(ctx); err != nil && err != context.Canceled {
			logger.WithError(err).Error("Activity consumer stopped")
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// newChatLimiter shares the chat budget across instances when Redis is available.
func newChatLimiter(cfg *config.Config, deps *Dependencies) ratelimit.Limiter {
	window := time.Duration(cfg.ChatRateWindowSec) * time.Second
	if deps.Redis != nil {
		return ratelimit.NewSlidingWindowLimiter(deps.Redis, cfg.ChatRateLimit, window)
	}
	return ratelimit.NewWindowLimiter(cfg.ChatRateLimit, window)
}

// healthChecks returns a ping per configured backing store. Stores that are
// not configured are reported but never fail readiness.
func healthChecks(deps *Dependencies) map[string]http.HealthCheck {
	checks := map[string]http.HealthCheck{
		"mongodb": nil,
		"redis":   nil,
	}
	if deps.MongoDB != nil {
		client := deps.MongoDB
		checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}
	if deps.Redis != nil {
		client := deps.Redis
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	if deps.SQLDB != nil {
		checks["postgres"] = deps.SQLDB.PingContext
	}
	return checks
}
