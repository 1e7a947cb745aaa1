// internal/api/api.go
package api

import (
	"crypto/rand"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/tphakala/bird-catalog/internal/catalog"
	"github.com/tphakala/bird-catalog/internal/conf"
	"github.com/tphakala/bird-catalog/internal/errors"
	"github.com/tphakala/bird-catalog/internal/logging"
	"github.com/tphakala/bird-catalog/internal/observability"
)

// speciesListCacheKey is the go-cache key under which the full species list
// response is stored between writes.
const speciesListCacheKey = "species:list"

// Controller manages the API routes and handlers
type Controller struct {
	Echo     *echo.Echo
	Catalog  *catalog.Service
	Settings *conf.Settings

	speciesCache   *cache.Cache // cached species list, invalidated on writes
	metrics        *observability.Metrics
	apiLogger      *slog.Logger
	apiLevelVar    *slog.LevelVar
	apiLoggerClose func() error
	startTime      time.Time
}

// Option is a functional option for configuring the Controller.
type Option func(*Controller)

// WithLogger overrides the structured request logger, e.g. in tests.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.apiLogger = logger
		c.apiLoggerClose = func() error { return nil }
	}
}

// New creates a new API controller and registers all routes.
func New(e *echo.Echo, svc *catalog.Service, settings *conf.Settings,
	metrics *observability.Metrics, opts ...Option) (*Controller, error) {

	c := &Controller{
		Echo:         e,
		Catalog:      svc,
		Settings:     settings,
		speciesCache: cache.New(5*time.Minute, 10*time.Minute),
		metrics:      metrics,
		startTime:    time.Now(),
	}

	// Structured logger for API requests
	initialLevel := slog.LevelInfo
	if settings.Server.Debug {
		initialLevel = slog.LevelDebug
	}
	c.apiLevelVar = new(slog.LevelVar)
	c.apiLevelVar.Set(initialLevel)

	for _, opt := range opts {
		opt(c)
	}

	if c.apiLogger == nil {
		apiLogger, closeFunc, err := logging.NewFileLogger("logs/web.log", "api", c.apiLevelVar)
		if err != nil {
			// Fall back to a disabled logger but respect the level var
			logging.Warn("Failed to initialize API structured logger, logging disabled", "error", err)
			fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: c.apiLevelVar})
			c.apiLogger = slog.New(fbHandler).With("service", "api")
			c.apiLoggerClose = func() error { return nil }
		} else {
			c.apiLogger = apiLogger
			c.apiLoggerClose = closeFunc
		}
	}

	// Middleware order: recover first, then CORS, body limit, logging.
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     settings.Server.CORS.Origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowCredentials: true,
	}))
	if settings.Server.BodyLimit != "" {
		e.Use(middleware.BodyLimit(settings.Server.BodyLimit))
	}
	e.Use(c.LoggingMiddleware())

	c.initRoutes()

	return c, nil
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	c.initSpeciesRoutes()

	c.Echo.GET("/healthz", c.HealthCheck)

	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}

	// Static audio and image assets, addressed by sound label
	if c.Settings.Catalog.StaticDir != "" {
		c.Echo.Static("/static", c.Settings.Catalog.StaticDir)
	}
}

// LoggingMiddleware creates a middleware function that logs API requests and
// feeds the HTTP metrics collector.
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			err := next(ctx)

			req := ctx.Request()
			res := ctx.Response()
			elapsed := time.Since(start)

			if c.metrics != nil {
				c.metrics.HTTP.RecordRequest(req.Method, ctx.Path(), res.Status, elapsed.Seconds())
			}

			if c.apiLogger == nil {
				return err
			}

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.String("ip", ctx.RealIP()),
				slog.String("user_agent", req.UserAgent()),
				slog.Int64("latency_ms", elapsed.Milliseconds()),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			c.apiLogger.LogAttrs(req.Context(), slog.LevelInfo, "API Request", attrs...)

			return err
		}
	}
}

// HealthCheck handles the health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":    "healthy",
		"version":   c.Settings.Version,
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(c.startTime).String(),
	}

	dbStatus := "connected"
	if err := c.Catalog.Healthy(ctx.Request().Context()); err != nil {
		dbStatus = "disconnected"
		response["status"] = "degraded"
		response["database_error"] = err.Error()
	}
	response["database_status"] = dbStatus

	return ctx.JSON(http.StatusOK, response)
}

// Shutdown performs cleanup of resources used by the API controller.
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			logging.Warn("Error closing API log file", "error", err)
		}
	}
	if c.speciesCache != nil {
		c.speciesCache.Flush()
	}
}

// detailResponse is the error body shape expected by catalog clients.
type detailResponse struct {
	Detail string `json:"detail"`
}

// HandleError logs err with a correlation ID and responds with the client
// facing detail body. The correlation ID ties the response to the server-side
// log entry without leaking internals to the client.
func (c *Controller) HandleError(ctx echo.Context, err error, detail string, code int) error {
	correlationID := generateCorrelationID()

	if c.apiLogger != nil {
		c.apiLogger.Error("API Error",
			"correlation_id", correlationID,
			"detail", detail,
			"error", err.Error(),
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ctx.RealIP(),
		)

		var ee *errors.EnhancedError
		if errors.As(err, &ee) {
			c.apiLogger.Debug("API Error context",
				"correlation_id", correlationID,
				"category", ee.GetCategory(),
				"component", ee.Component,
			)
		}
	}

	return ctx.JSON(code, detailResponse{Detail: detail})
}

// generateCorrelationID creates a unique identifier for error tracking using
// cryptographic randomness.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}

	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
