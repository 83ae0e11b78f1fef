package container

import (
	"net/http"
	"time"

	sentryecho "github.com/getsentry/sentry-go/echo"
	custommw "github.com/jordanlanch/salescrm/pkg/api/middleware"
	custommiddleware "github.com/jordanlanch/salescrm/pkg/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Router builds the HTTP server with global middleware and every route.
func (c *Container) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			c.Logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if c.Config.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true,
			Timeout: 2 * time.Second,
		}))
	}

	e.Use(c.Metrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(c.Config.CORSAllowedOrigins)))
	e.Use(middleware.Gzip())
	e.Use(middleware.Secure())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))

	// Public endpoints
	e.GET("/", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, map[string]any{
			"name":        "Sales CRM API",
			"version":     Version,
			"status":      "running",
			"environment": c.Config.APIEnvironment,
			"store":       c.Config.StoreMode,
		})
	})
	e.GET("/health", c.HealthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(c.Metrics.Handler()))

	v1 := e.Group("/api/v1")
	v1.POST("/auth/dev-token", c.AuthHandler.DevToken, c.RateLimiter.RateLimitMiddleware())

	// Authenticated routes, rate limited per user
	api := v1.Group("", custommw.JWTMiddleware(c.Config.JWTSecret), c.RateLimiter.RateLimitMiddleware())
	c.LeadHandler.Register(api)
	c.DealHandler.Register(api)
	c.ActivityHandler.Register(api)
	c.EventHandler.Register(api)
	api.GET("/dashboard/stats", c.DashboardHandler.Stats)
	api.POST("/phone/format", c.PhoneHandler.Format)

	return e
}
