package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig holds configuration for the security headers middleware.
// Empty fields fall back to DefaultSecurityHeadersConfig.
type SecurityHeadersConfig struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	PermissionsPolicy     string
	// PrivatePrefix marks paths whose responses carry per-owner data and
	// must not be stored by shared caches.
	PrivatePrefix string
}

// DefaultSecurityHeadersConfig returns headers suited to a JSON-only API:
// nothing may be loaded or framed from its responses.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=(), payment=()",
		PrivatePrefix:         "/api/",
	}
}

// SecurityHeaders returns an Echo middleware that sets the configured policy
// headers plus X-Content-Type-Options on every response, and
// Cache-Control: no-store under PrivatePrefix.
func SecurityHeaders(config SecurityHeadersConfig) echo.MiddlewareFunc {
	defaults := DefaultSecurityHeadersConfig()
	if config.ContentSecurityPolicy == "" {
		config.ContentSecurityPolicy = defaults.ContentSecurityPolicy
	}
	if config.ReferrerPolicy == "" {
		config.ReferrerPolicy = defaults.ReferrerPolicy
	}
	if config.PermissionsPolicy == "" {
		config.PermissionsPolicy = defaults.PermissionsPolicy
	}
	if config.PrivatePrefix == "" {
		config.PrivatePrefix = defaults.PrivatePrefix
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			h.Set("Referrer-Policy", config.ReferrerPolicy)
			h.Set("Permissions-Policy", config.PermissionsPolicy)
			h.Set("X-Content-Type-Options", "nosniff")
			if strings.HasPrefix(c.Request().URL.Path, config.PrivatePrefix) {
				h.Set("Cache-Control", "no-store")
			}
			return next(c)
		}
	}
}
