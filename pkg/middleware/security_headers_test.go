package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func runSecurityHeaders(t *testing.T, cfg SecurityHeadersConfig, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	return runSecurityHeadersAt(t, "/api/v1/deals", cfg, next)
}

func runSecurityHeadersAt(t *testing.T, path string, cfg SecurityHeadersConfig, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	err := SecurityHeaders(cfg)(next)(e.NewContext(req, rec))
	return rec, err
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "OK") }

func TestSecurityHeaders_DefaultHeaders(t *testing.T) {
	rec, err := runSecurityHeaders(t, SecurityHeadersConfig{}, ok)
	assert.NoError(t, err)

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'none'")
	assert.Contains(t, csp, "frame-ancestors 'none'")
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	pp := rec.Header().Get("Permissions-Policy")
	assert.Contains(t, pp, "camera=()")
	assert.Contains(t, pp, "payment=()")
}

func TestSecurityHeaders_PartialOverride(t *testing.T) {
	rec, err := runSecurityHeaders(t, SecurityHeadersConfig{ReferrerPolicy: "same-origin"}, ok)
	assert.NoError(t, err)

	assert.Equal(t, "same-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, DefaultSecurityHeadersConfig().ContentSecurityPolicy, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, DefaultSecurityHeadersConfig().PermissionsPolicy, rec.Header().Get("Permissions-Policy"))
}

func TestSecurityHeaders_AllCustom(t *testing.T) {
	cfg := SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin",
		PermissionsPolicy:     "camera=(self)",
	}
	rec, err := runSecurityHeaders(t, cfg, ok)
	assert.NoError(t, err)

	assert.Equal(t, "default-src 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "camera=(self)", rec.Header().Get("Permissions-Policy"))
}

func TestSecurityHeaders_HandlerError(t *testing.T) {
	rec, err := runSecurityHeaders(t, SecurityHeadersConfig{}, func(c echo.Context) error {
		return echo.ErrInternalServerError
	})

	assert.Error(t, err)
	// Headers are set before the handler runs.
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("X-Content-Type-Options"))
}

func TestSecurityHeaders_NoStoreOnOwnerData(t *testing.T) {
	rec, err := runSecurityHeaders(t, SecurityHeadersConfig{}, ok)
	assert.NoError(t, err)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec, err = runSecurityHeadersAt(t, "/health", SecurityHeadersConfig{}, ok)
	assert.NoError(t, err)
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}
