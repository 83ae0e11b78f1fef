package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jordanlanch/salescrm/pkg/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key-minimum-32-characters-long"

func serve(t *testing.T, header string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var seen string
	e.GET("/api/v1/leads", func(c echo.Context) error {
		seen = UserID(c)
		return c.NoContent(http.StatusOK)
	}, JWTMiddleware(secret))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	token, err := auth.GenerateJWT("u-42", "rep@example.com", secret, 1)
	require.NoError(t, err)

	rec, seen := serve(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-42", seen)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing header", header: "", code: "missing_token"},
		{name: "wrong scheme", header: "Basic abc", code: "invalid_token_format"},
		{name: "garbage token", header: "Bearer not.a.token", code: "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := serve(t, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
			assert.Empty(t, seen)
		})
	}
}
