package handlers

import (
	"errors"
	"net/http"

	apierrors "github.com/jordanlanch/salescrm/pkg/api/errors"
	"github.com/jordanlanch/salescrm/pkg/auth"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// DevTokenRequest asks for a bearer token for a given user.
type DevTokenRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// AuthHandler issues development tokens. Sign-in itself is handled by the
// identity provider in front of the API.
type AuthHandler struct {
	secret        string
	expiryHours   int
	defaultUserID string
	enabled       bool
}

// NewAuthHandler creates a new auth handler. Token issuance is disabled
// when enabled is false.
func NewAuthHandler(secret string, expiryHours int, defaultUserID string, enabled bool) *AuthHandler {
	return &AuthHandler{
		secret:        secret,
		expiryHours:   expiryHours,
		defaultUserID: defaultUserID,
		enabled:       enabled,
	}
}

// DevToken returns a signed token for the requested (or default) user.
func (h *AuthHandler) DevToken(c echo.Context) error {
	if !h.enabled {
		return apierrors.NotFoundError(c, "dev tokens disabled")
	}

	var req DevTokenRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}
	if req.UserID == "" {
		req.UserID = h.defaultUserID
	}
	if req.UserID == "" {
		return apierrors.ValidationError(c, errors.New("user_id is required"))
	}

	token, err := auth.GenerateJWT(req.UserID, req.Email, h.secret, h.expiryHours)
	if err != nil {
		return apierrors.InternalError(c, err)
	}

	return c.JSON(http.StatusOK, models.TokenResponse{Token: token, UserID: req.UserID})
}
