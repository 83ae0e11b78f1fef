package handlers

import (
	"net/http"

	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/phone"
	"github.com/labstack/echo/v4"
)

// PhoneHandler handles phone formatting for the lead form.
type PhoneHandler struct {
	defaultRegion string
}

// NewPhoneHandler creates a new phone handler.
func NewPhoneHandler(defaultRegion string) *PhoneHandler {
	return &PhoneHandler{defaultRegion: defaultRegion}
}

// FormatPhoneRequest represents a phone formatting request.
type FormatPhoneRequest struct {
	Phone  string `json:"phone"`
	Region string `json:"region,omitempty"` // defaults to the server region
}

// FormatPhoneResponse carries the formatted number.
type FormatPhoneResponse struct {
	Formatted string `json:"formatted"`
	Valid     bool   `json:"valid"`
}

// Format normalizes a phone number the way lead writes store it.
func (h *PhoneHandler) Format(c echo.Context) error {
	var req FormatPhoneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if req.Phone == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "Phone number is required",
		})
	}

	region := req.Region
	if region == "" {
		region = h.defaultRegion
	}
	formatted, err := phone.NewNormalizer(region).Format(req.Phone)
	if err != nil {
		return c.JSON(http.StatusOK, FormatPhoneResponse{Formatted: req.Phone, Valid: false})
	}
	return c.JSON(http.StatusOK, FormatPhoneResponse{Formatted: formatted, Valid: true})
}
