// Package errors writes API error responses. Internal details are logged
// and never sent to the client.
package errors

import (
	"log"
	"net/http"

	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/labstack/echo/v4"
)

// ValidationError responds 400 for a request body that could not be bound.
func ValidationError(c echo.Context, err error) error {
	log.Printf("[VALIDATION ERROR] %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data",
	})
}

// RejectedError responds 400 with a message produced by entity validation.
// Those messages are written for end users.
func RejectedError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: domain.UserMessage(err),
	})
}

// InternalError responds 500.
func InternalError(c echo.Context, err error) error {
	log.Printf("[INTERNAL ERROR] %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// UnauthorizedError responds 401.
func UnauthorizedError(c echo.Context, reason string) error {
	log.Printf("[UNAUTHORIZED] %s %s: %s", c.Request().Method, c.Path(), reason)
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "Authentication required",
	})
}

// NotFoundError responds 404.
func NotFoundError(c echo.Context, resource string) error {
	log.Printf("[NOT FOUND] %s %s: %s", c.Request().Method, c.Path(), resource)
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: "The requested resource was not found",
	})
}

// Respond maps a store error to its response.
func Respond(c echo.Context, err error) error {
	switch {
	case domain.IsValidation(err):
		return RejectedError(c, err)
	case domain.IsNotFound(err):
		return NotFoundError(c, err.Error())
	case domain.IsUnauthorized(err):
		return UnauthorizedError(c, err.Error())
	default:
		return InternalError(c, err)
	}
}
