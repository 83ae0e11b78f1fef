package handlers

import (
	"context"
	"net/http"

	apierrors "github.com/jordanlanch/salescrm/pkg/api/errors"
	custommw "github.com/jordanlanch/salescrm/pkg/api/middleware"
	"github.com/jordanlanch/salescrm/pkg/dashboard"
	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the dashboard counters.
type DashboardHandler struct {
	stats *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(stats *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// Stats returns the caller's dashboard counters.
func (h *DashboardHandler) Stats(c echo.Context) error {
	ownerID := custommw.UserID(c)
	if ownerID == "" {
		return apierrors.UnauthorizedError(c, "missing user id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	stats, err := h.stats.Stats(ctx, ownerID)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
