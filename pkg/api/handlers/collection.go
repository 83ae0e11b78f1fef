package handlers

import (
	"context"
	"net/http"
	"time"

	apierrors "github.com/jordanlanch/salescrm/pkg/api/errors"
	custommw "github.com/jordanlanch/salescrm/pkg/api/middleware"
	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/labstack/echo/v4"
)

const requestTimeout = 10 * time.Second

// CollectionHandler serves one owner-scoped entity collection.
type CollectionHandler[T domain.Record[T], P domain.Patch[T]] struct {
	name   string
	store  domain.Collection[T, P]
	logger logger.Logger
}

// NewCollectionHandler creates a handler for the collection mounted at /name.
func NewCollectionHandler[T domain.Record[T], P domain.Patch[T]](name string, store domain.Collection[T, P], log logger.Logger) *CollectionHandler[T, P] {
	if log == nil {
		log = logger.Discard()
	}
	return &CollectionHandler[T, P]{
		name:   name,
		store:  store,
		logger: log.With("collection", name),
	}
}

// Register mounts the collection routes on g.
func (h *CollectionHandler[T, P]) Register(g *echo.Group) {
	g.GET("/"+h.name, h.List)
	g.POST("/"+h.name, h.Create)
	g.PATCH("/"+h.name+"/:id", h.Update)
	g.DELETE("/"+h.name+"/:id", h.Delete)
}

// List returns every entity the caller owns.
func (h *CollectionHandler[T, P]) List(c echo.Context) error {
	ownerID := custommw.UserID(c)
	if ownerID == "" {
		return apierrors.UnauthorizedError(c, "missing user id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	items, err := h.store.List(ctx, ownerID)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	if items == nil {
		items = []T{}
	}

	return c.JSON(http.StatusOK, models.ListResponse[T]{Data: items, Total: len(items)})
}

// Create stores a new entity and returns it with its server id.
func (h *CollectionHandler[T, P]) Create(c echo.Context) error {
	ownerID := custommw.UserID(c)
	if ownerID == "" {
		return apierrors.UnauthorizedError(c, "missing user id")
	}

	var draft T
	if err := c.Bind(&draft); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	created, err := h.store.Create(ctx, ownerID, draft)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	h.logger.Info("Entity created", "user_id", ownerID, "id", created.GetID())
	return c.JSON(http.StatusCreated, created)
}

// Update applies a partial update.
func (h *CollectionHandler[T, P]) Update(c echo.Context) error {
	ownerID := custommw.UserID(c)
	if ownerID == "" {
		return apierrors.UnauthorizedError(c, "missing user id")
	}

	var patch P
	if err := c.Bind(&patch); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	updated, err := h.store.Update(ctx, ownerID, c.Param("id"), patch)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

// Delete removes an entity.
func (h *CollectionHandler[T, P]) Delete(c echo.Context) error {
	ownerID := custommw.UserID(c)
	if ownerID == "" {
		return apierrors.UnauthorizedError(c, "missing user id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.store.Delete(ctx, ownerID, c.Param("id")); err != nil {
		return apierrors.Respond(c, err)
	}

	h.logger.Info("Entity deleted", "user_id", ownerID, "id", c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
