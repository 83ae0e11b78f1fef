package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/models"
)

// Collection is one API collection. The owner is taken from the bearer
// token; the ownerID arguments only guard against a signed-out session.
type Collection[T domain.Record[T], P domain.Patch[T]] struct {
	c        *Client
	path     string
	singular string
}

func (col *Collection[T, P]) item(id string) string {
	return "/" + col.path + "/" + url.PathEscape(id)
}

// List returns every entity the token's owner has.
func (col *Collection[T, P]) List(ctx context.Context, ownerID string) ([]T, error) {
	if ownerID == "" {
		return nil, domain.NewUnauthorizedError()
	}
	var resp models.ListResponse[T]
	if err := col.c.do(ctx, http.MethodGet, "/"+col.path, nil, &resp, col.singular); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Create posts draft and returns the stored entity.
func (col *Collection[T, P]) Create(ctx context.Context, ownerID string, draft T) (T, error) {
	var out T
	if ownerID == "" {
		return out, domain.NewUnauthorizedError()
	}
	err := col.c.do(ctx, http.MethodPost, "/"+col.path, draft, &out, col.singular)
	return out, err
}

// Update sends patch and returns the merged entity.
func (col *Collection[T, P]) Update(ctx context.Context, ownerID, id string, patch P) (T, error) {
	var out T
	if ownerID == "" {
		return out, domain.NewUnauthorizedError()
	}
	err := col.c.do(ctx, http.MethodPatch, col.item(id), patch, &out, col.singular)
	return out, err
}

// Delete removes the entity.
func (col *Collection[T, P]) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.NewUnauthorizedError()
	}
	return col.c.do(ctx, http.MethodDelete, col.item(id), nil, nil, col.singular)
}
