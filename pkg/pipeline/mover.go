package pipeline

import (
	"context"
	"fmt"

	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/mutation"
	"github.com/jordanlanch/salescrm/pkg/querycache"
)

// DealCoordinator is the mutation surface the mover needs.
type DealCoordinator interface {
	Key() string
	Update(ctx context.Context, id string, patch models.DealPatch) (mutation.Result[models.Deal], error)
}

// Mover handles a card dropped on a column.
type Mover struct {
	cache *querycache.Cache
	deals DealCoordinator
}

// NewMover creates a mover reading current stages from cache.
func NewMover(cache *querycache.Cache, deals DealCoordinator) *Mover {
	return &Mover{cache: cache, deals: deals}
}

// Move sets the deal's stage to `to`. Dropping a card on its own column is
// a no-op: moved is false and no mutation is issued.
func (m *Mover) Move(ctx context.Context, dealID string, to models.DealStage) (moved bool, err error) {
	if !to.Valid() {
		return false, domain.NewValidationError(fmt.Sprintf("unknown stage %q", to))
	}

	deals, _ := querycache.Items[models.Deal](m.cache, m.deals.Key())
	var current *models.Deal
	for i := range deals {
		if deals[i].ID == dealID {
			current = &deals[i]
			break
		}
	}
	if current == nil {
		return false, domain.NewNotFoundError("Deal")
	}
	if current.Stage == to {
		return false, nil
	}

	if _, err := m.deals.Update(ctx, dealID, models.StagePatch(to)); err != nil {
		return false, err
	}
	return true, nil
}
