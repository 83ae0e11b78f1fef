package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jordanlanch/salescrm/pkg/cache"
	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/store"
)

// Digest lists the overdue activities of one owner.
type Digest struct {
	OwnerID string            `json:"owner_id"`
	Overdue []models.Activity `json:"overdue"`
}

// Monitor runs the maintenance tasks behind the scheduled jobs.
type Monitor struct {
	activities store.ActivityCollection
	lists      domain.ListCache
	clock      func() time.Time
}

// NewMonitor creates a monitor over activities. lists may be nil when the
// list cache is disabled.
func NewMonitor(activities store.ActivityCollection, lists domain.ListCache) *Monitor {
	return &Monitor{activities: activities, lists: lists, clock: time.Now}
}

// WithClock overrides the time source used to decide what is overdue.
func (m *Monitor) WithClock(clock func() time.Time) *Monitor {
	m.clock = clock
	return m
}

// OverdueDigest collects the overdue activities of every owner, oldest
// schedule first. Owners with nothing overdue are left out.
func (m *Monitor) OverdueDigest(ctx context.Context, owners []string) ([]Digest, error) {
	now := m.clock()
	digests := make([]Digest, 0, len(owners))

	for _, owner := range owners {
		activities, err := m.activities.List(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("failed to list activities for %s: %w", owner, err)
		}

		var overdue []models.Activity
		for _, a := range activities {
			if a.Overdue(now) {
				overdue = append(overdue, a)
			}
		}
		if len(overdue) == 0 {
			continue
		}

		sort.SliceStable(overdue, func(i, j int) bool {
			return overdue[i].ScheduledAt.Before(*overdue[j].ScheduledAt)
		})
		digests = append(digests, Digest{OwnerID: owner, Overdue: overdue})
	}

	return digests, nil
}

// ResetDemo restores the demo owner's records to the bundled dataset and
// retires every cached listing for that owner.
func (m *Monitor) ResetDemo(ctx context.Context, mem *store.Memory, ownerID string) error {
	mem.Load(ownerID, store.DemoData())

	if m.lists == nil {
		return nil
	}
	for _, name := range []string{store.LeadsName, store.DealsName, store.ActivitiesName, store.EventsName} {
		if _, err := m.lists.Incr(ctx, cache.GenerationKey(ownerID, name)); err != nil {
			return fmt.Errorf("failed to retire cached %s: %w", name, err)
		}
	}
	if err := m.lists.DeletePattern(ctx, fmt.Sprintf("%s:%s:*", cache.KeyPrefix, ownerID)); err != nil {
		return fmt.Errorf("failed to invalidate cached listings: %w", err)
	}
	return nil
}
