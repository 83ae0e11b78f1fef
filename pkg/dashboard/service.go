package dashboard

import (
	"context"
	"time"

	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/jordanlanch/salescrm/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Sources are the collections the stats are computed from.
type Sources struct {
	Leads      domain.Collection[models.Lead, models.LeadPatch]
	Deals      domain.Collection[models.Deal, models.DealPatch]
	Activities domain.Collection[models.Activity, models.ActivityPatch]
	Events     domain.Collection[models.CalendarEvent, models.EventPatch]
}

// Service computes dashboard stats on the server.
type Service struct {
	src    Sources
	clock  func() time.Time
	logger logger.Logger
}

// NewService creates a new dashboard service
func NewService(src Sources, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{src: src, clock: time.Now, logger: log}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Stats lists all four collections of ownerID concurrently and computes the
// dashboard counters. The first failing listing cancels the others.
func (s *Service) Stats(ctx context.Context, ownerID string) (models.DashboardStats, error) {
	if ownerID == "" {
		return models.DashboardStats{}, domain.NewUnauthorizedError()
	}

	var (
		leads      []models.Lead
		deals      []models.Deal
		activities []models.Activity
		events     []models.CalendarEvent
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		leads, err = s.src.Leads.List(ctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		deals, err = s.src.Deals.List(ctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		activities, err = s.src.Activities.List(ctx, ownerID)
		return err
	})
	g.Go(func() (err error) {
		events, err = s.src.Events.List(ctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to compute dashboard stats", "user_id", ownerID, "error", err)
		return models.DashboardStats{}, err
	}

	return Compute(leads, deals, activities, events, s.clock()), nil
}
