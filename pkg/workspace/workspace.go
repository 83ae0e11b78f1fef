// Package workspace wires one session's query cache to the four entity
// collections through mutation coordinators. Views read collections with
// UseCollection and write only through the coordinators.
package workspace

import (
	"context"
	"time"

	"github.com/jordanlanch/salescrm/pkg/dashboard"
	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/mutation"
	"github.com/jordanlanch/salescrm/pkg/pipeline"
	"github.com/jordanlanch/salescrm/pkg/querycache"
	"github.com/jordanlanch/salescrm/pkg/store"
	"golang.org/x/sync/errgroup"
)

// Cache keys, one per collection.
const (
	LeadsKey      = store.LeadsName
	DealsKey      = store.DealsName
	ActivitiesKey = store.ActivitiesName
	EventsKey     = store.EventsName
)

// Keys lists every collection key in load order.
var Keys = []string{LeadsKey, DealsKey, ActivitiesKey, EventsKey}

// Observer receives cache fetch and mutation timings.
type Observer interface {
	querycache.Observer
	mutation.Observer
}

// Options configures a Workspace.
type Options struct {
	// OwnerID scopes all reads and writes. Empty means signed out: loads
	// and writes fail with an auth-required error.
	OwnerID   string
	Reconcile mutation.ReconcileMode
	Observer  Observer
	Logger    logger.Logger
	Clock     func() time.Time
	// FetchTimeout bounds background refetches.
	FetchTimeout time.Duration
}

// Workspace is one signed-in session over a set of collections.
type Workspace struct {
	cache *querycache.Cache
	opts  Options
	log   logger.Logger

	LeadMutations     *mutation.Coordinator[models.Lead, models.LeadPatch]
	DealMutations     *mutation.Coordinator[models.Deal, models.DealPatch]
	ActivityMutations *mutation.Coordinator[models.Activity, models.ActivityPatch]
	EventMutations    *mutation.Coordinator[models.CalendarEvent, models.EventPatch]

	Pipeline *pipeline.Mover
}

// New creates a workspace over collections. Nothing is fetched until Load
// or UseCollection is called.
func New(collections store.Collections, opts Options) *Workspace {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	cacheOpts := []querycache.Option{querycache.WithLogger(opts.Logger)}
	if opts.Observer != nil {
		cacheOpts = append(cacheOpts, querycache.WithObserver(opts.Observer))
	}
	if opts.FetchTimeout > 0 {
		cacheOpts = append(cacheOpts, querycache.WithFetchTimeout(opts.FetchTimeout))
	}
	cache := querycache.New(cacheOpts...)

	w := &Workspace{
		cache: cache,
		opts:  opts,
		log:   opts.Logger.With("component", "workspace", "user_id", opts.OwnerID),
	}

	mo := mutation.Options{
		OwnerID:   opts.OwnerID,
		Reconcile: opts.Reconcile,
		Logger:    opts.Logger,
		Clock:     opts.Clock,
	}
	if opts.Observer != nil {
		mo.Observer = opts.Observer
	}

	w.LeadMutations = mutation.New[models.Lead, models.LeadPatch](LeadsKey, cache, collections.Leads, mo)
	w.DealMutations = mutation.New[models.Deal, models.DealPatch](DealsKey, cache, collections.Deals, mo)
	w.ActivityMutations = mutation.New[models.Activity, models.ActivityPatch](ActivitiesKey, cache, collections.Activities, mo)
	w.EventMutations = mutation.New[models.CalendarEvent, models.EventPatch](EventsKey, cache, collections.Events, mo).
		SetInsert(mutation.InsertSorted(store.Events.Less))
	w.Pipeline = pipeline.NewMover(cache, w.DealMutations)

	register(cache, LeadsKey, opts.OwnerID, collections.Leads.List)
	register(cache, DealsKey, opts.OwnerID, collections.Deals.List)
	register(cache, ActivitiesKey, opts.OwnerID, collections.Activities.List)
	register(cache, EventsKey, opts.OwnerID, collections.Events.List)

	return w
}

func register[T any](cache *querycache.Cache, key, ownerID string, list func(context.Context, string) ([]T, error)) {
	cache.Register(key, func(ctx context.Context) (any, error) {
		items, err := list(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		return items, nil
	})
}

// Cache exposes the underlying query cache.
func (w *Workspace) Cache() *querycache.Cache { return w.cache }

// OwnerID is the signed-in user the workspace reads and writes as.
func (w *Workspace) OwnerID() string { return w.opts.OwnerID }

// Close stops background refetches.
func (w *Workspace) Close() {
	w.cache.Close()
}

// Load fetches all four collections concurrently. A failing key does not
// cancel the others; each records its own error and the first is returned.
func (w *Workspace) Load(ctx context.Context) error {
	var g errgroup.Group
	for _, key := range Keys {
		g.Go(func() error {
			_, err := w.cache.Load(ctx, key)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		w.log.Warn("Workspace load failed", "error", err)
		return err
	}
	return nil
}

// Refresh reloads one collection.
func (w *Workspace) Refresh(ctx context.Context, key string) error {
	_, err := w.cache.Load(ctx, key)
	return err
}

// View is what a screen renders for one collection.
type View struct {
	Data      any
	IsLoading bool
	Err       error
}

// UseCollection returns the current view of key and starts a background
// load when the key was never loaded or is stale.
func (w *Workspace) UseCollection(key string) View {
	st := w.cache.Ensure(key)
	return View{
		Data:      st.Data,
		IsLoading: st.Loading || (!st.Loaded && st.Err == nil),
		Err:       st.Err,
	}
}

// Subscribe calls fn with every new state of key.
func (w *Workspace) Subscribe(key string, fn func(querycache.State)) (unsubscribe func()) {
	return w.cache.Subscribe(key, fn)
}

// Leads returns the visible leads.
func (w *Workspace) Leads() []models.Lead {
	items, _ := querycache.Items[models.Lead](w.cache, LeadsKey)
	return items
}

// Deals returns the visible deals.
func (w *Workspace) Deals() []models.Deal {
	items, _ := querycache.Items[models.Deal](w.cache, DealsKey)
	return items
}

// Activities returns the visible activities.
func (w *Workspace) Activities() []models.Activity {
	items, _ := querycache.Items[models.Activity](w.cache, ActivitiesKey)
	return items
}

// Events returns the visible calendar events, earliest first.
func (w *Workspace) Events() []models.CalendarEvent {
	items, _ := querycache.Items[models.CalendarEvent](w.cache, EventsKey)
	return items
}

// Stats computes the dashboard counters over the visible collections.
func (w *Workspace) Stats(now time.Time) models.DashboardStats {
	return dashboard.Compute(w.Leads(), w.Deals(), w.Activities(), w.Events(), now)
}

// Board projects the visible deals onto the pipeline.
func (w *Workspace) Board() pipeline.Board {
	return pipeline.Build(w.Deals(), w.Leads())
}
