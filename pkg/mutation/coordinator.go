// Package mutation executes writes against an entity collection with
// immediate optimistic visibility in the query cache, then reconciles with
// the store or rolls back.
package mutation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/jordanlanch/salescrm/pkg/querycache"
)

// TempIDPrefix marks ids synthesized locally for optimistic creates.
const TempIDPrefix = "tmp-"

// IsTemporaryID reports whether id was assigned locally and not yet
// replaced by a server id.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// ReconcileMode controls what happens after the store confirms a write.
type ReconcileMode int

const (
	// ReconcileBackground invalidates the key; subscribed views refetch.
	ReconcileBackground ReconcileMode = iota
	// ReconcileAwait invalidates and refetches before Mutate returns.
	ReconcileAwait
)

// Observer receives one call per finished mutation.
type Observer interface {
	ObserveMutation(key, kind, outcome string, duration time.Duration)
}

// Options configures a Coordinator.
type Options struct {
	// OwnerID scopes every store call. Empty means no active session.
	OwnerID   string
	Reconcile ReconcileMode
	Observer  Observer
	Logger    logger.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Coordinator runs mutations for one cache key backed by one collection.
type Coordinator[T domain.Record[T], P domain.Patch[T]] struct {
	key    string
	cache  *querycache.Cache
	store  domain.Collection[T, P]
	opts   Options
	insert func([]T, T) []T
	// ordered is set when insert keeps a sort order that updates can break.
	ordered bool
	log     logger.Logger
}

// New creates a coordinator. Created entities are prepended unless
// SetInsert says otherwise.
func New[T domain.Record[T], P domain.Patch[T]](key string, cache *querycache.Cache, store domain.Collection[T, P], opts Options) *Coordinator[T, P] {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Coordinator[T, P]{
		key:    key,
		cache:  cache,
		store:  store,
		opts:   opts,
		insert: Prepend[T],
		log:    opts.Logger.With("component", "mutation", "key", key),
	}
}

// SetInsert changes where optimistic creates are placed. Optimistic
// updates then move the changed entity through fn as well, so a patch to a
// sort field keeps the list ordered.
func (c *Coordinator[T, P]) SetInsert(fn func([]T, T) []T) *Coordinator[T, P] {
	c.insert = fn
	c.ordered = true
	return c
}

// Key returns the cache key this coordinator writes to.
func (c *Coordinator[T, P]) Key() string { return c.key }

// Create adds draft to the collection.
func (c *Coordinator[T, P]) Create(ctx context.Context, draft T) (Result[T], error) {
	return c.Mutate(ctx, Operation[T, P]{Kind: KindCreate, Draft: draft})
}

// Update applies patch to the entity with the given id.
func (c *Coordinator[T, P]) Update(ctx context.Context, id string, patch P) (Result[T], error) {
	return c.Mutate(ctx, Operation[T, P]{Kind: KindUpdate, ID: id, Patch: patch})
}

// Delete removes the entity with the given id.
func (c *Coordinator[T, P]) Delete(ctx context.Context, id string) (Result[T], error) {
	return c.Mutate(ctx, Operation[T, P]{Kind: KindDelete, ID: id})
}

// Mutate applies op optimistically, issues the remote write and then either
// settles the optimistic layer and schedules a refetch, or removes the layer
// and returns an *Error. Mutate never retries.
func (c *Coordinator[T, P]) Mutate(ctx context.Context, op Operation[T, P]) (Result[T], error) {
	start := time.Now()
	res := Result[T]{Kind: op.Kind, ID: op.ID}

	if err := op.check(); err != nil {
		c.finish(op.Kind, OutcomeRejected, start)
		return res, c.wrap(op, err)
	}

	at := c.opts.Clock().UTC()
	var update querycache.Updater
	switch op.Kind {
	case KindCreate:
		res.TempID = TempIDPrefix + uuid.NewString()
		local := op.Draft.WithIdentity(res.TempID, c.opts.OwnerID, at)
		update = func(v any) any {
			return c.insert(querycache.AsSlice[T](v), local)
		}
	case KindUpdate:
		patch := func(item T) T {
			return op.Patch.Touch(op.Patch.Apply(item), at)
		}
		update = func(v any) any {
			items := querycache.AsSlice[T](v)
			if c.ordered {
				return c.reinsert(items, op.ID, patch)
			}
			return replaceByID(items, op.ID, patch)
		}
	case KindDelete:
		update = func(v any) any {
			return removeByID(querycache.AsSlice[T](v), op.ID)
		}
	}

	layer, snapshot, applied := c.cache.Apply(c.key, update)
	res.Applied = applied
	if applied {
		res.Snapshot = querycache.AsSlice[T](snapshot)
	}

	entity, err := c.remote(ctx, op)
	if err != nil {
		if applied {
			res.Restored = querycache.AsSlice[T](c.cache.Rollback(layer))
		}
		c.log.Warn("Mutation rolled back",
			"kind", string(op.Kind),
			"id", op.ID,
			"error", err)
		c.finish(op.Kind, OutcomeRolledBack, start)
		return res, c.wrap(op, err)
	}

	if applied {
		c.cache.Settle(layer)
	}
	res.Entity = entity
	if op.Kind == KindCreate {
		res.ID = entity.GetID()
	}
	c.reconcile(ctx, layer, applied)

	c.log.Debug("Mutation confirmed", "kind", string(op.Kind), "id", res.ID)
	c.finish(op.Kind, OutcomeConfirmed, start)
	return res, nil
}

// remote is the single suspension point of a mutation.
func (c *Coordinator[T, P]) remote(ctx context.Context, op Operation[T, P]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	switch op.Kind {
	case KindCreate:
		return c.store.Create(ctx, c.opts.OwnerID, op.Draft)
	case KindUpdate:
		return c.store.Update(ctx, c.opts.OwnerID, op.ID, op.Patch)
	default:
		return zero, c.store.Delete(ctx, c.opts.OwnerID, op.ID)
	}
}

// reconcile marks the key stale. In await mode it also refetches until the
// confirmed layer has been replaced by server data.
func (c *Coordinator[T, P]) reconcile(ctx context.Context, layer querycache.Layer, applied bool) {
	c.cache.Invalidate(c.key)
	if c.opts.Reconcile != ReconcileAwait {
		return
	}
	var err error
	if applied {
		_, err = c.cache.LoadAfter(ctx, layer)
	} else {
		_, err = c.cache.Load(ctx, c.key)
	}
	if err != nil {
		c.log.Warn("Refetch after mutation failed", "error", err)
	}
}

func (c *Coordinator[T, P]) finish(kind Kind, outcome Outcome, start time.Time) {
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveMutation(c.key, string(kind), string(outcome), time.Since(start))
	}
}

func (c *Coordinator[T, P]) wrap(op Operation[T, P], err error) error {
	return &Error{Key: c.key, Kind: op.Kind, ID: op.ID, Err: err}
}

// Prepend places item first. Used for collections listed newest first.
func Prepend[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

// InsertSorted returns an insert function that keeps items ordered by less.
func InsertSorted[T any](less func(a, b T) bool) func([]T, T) []T {
	return func(items []T, item T) []T {
		out := make([]T, 0, len(items)+1)
		placed := false
		for _, existing := range items {
			if !placed && less(item, existing) {
				out = append(out, item)
				placed = true
			}
			out = append(out, existing)
		}
		if !placed {
			out = append(out, item)
		}
		return out
	}
}

func replaceByID[T domain.Record[T]](items []T, id string, fn func(T) T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i, item := range out {
		if item.GetID() == id {
			out[i] = fn(item)
		}
	}
	return out
}

// reinsert removes the entity with id and places its patched value through
// the insert function.
func (c *Coordinator[T, P]) reinsert(items []T, id string, fn func(T) T) []T {
	for _, item := range items {
		if item.GetID() == id {
			return c.insert(removeByID(items, id), fn(item))
		}
	}
	return replaceByID(items, id, fn)
}

func removeByID[T domain.Record[T]](items []T, id string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.GetID() != id {
			out = append(out, item)
		}
	}
	return out
}

// Error is returned when a mutation is rejected or rolled back.
type Error struct {
	Key  string
	Kind Kind
	ID   string
	Err  error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Key, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the text shown inline next to the failed action.
func (e *Error) Message() string {
	return domain.UserMessage(e.Err)
}
