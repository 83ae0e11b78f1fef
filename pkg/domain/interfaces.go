package domain

import (
	"context"
	"time"
)

// Record is an entity stored in a collection. WithIdentity returns a copy
// carrying the given id, owner and creation time.
type Record[T any] interface {
	GetID() string
	WithIdentity(id, userID string, at time.Time) T
	Validate() error
}

// Patch is a partial update for T. Touch stamps server-maintained
// update timestamps where the entity has them.
type Patch[T any] interface {
	Apply(T) T
	Touch(T, time.Time) T
}

// Collection is the read/write surface of one owner-scoped entity collection.
type Collection[T Record[T], P Patch[T]] interface {
	List(ctx context.Context, ownerID string) ([]T, error)
	Create(ctx context.Context, ownerID string, draft T) (T, error)
	Update(ctx context.Context, ownerID, id string, patch P) (T, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// ListCache caches serialized collection listings per owner. Listings are
// keyed by a generation counter that every write bumps, so a listing read
// before a write can only ever be stored under a retired key.
type ListCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
	Generation(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}
