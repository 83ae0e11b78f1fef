package store

import (
	"context"
	"sort"
	"sync"

	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/logger"
)

// MemoryCollection keeps one entity type in process memory. It backs demo
// mode and behaves like SQLCollection, including owner scoping.
type MemoryCollection[T domain.Record[T], P domain.Patch[T]] struct {
	mu     sync.RWMutex
	items  map[string][]T
	entity Entity[T]
	opts   Options
	logger logger.Logger
}

// NewMemory creates an empty in-memory collection.
func NewMemory[T domain.Record[T], P domain.Patch[T]](entity Entity[T], opts Options) *MemoryCollection[T, P] {
	opts = opts.withDefaults()
	return &MemoryCollection[T, P]{
		items:  make(map[string][]T),
		entity: entity,
		opts:   opts,
		logger: opts.Logger.With("component", "store", "collection", entity.Name, "mode", "memory"),
	}
}

// Reset replaces everything ownerID owns with items.
func (m *MemoryCollection[T, P]) Reset(ownerID string, items []T) {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return m.entity.Less(sorted[i], sorted[j]) })

	m.mu.Lock()
	m.items[ownerID] = sorted
	m.mu.Unlock()
}

// List returns a copy of ownerID's entities in listing order.
func (m *MemoryCollection[T, P]) List(_ context.Context, ownerID string) ([]T, error) {
	if ownerID == "" {
		return nil, domain.NewUnauthorizedError()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.items[ownerID]))
	copy(out, m.items[ownerID])
	return out, nil
}

// Create assigns an id and timestamps, validates and stores draft.
func (m *MemoryCollection[T, P]) Create(ctx context.Context, ownerID string, draft T) (T, error) {
	var zero T
	if ownerID == "" {
		return zero, domain.NewUnauthorizedError()
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	item := m.entity.prepare(draft.WithIdentity(m.opts.NewID(), ownerID, m.opts.Clock().UTC()))
	if err := item.Validate(); err != nil {
		return zero, domain.NewValidationError(err.Error())
	}

	m.mu.Lock()
	m.items[ownerID] = m.insert(m.items[ownerID], item)
	m.mu.Unlock()

	m.logger.Debug("Created record", "id", item.GetID(), "user_id", ownerID)
	return item, nil
}

// Update merges patch into the stored entity.
func (m *MemoryCollection[T, P]) Update(ctx context.Context, ownerID, id string, patch P) (T, error) {
	var zero T
	if ownerID == "" {
		return zero, domain.NewUnauthorizedError()
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[ownerID]
	for i, item := range items {
		if item.GetID() != id {
			continue
		}
		updated := m.entity.prepare(patch.Touch(patch.Apply(item), m.opts.Clock().UTC()))
		if err := updated.Validate(); err != nil {
			return zero, domain.NewValidationError(err.Error())
		}
		rest := make([]T, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		m.items[ownerID] = m.insert(rest, updated)
		return updated, nil
	}
	return zero, domain.NewNotFoundError(m.entity.Singular)
}

// Delete removes the entity.
func (m *MemoryCollection[T, P]) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.NewUnauthorizedError()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items[ownerID]
	for i, item := range items {
		if item.GetID() == id {
			rest := make([]T, 0, len(items)-1)
			rest = append(rest, items[:i]...)
			m.items[ownerID] = append(rest, items[i+1:]...)
			return nil
		}
	}
	return domain.NewNotFoundError(m.entity.Singular)
}

// insert places item after every existing entry that does not sort after it.
func (m *MemoryCollection[T, P]) insert(items []T, item T) []T {
	idx := sort.Search(len(items), func(i int) bool { return m.entity.Less(item, items[i]) })
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:idx]...)
	out = append(out, item)
	return append(out, items[idx:]...)
}
