package store

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jordanlanch/salescrm/pkg/database"
	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/logger"
)

// Options configures store implementations.
type Options struct {
	Logger logger.Logger
	// Clock stamps created_at and updated_at. Defaults to time.Now.
	Clock func() time.Time
	// NewID generates primary keys. Defaults to random UUIDs.
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*stdsql.Rows, error)
}

// SQLCollection stores one entity type in a SQL table, scoped by owner.
type SQLCollection[T domain.Record[T], P domain.Patch[T]] struct {
	db     *database.Client
	entity Entity[T]
	opts   Options
	logger logger.Logger
}

// NewSQL creates a SQL-backed collection.
func NewSQL[T domain.Record[T], P domain.Patch[T]](db *database.Client, entity Entity[T], opts Options) *SQLCollection[T, P] {
	opts = opts.withDefaults()
	return &SQLCollection[T, P]{
		db:     db,
		entity: entity,
		opts:   opts,
		logger: opts.Logger.With("component", "store", "collection", entity.Name),
	}
}

func (s *SQLCollection[T, P]) builder() *sql.DialectBuilder {
	return sql.Dialect(s.db.Dialect)
}

func (s *SQLCollection[T, P]) order() string {
	if s.entity.Desc {
		return sql.Desc(s.entity.OrderBy)
	}
	return sql.Asc(s.entity.OrderBy)
}

// List returns every entity owned by ownerID in listing order.
func (s *SQLCollection[T, P]) List(ctx context.Context, ownerID string) ([]T, error) {
	if ownerID == "" {
		return nil, domain.NewUnauthorizedError()
	}

	b := s.builder()
	query, args := b.Select(s.entity.columnNames()...).
		From(b.Table(s.entity.Table)).
		Where(sql.EQ("user_id", ownerID)).
		OrderBy(s.order(), sql.Asc("id")).
		Query()

	items, err := s.query(ctx, s.db.DB, query, args)
	if err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("failed to list %s: %w", s.entity.Name, err))
	}
	return items, nil
}

// Create assigns an id and timestamps, validates and inserts draft.
func (s *SQLCollection[T, P]) Create(ctx context.Context, ownerID string, draft T) (T, error) {
	var zero T
	if ownerID == "" {
		return zero, domain.NewUnauthorizedError()
	}

	item := s.entity.prepare(draft.WithIdentity(s.opts.NewID(), ownerID, s.opts.Clock().UTC()))
	if err := item.Validate(); err != nil {
		return zero, domain.NewValidationError(err.Error())
	}

	query, args := s.builder().Insert(s.entity.Table).
		Columns(s.entity.columnNames()...).
		Values(s.entity.values(item)...).
		Query()
	if _, err := s.db.DB.ExecContext(ctx, query, args...); err != nil {
		return zero, domain.NewInternalError(fmt.Errorf("failed to create %s: %w", s.entity.Singular, err))
	}

	s.logger.Info("Created record", "id", item.GetID(), "user_id", ownerID)
	return item, nil
}

// Update merges patch into the stored entity and writes the result back.
func (s *SQLCollection[T, P]) Update(ctx context.Context, ownerID, id string, patch P) (T, error) {
	var zero T
	if ownerID == "" {
		return zero, domain.NewUnauthorizedError()
	}

	var updated T
	err := s.db.Tx(ctx, func(tx *stdsql.Tx) error {
		current, err := s.get(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}

		updated = s.entity.prepare(patch.Touch(patch.Apply(current), s.opts.Clock().UTC()))
		if err := updated.Validate(); err != nil {
			return domain.NewValidationError(err.Error())
		}

		names := s.entity.columnNames()
		values := s.entity.values(updated)
		upd := s.builder().Update(s.entity.Table)
		// Skip id and user_id.
		for i := 2; i < len(names); i++ {
			upd.Set(names[i], values[i])
		}
		query, args := upd.Where(s.owned(ownerID, id)).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return domain.NewInternalError(fmt.Errorf("failed to update %s: %w", s.entity.Singular, err))
		}
		return nil
	})
	if err != nil {
		return zero, err
	}

	s.logger.Info("Updated record", "id", id, "user_id", ownerID)
	return updated, nil
}

// Delete removes the entity. References to it elsewhere are left dangling.
func (s *SQLCollection[T, P]) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.NewUnauthorizedError()
	}

	query, args := s.builder().Delete(s.entity.Table).
		Where(s.owned(ownerID, id)).
		Query()
	res, err := s.db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.NewInternalError(fmt.Errorf("failed to delete %s: %w", s.entity.Singular, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewInternalError(fmt.Errorf("failed to delete %s: %w", s.entity.Singular, err))
	}
	if n == 0 {
		return domain.NewNotFoundError(s.entity.Singular)
	}

	s.logger.Info("Deleted record", "id", id, "user_id", ownerID)
	return nil
}

func (s *SQLCollection[T, P]) owned(ownerID, id string) *sql.Predicate {
	return sql.And(sql.EQ("id", id), sql.EQ("user_id", ownerID))
}

func (s *SQLCollection[T, P]) get(ctx context.Context, q queryer, ownerID, id string) (T, error) {
	var zero T
	b := s.builder()
	query, args := b.Select(s.entity.columnNames()...).
		From(b.Table(s.entity.Table)).
		Where(s.owned(ownerID, id)).
		Query()

	items, err := s.query(ctx, q, query, args)
	if err != nil {
		return zero, domain.NewInternalError(fmt.Errorf("failed to load %s: %w", s.entity.Singular, err))
	}
	if len(items) == 0 {
		return zero, domain.NewNotFoundError(s.entity.Singular)
	}
	return items[0], nil
}

func (s *SQLCollection[T, P]) query(ctx context.Context, q queryer, query string, args []any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := s.entity.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
