package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/salescrm/pkg/database"
)

type migration struct {
	table   string
	create  func(dialect string) string
	orderBy string
}

func migrations() []migration {
	return []migration{
		{Leads.Table, Leads.createTable, Leads.OrderBy},
		{Deals.Table, Deals.createTable, Deals.OrderBy},
		{Activities.Table, Activities.createTable, Activities.OrderBy},
		{Events.Table, Events.createTable, Events.OrderBy},
	}
}

// Migrate creates the CRM tables and their owner indexes when missing.
func Migrate(ctx context.Context, db *database.Client) error {
	for _, m := range migrations() {
		if _, err := db.DB.ExecContext(ctx, m.create(db.Dialect)); err != nil {
			return fmt.Errorf("failed creating table %s: %w", m.table, err)
		}

		index := sql.Dialect(db.Dialect).String(func(b *sql.Builder) {
			b.WriteString("CREATE INDEX IF NOT EXISTS ").Ident("idx_"+m.table+"_owner").
				WriteString(" ON ").Ident(m.table).Pad().
				Wrap(func(b *sql.Builder) { b.IdentComma("user_id", m.orderBy) })
		})
		if _, err := db.DB.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed creating index on %s: %w", m.table, err)
		}
	}
	return nil
}
