package store

import (
	stdsql "database/sql"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/phone"
)

// Collection names double as table names, cache keys and URL segments.
const (
	LeadsName      = "leads"
	DealsName      = "deals"
	ActivitiesName = "activities"
	EventsName     = "calendar-events"
)

type scanner interface {
	Scan(dest ...any) error
}

type column struct {
	name string
	typ  string
	null bool
}

// Entity describes how one entity type is stored and ordered.
type Entity[T any] struct {
	Name     string
	Table    string
	Singular string
	// OrderBy is the listing column; Desc flips it to newest first.
	OrderBy string
	Desc    bool
	// Less orders items the same way the SQL listing does.
	Less func(a, b T) bool
	// Prepare normalizes an entity before it is validated and written.
	Prepare func(T) T

	columns []column
	values  func(T) []any
	scan    func(scanner) (T, error)
}

func (e Entity[T]) columnNames() []string {
	names := make([]string, len(e.columns))
	for i, c := range e.columns {
		names[i] = c.name
	}
	return names
}

// createTable renders the CREATE TABLE statement for the entity in the
// given dialect. Every column is NOT NULL unless marked nullable.
func (e Entity[T]) createTable(dialect string) string {
	return sql.Dialect(dialect).String(func(b *sql.Builder) {
		b.WriteString("CREATE TABLE IF NOT EXISTS ").Ident(e.Table).Pad().Wrap(func(b *sql.Builder) {
			for i, c := range e.columns {
				if i > 0 {
					b.Comma()
				}
				b.Ident(c.name).Pad().WriteString(c.typ)
				if !c.null {
					b.WriteString(" NOT NULL")
				}
			}
			b.Comma().WriteString("PRIMARY KEY ").Wrap(func(b *sql.Builder) {
				b.Ident("id")
			})
		})
	})
}

func (e Entity[T]) prepare(v T) T {
	if e.Prepare == nil {
		return v
	}
	return e.Prepare(v)
}

func newestFirst(a, b time.Time) bool { return a.After(b) }

var idColumns = []column{
	{name: "id", typ: "varchar(64)"},
	{name: "user_id", typ: "varchar(64)"},
}

func withID(cols ...column) []column {
	return append(append([]column{}, idColumns...), cols...)
}

// Leads describes the leads collection.
var Leads = Entity[models.Lead]{
	Name:     LeadsName,
	Table:    "leads",
	Singular: "lead",
	OrderBy:  "created_at",
	Desc:     true,
	Less:     func(a, b models.Lead) bool { return newestFirst(a.CreatedAt, b.CreatedAt) },
	columns: withID(
		column{name: "first_name", typ: "text"},
		column{name: "last_name", typ: "text"},
		column{name: "email", typ: "text"},
		column{name: "phone", typ: "text"},
		column{name: "company", typ: "text"},
		column{name: "job_title", typ: "text"},
		column{name: "status", typ: "varchar(32)"},
		column{name: "source", typ: "text"},
		column{name: "estimated_value", typ: "double precision"},
		column{name: "notes", typ: "text"},
		column{name: "created_at", typ: "timestamp"},
		column{name: "updated_at", typ: "timestamp"},
	),
	values: func(l models.Lead) []any {
		return []any{l.ID, l.UserID, l.FirstName, l.LastName, l.Email, l.Phone, l.Company,
			l.JobTitle, string(l.Status), l.Source, l.EstimatedValue, l.Notes, l.CreatedAt.UTC(), l.UpdatedAt.UTC()}
	},
	scan: func(s scanner) (models.Lead, error) {
		var l models.Lead
		err := s.Scan(&l.ID, &l.UserID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.Company,
			&l.JobTitle, &l.Status, &l.Source, &l.EstimatedValue, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
		l.CreatedAt, l.UpdatedAt = l.CreatedAt.UTC(), l.UpdatedAt.UTC()
		return l, err
	},
}

// LeadsWithPhones is Leads with phone numbers normalized by n.
func LeadsWithPhones(n *phone.Normalizer) Entity[models.Lead] {
	e := Leads
	if n == nil {
		return e
	}
	e.Prepare = func(l models.Lead) models.Lead {
		if l.Phone != "" {
			l.Phone = n.Normalize(l.Phone)
		}
		return l
	}
	return e
}

// Deals describes the deals collection.
var Deals = Entity[models.Deal]{
	Name:     DealsName,
	Table:    "deals",
	Singular: "deal",
	OrderBy:  "created_at",
	Desc:     true,
	Less:     func(a, b models.Deal) bool { return newestFirst(a.CreatedAt, b.CreatedAt) },
	columns: withID(
		column{name: "lead_id", typ: "varchar(64)"},
		column{name: "title", typ: "text"},
		column{name: "value", typ: "double precision"},
		column{name: "stage", typ: "varchar(32)"},
		column{name: "expected_close_date", typ: "varchar(10)"},
		column{name: "notes", typ: "text"},
		column{name: "created_at", typ: "timestamp"},
		column{name: "updated_at", typ: "timestamp"},
	),
	values: func(d models.Deal) []any {
		return []any{d.ID, d.UserID, d.LeadID, d.Title, d.Value, string(d.Stage),
			d.ExpectedCloseDate, d.Notes, d.CreatedAt.UTC(), d.UpdatedAt.UTC()}
	},
	scan: func(s scanner) (models.Deal, error) {
		var d models.Deal
		err := s.Scan(&d.ID, &d.UserID, &d.LeadID, &d.Title, &d.Value, &d.Stage,
			&d.ExpectedCloseDate, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
		d.CreatedAt, d.UpdatedAt = d.CreatedAt.UTC(), d.UpdatedAt.UTC()
		return d, err
	},
}

// Activities describes the activity log.
var Activities = Entity[models.Activity]{
	Name:     ActivitiesName,
	Table:    "activities",
	Singular: "activity",
	OrderBy:  "created_at",
	Desc:     true,
	Less:     func(a, b models.Activity) bool { return newestFirst(a.CreatedAt, b.CreatedAt) },
	columns: withID(
		column{name: "lead_id", typ: "varchar(64)"},
		column{name: "type", typ: "varchar(32)"},
		column{name: "title", typ: "text"},
		column{name: "description", typ: "text"},
		column{name: "scheduled_at", typ: "timestamp", null: true},
		column{name: "completed", typ: "boolean"},
		column{name: "created_at", typ: "timestamp"},
	),
	values: func(a models.Activity) []any {
		var scheduled any
		if a.ScheduledAt != nil {
			scheduled = a.ScheduledAt.UTC()
		}
		return []any{a.ID, a.UserID, a.LeadID, string(a.Type), a.Title, a.Description,
			scheduled, a.Completed, a.CreatedAt.UTC()}
	},
	scan: func(s scanner) (models.Activity, error) {
		var a models.Activity
		var scheduled stdsql.NullTime
		err := s.Scan(&a.ID, &a.UserID, &a.LeadID, &a.Type, &a.Title, &a.Description,
			&scheduled, &a.Completed, &a.CreatedAt)
		if scheduled.Valid {
			at := scheduled.Time.UTC()
			a.ScheduledAt = &at
		}
		a.CreatedAt = a.CreatedAt.UTC()
		return a, err
	},
}

// Events describes the calendar. Events list in start order.
var Events = Entity[models.CalendarEvent]{
	Name:     EventsName,
	Table:    "calendar_events",
	Singular: "calendar event",
	OrderBy:  "start_time",
	Less:     func(a, b models.CalendarEvent) bool { return a.StartTime.Before(b.StartTime) },
	columns: withID(
		column{name: "lead_id", typ: "varchar(64)"},
		column{name: "title", typ: "text"},
		column{name: "description", typ: "text"},
		column{name: "start_time", typ: "timestamp"},
		column{name: "end_time", typ: "timestamp"},
		column{name: "event_type", typ: "varchar(32)"},
		column{name: "created_at", typ: "timestamp"},
	),
	values: func(e models.CalendarEvent) []any {
		return []any{e.ID, e.UserID, e.LeadID, e.Title, e.Description,
			e.StartTime.UTC(), e.EndTime.UTC(), string(e.EventType), e.CreatedAt.UTC()}
	},
	scan: func(s scanner) (models.CalendarEvent, error) {
		var e models.CalendarEvent
		err := s.Scan(&e.ID, &e.UserID, &e.LeadID, &e.Title, &e.Description,
			&e.StartTime, &e.EndTime, &e.EventType, &e.CreatedAt)
		e.StartTime, e.EndTime, e.CreatedAt = e.StartTime.UTC(), e.EndTime.UTC(), e.CreatedAt.UTC()
		return e, err
	},
}
