package store

import (
	"github.com/jordanlanch/salescrm/pkg/database"
	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/phone"
)

type (
	LeadCollection     = domain.Collection[models.Lead, models.LeadPatch]
	DealCollection     = domain.Collection[models.Deal, models.DealPatch]
	ActivityCollection = domain.Collection[models.Activity, models.ActivityPatch]
	EventCollection    = domain.Collection[models.CalendarEvent, models.EventPatch]
)

// Collections groups the four entity collections of one store.
type Collections struct {
	Leads      LeadCollection
	Deals      DealCollection
	Activities ActivityCollection
	Events     EventCollection
}

// NewSQLCollections opens the four collections on db.
func NewSQLCollections(db *database.Client, phones *phone.Normalizer, opts Options) Collections {
	return Collections{
		Leads:      NewSQL[models.Lead, models.LeadPatch](db, LeadsWithPhones(phones), opts),
		Deals:      NewSQL[models.Deal, models.DealPatch](db, Deals, opts),
		Activities: NewSQL[models.Activity, models.ActivityPatch](db, Activities, opts),
		Events:     NewSQL[models.CalendarEvent, models.EventPatch](db, Events, opts),
	}
}

// Memory is the in-memory store used in demo mode.
type Memory struct {
	Leads      *MemoryCollection[models.Lead, models.LeadPatch]
	Deals      *MemoryCollection[models.Deal, models.DealPatch]
	Activities *MemoryCollection[models.Activity, models.ActivityPatch]
	Events     *MemoryCollection[models.CalendarEvent, models.EventPatch]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(phones *phone.Normalizer, opts Options) *Memory {
	return &Memory{
		Leads:      NewMemory[models.Lead, models.LeadPatch](LeadsWithPhones(phones), opts),
		Deals:      NewMemory[models.Deal, models.DealPatch](Deals, opts),
		Activities: NewMemory[models.Activity, models.ActivityPatch](Activities, opts),
		Events:     NewMemory[models.CalendarEvent, models.EventPatch](Events, opts),
	}
}

// Load replaces ownerID's records with ds.
func (m *Memory) Load(ownerID string, ds Dataset) {
	m.Leads.Reset(ownerID, ds.Leads)
	m.Deals.Reset(ownerID, ds.Deals)
	m.Activities.Reset(ownerID, ds.Activities)
	m.Events.Reset(ownerID, ds.Events)
}

// Collections exposes the store through the collection interfaces.
func (m *Memory) Collections() Collections {
	return Collections{
		Leads:      m.Leads,
		Deals:      m.Deals,
		Activities: m.Activities,
		Events:     m.Events,
	}
}
