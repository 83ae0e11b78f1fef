package workspace

import (
	"strings"
	"time"

	"github.com/jordanlanch/salescrm/pkg/models"
)

// NoLead labels activities and events without a (live) lead.
const NoLead = "No Lead"

// FilterLeads matches search case-insensitively against name, company and
// email. An empty status matches every status.
func (w *Workspace) FilterLeads(search string, status models.LeadStatus) []models.Lead {
	needle := strings.ToLower(search)
	var out []models.Lead
	for _, l := range w.Leads() {
		if status != "" && l.Status != status {
			continue
		}
		hay := strings.ToLower(l.FirstName + " " + l.LastName + " " + l.Company + " " + l.Email)
		if strings.Contains(hay, needle) {
			out = append(out, l)
		}
	}
	return out
}

// DoneFilter selects activities by completion.
type DoneFilter string

const (
	DoneAll       DoneFilter = "all"
	DonePending   DoneFilter = "pending"
	DoneCompleted DoneFilter = "completed"
)

// FilterActivities filters by type (empty matches all) and completion.
func (w *Workspace) FilterActivities(typ models.ActivityType, done DoneFilter) []models.Activity {
	var out []models.Activity
	for _, a := range w.Activities() {
		if typ != "" && a.Type != typ {
			continue
		}
		switch done {
		case DonePending:
			if a.Completed {
				continue
			}
		case DoneCompleted:
			if !a.Completed {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// PendingActivities returns up to n incomplete activities in listing order.
func (w *Workspace) PendingActivities(n int) []models.Activity {
	pending := w.FilterActivities("", DonePending)
	n = max(n, 0)
	if len(pending) > n {
		pending = pending[:n]
	}
	return pending
}

// EventsOn returns the events starting on day's calendar date in day's
// location.
func (w *Workspace) EventsOn(day time.Time) []models.CalendarEvent {
	var out []models.CalendarEvent
	for _, e := range w.Events() {
		if e.OnDay(day) {
			out = append(out, e)
		}
	}
	return out
}

// LeadLabel returns the full name of lead id, or fallback when the id is
// empty or refers to a lead that no longer exists.
func (w *Workspace) LeadLabel(id, fallback string) string {
	if id == "" {
		return fallback
	}
	for _, l := range w.Leads() {
		if l.ID == id {
			return l.FullName()
		}
	}
	return fallback
}
