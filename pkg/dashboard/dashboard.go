// Package dashboard computes the summary counters shown on the CRM
// dashboard from the four entity collections.
package dashboard

import (
	"time"

	"github.com/jordanlanch/salescrm/pkg/models"
)

// Week is the look-back window for the "this week" counters.
const Week = 7 * 24 * time.Hour

// Compute derives dashboard stats. Nil collections count as empty.
//
// Pipeline and won totals add lead estimated values on top of deal values,
// so a won lead with a won deal is counted twice.
func Compute(leads []models.Lead, deals []models.Deal, activities []models.Activity, events []models.CalendarEvent, now time.Time) models.DashboardStats {
	weekAgo := now.Add(-Week)
	stats := models.DashboardStats{
		TotalLeads: len(leads),
		TotalDeals: len(deals),
	}

	for _, l := range leads {
		if l.CreatedAt.After(weekAgo) {
			stats.NewLeadsThisWeek++
		}
		stats.TotalPipelineValue += l.EstimatedValue
		if l.Status == models.LeadStatusWon {
			stats.WonValue += l.EstimatedValue
		}
	}

	for _, d := range deals {
		stats.TotalPipelineValue += d.Value
		if d.Stage == models.DealStageWon {
			stats.WonDeals++
			stats.WonValue += d.Value
		}
	}

	for _, a := range activities {
		if a.CreatedAt.After(weekAgo) {
			stats.ActivitiesThisWeek++
		}
	}

	for _, e := range events {
		if e.StartTime.After(now) {
			stats.UpcomingEvents++
		}
	}

	return stats
}
