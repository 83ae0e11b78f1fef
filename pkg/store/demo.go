package store

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jordanlanch/salescrm/pkg/models"
)

// DemoUserID owns every record in demo mode.
const DemoUserID = "demo-user-001"

// Dataset is one owner's full set of records.
type Dataset struct {
	Leads      []models.Lead
	Deals      []models.Deal
	Activities []models.Activity
	Events     []models.CalendarEvent
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsPtr(s string) *time.Time {
	t := ts(s)
	return &t
}

// DemoData returns the fixed sample dataset demo mode starts from.
func DemoData() Dataset {
	return Dataset{
		Leads: []models.Lead{
			{ID: "lead-1", UserID: DemoUserID, FirstName: "Sarah", LastName: "Chen",
				Email: "sarah.chen@techcorp.io", Phone: "(555) 234-5678",
				Company: "TechCorp Solutions", JobTitle: "VP of Engineering",
				Status: models.LeadStatusQualified, Source: "LinkedIn", EstimatedValue: 85000,
				Notes:     "Interested in enterprise plan. Follow up next week.",
				CreatedAt: ts("2026-02-20T10:00:00Z"), UpdatedAt: ts("2026-02-24T15:00:00Z")},
			{ID: "lead-2", UserID: DemoUserID, FirstName: "Marcus", LastName: "Johnson",
				Email: "mjohnson@innovate.co", Phone: "(555) 876-5432",
				Company: "Innovate Co", JobTitle: "CEO",
				Status: models.LeadStatusProposal, Source: "Referral", EstimatedValue: 120000,
				Notes:     "Sent proposal on Feb 22. Awaiting feedback.",
				CreatedAt: ts("2026-02-18T09:00:00Z"), UpdatedAt: ts("2026-02-22T11:00:00Z")},
			{ID: "lead-3", UserID: DemoUserID, FirstName: "Emily", LastName: "Rodriguez",
				Email: "emily.r@globalfin.com", Phone: "(555) 345-6789",
				Company: "Global Finance Ltd", JobTitle: "Director of Operations",
				Status: models.LeadStatusNew, Source: "Website", EstimatedValue: 45000,
				Notes:     "Downloaded whitepaper. Cold outreach pending.",
				CreatedAt: ts("2026-02-24T14:00:00Z"), UpdatedAt: ts("2026-02-24T14:00:00Z")},
			{ID: "lead-4", UserID: DemoUserID, FirstName: "David", LastName: "Park",
				Email: "dpark@nexgen.io", Phone: "(555) 456-7890",
				Company: "NexGen Systems", JobTitle: "CTO",
				Status: models.LeadStatusContacted, Source: "Conference", EstimatedValue: 67000,
				Notes:     "Met at SaaS Summit. Very engaged.",
				CreatedAt: ts("2026-02-19T08:00:00Z"), UpdatedAt: ts("2026-02-23T10:00:00Z")},
			{ID: "lead-5", UserID: DemoUserID, FirstName: "Jessica", LastName: "Wang",
				Email: "jwang@brightpath.com", Phone: "(555) 567-8901",
				Company: "BrightPath Analytics", JobTitle: "Head of Product",
				Status: models.LeadStatusWon, Source: "Referral", EstimatedValue: 95000,
				Notes:     "Deal closed! Onboarding scheduled for March.",
				CreatedAt: ts("2026-02-10T09:00:00Z"), UpdatedAt: ts("2026-02-25T09:00:00Z")},
			{ID: "lead-6", UserID: DemoUserID, FirstName: "Alex", LastName: "Thompson",
				Email: "alex.t@cloudware.dev", Phone: "(555) 678-9012",
				Company: "Cloudware Dev", JobTitle: "Engineering Manager",
				Status: models.LeadStatusNew, Source: "Cold Email", EstimatedValue: 52000,
				Notes:     "Responded positively to initial outreach.",
				CreatedAt: ts("2026-02-25T08:00:00Z"), UpdatedAt: ts("2026-02-25T08:00:00Z")},
		},
		Deals: []models.Deal{
			{ID: "deal-1", UserID: DemoUserID, LeadID: "lead-1", Title: "TechCorp Enterprise License",
				Value: 85000, Stage: models.DealStageQualified, ExpectedCloseDate: "2026-03-15",
				Notes:     "Moving to proposal stage soon.",
				CreatedAt: ts("2026-02-20T10:00:00Z"), UpdatedAt: ts("2026-02-24T15:00:00Z")},
			{ID: "deal-2", UserID: DemoUserID, LeadID: "lead-2", Title: "Innovate Co Full Suite",
				Value: 120000, Stage: models.DealStageProposal, ExpectedCloseDate: "2026-03-01",
				Notes:     "Proposal sent, decision expected next week.",
				CreatedAt: ts("2026-02-18T09:00:00Z"), UpdatedAt: ts("2026-02-22T11:00:00Z")},
			{ID: "deal-3", UserID: DemoUserID, LeadID: "lead-4", Title: "NexGen Integration Package",
				Value: 67000, Stage: models.DealStageProspect, ExpectedCloseDate: "2026-04-01",
				Notes:     "Initial discovery call completed.",
				CreatedAt: ts("2026-02-19T08:00:00Z"), UpdatedAt: ts("2026-02-23T10:00:00Z")},
			{ID: "deal-4", UserID: DemoUserID, LeadID: "lead-5", Title: "BrightPath Analytics Deal",
				Value: 95000, Stage: models.DealStageWon, ExpectedCloseDate: "2026-02-25",
				Notes:     "Closed-won! Starting onboarding.",
				CreatedAt: ts("2026-02-10T09:00:00Z"), UpdatedAt: ts("2026-02-25T09:00:00Z")},
			{ID: "deal-5", UserID: DemoUserID, LeadID: "lead-3", Title: "Global Finance Starter",
				Value: 45000, Stage: models.DealStageProspect, ExpectedCloseDate: "2026-04-15",
				Notes:     "New lead, needs nurturing.",
				CreatedAt: ts("2026-02-24T14:00:00Z"), UpdatedAt: ts("2026-02-24T14:00:00Z")},
		},
		Activities: []models.Activity{
			{ID: "act-1", UserID: DemoUserID, LeadID: "lead-1", Type: models.ActivityCall,
				Title:       "Discovery Call with Sarah",
				Description: "Discussed their current tech stack and pain points. Very interested in our enterprise features.",
				ScheduledAt: tsPtr("2026-02-24T14:00:00Z"), Completed: true, CreatedAt: ts("2026-02-24T14:00:00Z")},
			{ID: "act-2", UserID: DemoUserID, LeadID: "lead-2", Type: models.ActivityEmail,
				Title:       "Sent Proposal to Marcus",
				Description: "Emailed the full proposal with pricing breakdown and implementation timeline.",
				ScheduledAt: tsPtr("2026-02-22T10:00:00Z"), Completed: true, CreatedAt: ts("2026-02-22T10:00:00Z")},
			{ID: "act-3", UserID: DemoUserID, LeadID: "lead-4", Type: models.ActivityMeeting,
				Title:       "Coffee with David Park",
				Description: "Informal meeting to discuss potential partnership opportunities.",
				ScheduledAt: tsPtr("2026-02-26T09:00:00Z"), CreatedAt: ts("2026-02-23T10:00:00Z")},
			{ID: "act-4", UserID: DemoUserID, LeadID: "lead-1", Type: models.ActivityTask,
				Title:       "Prepare demo for TechCorp",
				Description: "Create a customized demo highlighting enterprise features.",
				ScheduledAt: tsPtr("2026-02-27T11:00:00Z"), CreatedAt: ts("2026-02-24T16:00:00Z")},
			{ID: "act-5", UserID: DemoUserID, LeadID: "lead-3", Type: models.ActivityEmail,
				Title:       "Follow-up email to Emily",
				Description: "Send a personalized follow-up with case studies relevant to their industry.",
				ScheduledAt: tsPtr("2026-02-26T15:00:00Z"), CreatedAt: ts("2026-02-25T08:00:00Z")},
			{ID: "act-6", UserID: DemoUserID, LeadID: "lead-5", Type: models.ActivityCall,
				Title:       "Onboarding kickoff with Jessica",
				Description: "Schedule and prepare for the onboarding kickoff call.",
				ScheduledAt: tsPtr("2026-02-28T10:00:00Z"), CreatedAt: ts("2026-02-25T09:00:00Z")},
		},
		Events: []models.CalendarEvent{
			{ID: "evt-1", UserID: DemoUserID, LeadID: "lead-1", Title: "TechCorp Demo Presentation",
				Description: "Present customized demo of enterprise features.",
				StartTime:   ts("2026-02-27T14:00:00Z"), EndTime: ts("2026-02-27T15:30:00Z"),
				EventType: models.EventDemo, CreatedAt: ts("2026-02-24T16:00:00Z")},
			{ID: "evt-2", UserID: DemoUserID, LeadID: "lead-4", Title: "Coffee Meeting - David Park",
				Description: "Informal discussion about NexGen partnership.",
				StartTime:   ts("2026-02-26T09:00:00Z"), EndTime: ts("2026-02-26T10:00:00Z"),
				EventType: models.EventMeeting, CreatedAt: ts("2026-02-23T10:00:00Z")},
			{ID: "evt-3", UserID: DemoUserID, LeadID: "lead-2", Title: "Follow-up Call - Marcus",
				Description: "Follow up on the proposal sent last week.",
				StartTime:   ts("2026-02-28T11:00:00Z"), EndTime: ts("2026-02-28T11:30:00Z"),
				EventType: models.EventFollowUp, CreatedAt: ts("2026-02-22T11:00:00Z")},
			{ID: "evt-4", UserID: DemoUserID, LeadID: "lead-5", Title: "BrightPath Onboarding Kickoff",
				Description: "First onboarding session with the BrightPath team.",
				StartTime:   ts("2026-02-28T10:00:00Z"), EndTime: ts("2026-02-28T11:00:00Z"),
				EventType: models.EventMeeting, CreatedAt: ts("2026-02-25T09:00:00Z")},
			{ID: "evt-5", UserID: DemoUserID, Title: "Weekly Sales Review",
				Description: "Internal team meeting to review pipeline and forecasts.",
				StartTime:   ts("2026-03-03T15:00:00Z"), EndTime: ts("2026-03-03T16:00:00Z"),
				EventType: models.EventOther, CreatedAt: ts("2026-02-20T08:00:00Z")},
			{ID: "evt-6", UserID: DemoUserID, LeadID: "lead-6", Title: "Intro Call - Alex Thompson",
				Description: "Initial intro call with Cloudware Dev.",
				StartTime:   ts("2026-03-01T13:00:00Z"), EndTime: ts("2026-03-01T13:30:00Z"),
				EventType: models.EventCall, CreatedAt: ts("2026-02-25T10:00:00Z")},
		},
	}
}

// GeneratorConfig controls synthetic dataset generation.
type GeneratorConfig struct {
	Seed    int64
	OwnerID string
	Leads   int
	// Now anchors generated timestamps. Defaults to time.Now.
	Now time.Time
}

var leadSources = []string{"LinkedIn", "Referral", "Website", "Conference", "Cold Email", "Webinar"}

// Generate builds a random but reproducible dataset: one deal per lead,
// an activity and an event for every other lead.
func Generate(cfg GeneratorConfig) Dataset {
	faker := gofakeit.New(cfg.Seed)
	now := cfg.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if cfg.OwnerID == "" {
		cfg.OwnerID = DemoUserID
	}

	var ds Dataset
	for i := 0; i < cfg.Leads; i++ {
		created := now.Add(-time.Duration(faker.Number(1, 60*24)) * time.Minute * 30)
		value := float64(faker.Number(5, 150)) * 1000
		leadID := fmt.Sprintf("gen-lead-%d", i+1)

		ds.Leads = append(ds.Leads, models.Lead{
			ID:             leadID,
			UserID:         cfg.OwnerID,
			FirstName:      faker.FirstName(),
			LastName:       faker.LastName(),
			Email:          faker.Email(),
			Phone:          faker.Phone(),
			Company:        faker.Company(),
			JobTitle:       faker.JobTitle(),
			Status:         models.LeadStatuses[faker.Number(0, len(models.LeadStatuses)-1)],
			Source:         faker.RandomString(leadSources),
			EstimatedValue: value,
			Notes:          faker.Sentence(8),
			CreatedAt:      created,
			UpdatedAt:      created,
		})

		ds.Deals = append(ds.Deals, models.Deal{
			ID:                fmt.Sprintf("gen-deal-%d", i+1),
			UserID:            cfg.OwnerID,
			LeadID:            leadID,
			Title:             fmt.Sprintf("%s %s", faker.Company(), faker.BuzzWord()),
			Value:             value,
			Stage:             models.DealStages[faker.Number(0, len(models.DealStages)-1)],
			ExpectedCloseDate: created.AddDate(0, 0, faker.Number(14, 90)).Format("2006-01-02"),
			CreatedAt:         created,
			UpdatedAt:         created,
		})

		if i%2 != 0 {
			continue
		}
		scheduled := now.Add(time.Duration(faker.Number(-72, 72)) * time.Hour)
		ds.Activities = append(ds.Activities, models.Activity{
			ID:          fmt.Sprintf("gen-act-%d", i+1),
			UserID:      cfg.OwnerID,
			LeadID:      leadID,
			Type:        models.ActivityTypes[faker.Number(0, len(models.ActivityTypes)-1)],
			Title:       faker.HackerPhrase(),
			Description: faker.Sentence(12),
			ScheduledAt: &scheduled,
			Completed:   scheduled.Before(now) && faker.Bool(),
			CreatedAt:   created,
		})
		ds.Events = append(ds.Events, models.CalendarEvent{
			ID:        fmt.Sprintf("gen-evt-%d", i+1),
			UserID:    cfg.OwnerID,
			LeadID:    leadID,
			Title:     "Call with " + ds.Leads[i].FullName(),
			StartTime: scheduled,
			EndTime:   scheduled.Add(30 * time.Minute),
			EventType: models.EventCall,
			CreatedAt: created,
		})
	}
	return ds
}

// SeedCounts reports how many records Seed created.
type SeedCounts struct {
	Leads, Deals, Activities, Events int
}

// Seed writes ds into cols for ownerID. The store assigns fresh ids, so lead
// references in deals, activities and events are rewritten to the ids the
// store returned. Records pointing at a lead outside ds keep their reference.
func Seed(ctx context.Context, cols Collections, ownerID string, ds Dataset) (SeedCounts, error) {
	var n SeedCounts
	leadIDs := make(map[string]string, len(ds.Leads))
	remap := func(id string) string {
		if mapped, ok := leadIDs[id]; ok {
			return mapped
		}
		return id
	}

	for _, l := range ds.Leads {
		created, err := cols.Leads.Create(ctx, ownerID, l)
		if err != nil {
			return n, fmt.Errorf("failed to seed lead %s: %w", l.ID, err)
		}
		leadIDs[l.ID] = created.ID
		n.Leads++
	}
	for _, d := range ds.Deals {
		d.LeadID = remap(d.LeadID)
		if _, err := cols.Deals.Create(ctx, ownerID, d); err != nil {
			return n, fmt.Errorf("failed to seed deal %s: %w", d.ID, err)
		}
		n.Deals++
	}
	for _, a := range ds.Activities {
		a.LeadID = remap(a.LeadID)
		if _, err := cols.Activities.Create(ctx, ownerID, a); err != nil {
			return n, fmt.Errorf("failed to seed activity %s: %w", a.ID, err)
		}
		n.Activities++
	}
	for _, e := range ds.Events {
		e.LeadID = remap(e.LeadID)
		if _, err := cols.Events.Create(ctx, ownerID, e); err != nil {
			return n, fmt.Errorf("failed to seed event %s: %w", e.ID, err)
		}
		n.Events++
	}
	return n, nil
}
