package models

import "time"

// ActivityType classifies an activity log entry.
type ActivityType string

const (
	ActivityCall       ActivityType = "call"
	ActivityEmail      ActivityType = "email"
	ActivityMeeting    ActivityType = "meeting"
	ActivityNote       ActivityType = "note"
	ActivityTask       ActivityType = "task"
	ActivityOnboarding ActivityType = "onboarding"
)

// ActivityTypes lists every activity type.
var ActivityTypes = []ActivityType{
	ActivityCall,
	ActivityEmail,
	ActivityMeeting,
	ActivityNote,
	ActivityTask,
	ActivityOnboarding,
}

// Activity is an entry in the activity log. Completion toggles
// independently of scheduling.
type Activity struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	LeadID      string       `json:"lead_id,omitempty"`
	Type        ActivityType `json:"type" validate:"required,oneof=call email meeting note task onboarding"`
	Title       string       `json:"title" validate:"required,max=200"`
	Description string       `json:"description"`
	ScheduledAt *time.Time   `json:"scheduled_at"`
	Completed   bool         `json:"completed"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (a Activity) GetID() string { return a.ID }

func (a Activity) WithIdentity(id, userID string, at time.Time) Activity {
	a.ID = id
	a.UserID = userID
	a.CreatedAt = at
	return a
}

func (a Activity) Validate() error {
	return validateStruct(a)
}

// Overdue reports whether a scheduled, incomplete activity is past due at now.
func (a Activity) Overdue(now time.Time) bool {
	return !a.Completed && a.ScheduledAt != nil && a.ScheduledAt.Before(now)
}

// ActivityPatch is a partial update for an activity.
// ClearSchedule removes ScheduledAt, since a nil pointer means "unchanged".
type ActivityPatch struct {
	LeadID        *string       `json:"lead_id,omitempty"`
	Type          *ActivityType `json:"type,omitempty"`
	Title         *string       `json:"title,omitempty"`
	Description   *string       `json:"description,omitempty"`
	ScheduledAt   *time.Time    `json:"scheduled_at,omitempty"`
	ClearSchedule bool          `json:"clear_schedule,omitempty"`
	Completed     *bool         `json:"completed,omitempty"`
}

// CompletionPatch builds the patch for the completion toggle.
func CompletionPatch(done bool) ActivityPatch {
	return ActivityPatch{Completed: &done}
}

func (p ActivityPatch) Apply(a Activity) Activity {
	setString(&a.LeadID, p.LeadID)
	if p.Type != nil {
		a.Type = *p.Type
	}
	setString(&a.Title, p.Title)
	setString(&a.Description, p.Description)
	if p.ClearSchedule {
		a.ScheduledAt = nil
	} else if p.ScheduledAt != nil {
		at := *p.ScheduledAt
		a.ScheduledAt = &at
	}
	if p.Completed != nil {
		a.Completed = *p.Completed
	}
	return a
}

// Touch is a no-op: activities carry no update timestamp.
func (p ActivityPatch) Touch(a Activity, _ time.Time) Activity { return a }
