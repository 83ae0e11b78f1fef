package models

import "time"

// EventType classifies a calendar event.
type EventType string

const (
	EventFollowUp   EventType = "follow_up"
	EventMeeting    EventType = "meeting"
	EventCall       EventType = "call"
	EventDemo       EventType = "demo"
	EventOther      EventType = "other"
	EventOnboarding EventType = "onboarding"
)

// CalendarEvent is a scheduled block on the calendar.
type CalendarEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	LeadID      string    `json:"lead_id,omitempty"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtefield=StartTime"`
	EventType   EventType `json:"event_type" validate:"required,oneof=follow_up meeting call demo other onboarding"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e CalendarEvent) GetID() string { return e.ID }

func (e CalendarEvent) WithIdentity(id, userID string, at time.Time) CalendarEvent {
	e.ID = id
	e.UserID = userID
	e.CreatedAt = at
	if e.EventType == "" {
		e.EventType = EventOther
	}
	return e
}

func (e CalendarEvent) Validate() error {
	return validateStruct(e)
}

// OnDay reports whether the event starts on the calendar day containing day.
func (e CalendarEvent) OnDay(day time.Time) bool {
	y1, m1, d1 := e.StartTime.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// EventPatch is a partial update for a calendar event.
type EventPatch struct {
	LeadID      *string    `json:"lead_id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	EventType   *EventType `json:"event_type,omitempty"`
}

func (p EventPatch) Apply(e CalendarEvent) CalendarEvent {
	setString(&e.LeadID, p.LeadID)
	setString(&e.Title, p.Title)
	setString(&e.Description, p.Description)
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.EventType != nil {
		e.EventType = *p.EventType
	}
	return e
}

func (p EventPatch) Touch(e CalendarEvent, _ time.Time) CalendarEvent { return e }
