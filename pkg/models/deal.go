package models

import "time"

// DealStage is the pipeline column a deal sits in.
type DealStage string

const (
	DealStageProspect    DealStage = "prospect"
	DealStageQualified   DealStage = "qualified"
	DealStageProposal    DealStage = "proposal"
	DealStageNegotiation DealStage = "negotiation"
	DealStageWon         DealStage = "won"
	DealStageLost        DealStage = "lost"
)

// DealStages lists the pipeline columns left to right.
var DealStages = []DealStage{
	DealStageProspect,
	DealStageQualified,
	DealStageProposal,
	DealStageNegotiation,
	DealStageWon,
	DealStageLost,
}

// Valid reports whether s is a known stage.
func (s DealStage) Valid() bool {
	for _, st := range DealStages {
		if st == s {
			return true
		}
	}
	return false
}

// Deal is an opportunity moving through the pipeline.
// Stage is independent of the referenced lead's status.
type Deal struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	LeadID            string    `json:"lead_id"`
	Title             string    `json:"title" validate:"required,max=200"`
	Value             float64   `json:"value" validate:"gte=0"`
	Stage             DealStage `json:"stage" validate:"required,oneof=prospect qualified proposal negotiation won lost"`
	ExpectedCloseDate string    `json:"expected_close_date" validate:"omitempty,datetime=2006-01-02"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (d Deal) GetID() string { return d.ID }

// WithIdentity returns a copy stamped with id, owner and creation time.
func (d Deal) WithIdentity(id, userID string, at time.Time) Deal {
	d.ID = id
	d.UserID = userID
	d.CreatedAt = at
	d.UpdatedAt = at
	if d.Stage == "" {
		d.Stage = DealStageProspect
	}
	return d
}

func (d Deal) Validate() error {
	return validateStruct(d)
}

// DealPatch is a partial update for a deal.
type DealPatch struct {
	LeadID            *string    `json:"lead_id,omitempty"`
	Title             *string    `json:"title,omitempty"`
	Value             *float64   `json:"value,omitempty"`
	Stage             *DealStage `json:"stage,omitempty"`
	ExpectedCloseDate *string    `json:"expected_close_date,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// StagePatch builds the patch a pipeline drag produces.
func StagePatch(stage DealStage) DealPatch {
	return DealPatch{Stage: &stage}
}

func (p DealPatch) Apply(d Deal) Deal {
	setString(&d.LeadID, p.LeadID)
	setString(&d.Title, p.Title)
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
	setString(&d.ExpectedCloseDate, p.ExpectedCloseDate)
	setString(&d.Notes, p.Notes)
	return d
}

func (p DealPatch) Touch(d Deal, at time.Time) Deal {
	d.UpdatedAt = at
	return d
}
