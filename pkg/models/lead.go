package models

import (
	"strings"
	"time"
)

// LeadStatus is the lifecycle position of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusProposal  LeadStatus = "proposal"
	LeadStatusWon       LeadStatus = "won"
	LeadStatusLost      LeadStatus = "lost"
)

// LeadStatuses lists every status in display order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusProposal,
	LeadStatusWon,
	LeadStatusLost,
}

// Lead is a sales prospect owned by a single user.
type Lead struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	FirstName      string     `json:"first_name" validate:"required,max=100"`
	LastName       string     `json:"last_name" validate:"max=100"`
	Email          string     `json:"email" validate:"omitempty,email"`
	Phone          string     `json:"phone" validate:"max=40"`
	Company        string     `json:"company" validate:"max=200"`
	JobTitle       string     `json:"job_title" validate:"max=200"`
	Status         LeadStatus `json:"status" validate:"required,oneof=new contacted qualified proposal won lost"`
	Source         string     `json:"source" validate:"max=100"`
	EstimatedValue float64    `json:"estimated_value" validate:"gte=0"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// GetID returns the lead identifier.
func (l Lead) GetID() string { return l.ID }

// WithIdentity returns a copy stamped with id, owner and creation time.
func (l Lead) WithIdentity(id, userID string, at time.Time) Lead {
	l.ID = id
	l.UserID = userID
	l.CreatedAt = at
	l.UpdatedAt = at
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	return l
}

// FullName joins first and last name.
func (l Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Validate checks the lead against its field constraints.
func (l Lead) Validate() error {
	return validateStruct(l)
}

// LeadPatch is a partial update for a lead. Nil fields are left untouched.
type LeadPatch struct {
	FirstName      *string     `json:"first_name,omitempty"`
	LastName       *string     `json:"last_name,omitempty"`
	Email          *string     `json:"email,omitempty"`
	Phone          *string     `json:"phone,omitempty"`
	Company        *string     `json:"company,omitempty"`
	JobTitle       *string     `json:"job_title,omitempty"`
	Status         *LeadStatus `json:"status,omitempty"`
	Source         *string     `json:"source,omitempty"`
	EstimatedValue *float64    `json:"estimated_value,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
}

// Apply merges the patch into l and returns the result.
func (p LeadPatch) Apply(l Lead) Lead {
	setString(&l.FirstName, p.FirstName)
	setString(&l.LastName, p.LastName)
	setString(&l.Email, p.Email)
	setString(&l.Phone, p.Phone)
	setString(&l.Company, p.Company)
	setString(&l.JobTitle, p.JobTitle)
	if p.Status != nil {
		l.Status = *p.Status
	}
	setString(&l.Source, p.Source)
	if p.EstimatedValue != nil {
		l.EstimatedValue = *p.EstimatedValue
	}
	setString(&l.Notes, p.Notes)
	return l
}

// Touch stamps the update time.
func (p LeadPatch) Touch(l Lead, at time.Time) Lead {
	l.UpdatedAt = at
	return l
}
