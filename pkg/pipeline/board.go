// Package pipeline projects deals onto the kanban board and turns a card
// drop into a stage update.
package pipeline

import (
	"strings"

	"github.com/jordanlanch/salescrm/pkg/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownLead labels cards whose lead is missing or was deleted.
const UnknownLead = "Unknown"

// Stage is a board column definition.
type Stage struct {
	ID    models.DealStage
	Label string
}

// Stages lists the board columns left to right.
var Stages = stageList()

func stageList() []Stage {
	title := cases.Title(language.English)
	out := make([]Stage, len(models.DealStages))
	for i, s := range models.DealStages {
		out[i] = Stage{ID: s, Label: title.String(strings.ReplaceAll(string(s), "_", " "))}
	}
	return out
}

// Label returns the display label of stage, or "" if unknown.
func Label(stage models.DealStage) string {
	for _, s := range Stages {
		if s.ID == stage {
			return s.Label
		}
	}
	return ""
}

// Card is one deal on the board.
type Card struct {
	Deal      models.Deal
	LeadLabel string
}

// Column holds the cards of one stage.
type Column struct {
	Stage
	Cards []Card
	Value float64
}

// Count is the number of cards in the column.
func (c Column) Count() int { return len(c.Cards) }

// Board is the full kanban projection.
type Board struct {
	Columns []Column
}

// Column returns the column for stage.
func (b Board) Column(stage models.DealStage) (Column, bool) {
	for _, c := range b.Columns {
		if c.ID == stage {
			return c, true
		}
	}
	return Column{}, false
}

// Build groups deals by stage, keeping their input order inside a column.
// Deals with an unrecognised stage are left off the board.
func Build(deals []models.Deal, leads []models.Lead) Board {
	names := make(map[string]string, len(leads))
	for _, l := range leads {
		names[l.ID] = l.FullName()
	}

	board := Board{Columns: make([]Column, len(Stages))}
	index := make(map[models.DealStage]int, len(Stages))
	for i, s := range Stages {
		board.Columns[i] = Column{Stage: s, Cards: []Card{}}
		index[s.ID] = i
	}

	for _, d := range deals {
		i, ok := index[d.Stage]
		if !ok {
			continue
		}
		label, ok := names[d.LeadID]
		if !ok || label == "" {
			label = UnknownLead
		}
		col := &board.Columns[i]
		col.Cards = append(col.Cards, Card{Deal: d, LeadLabel: label})
		col.Value += d.Value
	}

	return board
}
