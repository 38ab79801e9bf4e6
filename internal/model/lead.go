// internal/model/lead.go
package model

import "time"

type LeadStage string

const (
	StageNew                LeadStage = "New"
	StageNotContactable     LeadStage = "Not Contactable"
	StageContacted          LeadStage = "Contacted"
	StageMarketingQualified LeadStage = "Marketing Qualified"
	StageSalesQualified     LeadStage = "Sales Qualified"
	StageProspecting        LeadStage = "Prospecting"
	StageProposalSent       LeadStage = "Proposal Sent"
	StageNegotiating        LeadStage = "Negotiating"
	StageConverted          LeadStage = "Converted"
	StageLost               LeadStage = "Lost"
	StageNurturing          LeadStage = "Nurturing"
)

func ValidLeadStage(s LeadStage) bool {
	switch s {
	case StageNew, StageNotContactable, StageContacted, StageMarketingQualified,
		StageSalesQualified, StageProspecting, StageProposalSent,
		StageNegotiating, StageConverted, StageLost, StageNurturing:
		return true
	}
	return false
}

type Lead struct {
	ID         int        `db:"id" json:"id"`
	FirstName  *string    `db:"first_name" json:"first_name,omitempty"`
	LastName   *string    `db:"last_name" json:"last_name,omitempty"`
	Email      string     `db:"email" json:"email"`
	Mobile     *string    `db:"mobile" json:"mobile,omitempty"`
	Source     *string    `db:"source" json:"source,omitempty"`
	Stage      LeadStage  `db:"stage" json:"stage"`
	AssignedTo *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
