package models

import "time"

// AuditAction constants represent lifecycle actions to be logged.
const (
	AuditActionProposalSubmit  = "PROPOSAL_SUBMIT"
	AuditActionProposalEdit    = "PROPOSAL_EDIT"
	AuditActionProposalApprove = "PROPOSAL_APPROVE"
	AuditActionProposalDecline = "PROPOSAL_DECLINE"
)

// AuditLog represents a proposal lifecycle audit record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Action     string    `db:"action" json:"action"`
	ProposalID int64     `db:"proposal_id" json:"proposal_id"`
	Actor      *string   `db:"actor" json:"actor,omitempty"`
	FromStatus *string   `db:"from_status" json:"from_status,omitempty"`
	ToStatus   string    `db:"to_status" json:"to_status"`
	Snapshot   []byte    `db:"snapshot" json:"snapshot,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
