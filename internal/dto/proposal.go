package dto

import "github.com/noah-isme/campus-events-api/internal/models"

// ProposalFields carries the submitter-editable fields. Title precedes Date
// so validation reports them in that order.
type ProposalFields struct {
	Title       string `json:"title" validate:"notblank"`
	Date        string `json:"date" validate:"required,isodate"`
	Time        string `json:"time" validate:"max=120"`
	Location    string `json:"location" validate:"max=200"`
	Organizer   string `json:"organizer" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
	SubmittedBy string `json:"submittedBy" validate:"max=200"`
	SubmittedTo string `json:"submittedTo" validate:"max=200"`
}

// SubmitProposalRequest creates a new proposal.
type SubmitProposalRequest struct {
	ProposalFields
	Attachments []models.Attachment `json:"attachments" validate:"dive"`
	// IdempotencyKey deduplicates retried submissions; populated from the
	// Idempotency-Key header rather than the body.
	IdempotencyKey string `json:"-"`
}

// EditProposalRequest replaces the editable fields and appends attachments.
type EditProposalRequest struct {
	ProposalFields
	NewAttachments []models.Attachment `json:"newAttachments" validate:"dive"`
}

// DeclineProposalRequest carries the optional reviewer reason.
type DeclineProposalRequest struct {
	Reason string `json:"reason"`
}

// ProposalQuery describes list parameters accepted from query strings.
type ProposalQuery struct {
	Status   string `form:"status"`
	Search   string `form:"q"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// CalendarQuery bounds the calendar projection by inclusive dates.
type CalendarQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// ExportQuery selects the export format on top of the list filters.
type ExportQuery struct {
	ProposalQuery
	Format string `form:"format"`
}
