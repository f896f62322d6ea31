package models

import (
	"fmt"
	"strings"
	"time"
)

// ProposalStatus captures workflow states for event proposals.
type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "Pending"
	ProposalStatusApproved ProposalStatus = "Approved"
	ProposalStatusDeclined ProposalStatus = "Declined"
)

// DefaultDeclineReason is recorded when a reviewer declines without a reason.
const DefaultDeclineReason = "No reason provided"

// DateLayout is the ISO-8601 calendar date format used for proposal dates.
const DateLayout = "2006-01-02"

// ParseProposalStatus resolves a case-insensitive status name.
func ParseProposalStatus(raw string) (ProposalStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return ProposalStatusPending, nil
	case "approved":
		return ProposalStatusApproved, nil
	case "declined":
		return ProposalStatusDeclined, nil
	default:
		return "", fmt.Errorf("unknown proposal status %q", raw)
	}
}

// Valid reports whether the status is one of the enumerated values.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusPending, ProposalStatusApproved, ProposalStatusDeclined:
		return true
	default:
		return false
	}
}

// Active reports whether a proposal in this status holds its date/time slot.
func (s ProposalStatus) Active() bool {
	return s == ProposalStatusPending || s == ProposalStatusApproved
}

// Attachment is file metadata captured alongside a proposal. File bytes are
// never stored.
type Attachment struct {
	Name     string `json:"name" yaml:"name" validate:"required,max=255"`
	MimeType string `json:"mimeType" yaml:"mimeType" validate:"max=255"`
}

// Proposal is an event submission tracked through review.
type Proposal struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Date          string         `json:"date"`
	Time          string         `json:"time"`
	Location      string         `json:"location"`
	Organizer     string         `json:"organizer"`
	Description   string         `json:"description"`
	Status        ProposalStatus `json:"status"`
	DeclineReason string         `json:"declineReason,omitempty"`
	Attachments   []Attachment   `json:"attachments"`
	SubmittedBy   string         `json:"submittedBy,omitempty"`
	SubmittedTo   string         `json:"submittedTo,omitempty"`
	SubmittedAt   time.Time      `json:"submittedAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	ReviewedBy    string         `json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewedAt,omitempty"`
}

// Clone returns a deep copy so callers never share slices or pointers with
// the store.
func (p Proposal) Clone() Proposal {
	out := p
	out.Attachments = make([]Attachment, len(p.Attachments))
	copy(out.Attachments, p.Attachments)
	if p.ReviewedAt != nil {
		ts := *p.ReviewedAt
		out.ReviewedAt = &ts
	}
	return out
}

// Slot returns the booking key used for conflict detection.
func (p Proposal) Slot() Slot {
	return Slot{Date: p.Date, Time: p.Time}
}

// EventDate parses the proposal date. Dates are validated on write so an
// error here indicates a corrupted record.
func (p Proposal) EventDate() (time.Time, error) {
	return time.Parse(DateLayout, p.Date)
}

// Slot identifies a booking by exact date and free-text time.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ProposalFilter narrows the read view.
type ProposalFilter struct {
	Status   *ProposalStatus
	Search   string
	Page     int
	PageSize int
}

// ProposalSummary backs the reviewer dashboard.
type ProposalSummary struct {
	Total       int                    `json:"total"`
	ByStatus    map[ProposalStatus]int `json:"byStatus"`
	Upcoming    []Proposal             `json:"upcoming"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// CalendarDay groups active proposals booked on a single date.
type CalendarDay struct {
	Date      string     `json:"date"`
	Proposals []Proposal `json:"proposals"`
}
