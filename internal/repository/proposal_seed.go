package repository

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/campus-events-api/internal/models"
)

//go:embed seed/proposals.yaml
var defaultSeed []byte

type seedFile struct {
	Proposals []seedProposal `yaml:"proposals"`
}

type seedProposal struct {
	ID            int64               `yaml:"id"`
	Title         string              `yaml:"title"`
	Date          string              `yaml:"date"`
	Time          string              `yaml:"time"`
	Location      string              `yaml:"location"`
	Organizer     string              `yaml:"organizer"`
	Description   string              `yaml:"description"`
	Status        string              `yaml:"status"`
	DeclineReason string              `yaml:"declineReason"`
	Attachments   []models.Attachment `yaml:"attachments"`
	SubmittedBy   string              `yaml:"submittedBy"`
	SubmittedTo   string              `yaml:"submittedTo"`
	SubmittedAt   string              `yaml:"submittedAt"`
}

// LoadProposalSeed reads fixtures from path, or the bundled fixtures when
// path is empty.
func LoadProposalSeed(path, defaultSubmittedTo string) ([]models.Proposal, error) {
	raw := defaultSeed
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read proposal seed %s: %w", path, err)
		}
		raw = data
	}
	return ParseProposalSeed(raw, defaultSubmittedTo)
}

// ParseProposalSeed decodes YAML fixtures and checks them against the same
// invariants the service enforces on live writes.
func ParseProposalSeed(raw []byte, defaultSubmittedTo string) ([]models.Proposal, error) {
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode proposal seed: %w", err)
	}

	var maxID int64
	for _, rec := range file.Proposals {
		if rec.ID > maxID {
			maxID = rec.ID
		}
	}

	seen := make(map[int64]struct{}, len(file.Proposals))
	booked := make(map[models.Slot]int64, len(file.Proposals))
	out := make([]models.Proposal, 0, len(file.Proposals))
	for i, rec := range file.Proposals {
		proposal, err := rec.toModel(defaultSubmittedTo)
		if err != nil {
			return nil, fmt.Errorf("seed proposal #%d: %w", i+1, err)
		}
		if proposal.ID <= 0 {
			maxID++
			proposal.ID = maxID
		}
		if _, dup := seen[proposal.ID]; dup {
			return nil, fmt.Errorf("seed proposal #%d: duplicate id %d", i+1, proposal.ID)
		}
		seen[proposal.ID] = struct{}{}
		if proposal.Status.Active() {
			if other, clash := booked[proposal.Slot()]; clash {
				return nil, fmt.Errorf("seed proposal #%d: slot %s %q already booked by %d", i+1, proposal.Date, proposal.Time, other)
			}
			booked[proposal.Slot()] = proposal.ID
		}
		out = append(out, proposal)
	}
	return out, nil
}

func (s seedProposal) toModel(defaultSubmittedTo string) (models.Proposal, error) {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		return models.Proposal{}, fmt.Errorf("title is required")
	}
	if _, err := time.Parse(models.DateLayout, s.Date); err != nil {
		return models.Proposal{}, fmt.Errorf("invalid date %q", s.Date)
	}
	status := models.ProposalStatusPending
	if strings.TrimSpace(s.Status) != "" {
		parsed, err := models.ParseProposalStatus(s.Status)
		if err != nil {
			return models.Proposal{}, err
		}
		status = parsed
	}

	submittedAt := time.Now().UTC()
	if s.SubmittedAt != "" {
		parsed, err := time.Parse(models.DateLayout, s.SubmittedAt)
		if err != nil {
			return models.Proposal{}, fmt.Errorf("invalid submittedAt %q", s.SubmittedAt)
		}
		submittedAt = parsed
	}

	submittedTo := strings.TrimSpace(s.SubmittedTo)
	if submittedTo == "" {
		submittedTo = defaultSubmittedTo
	}

	proposal := models.Proposal{
		ID:          s.ID,
		Title:       title,
		Date:        s.Date,
		Time:        s.Time,
		Location:    s.Location,
		Organizer:   s.Organizer,
		Description: s.Description,
		Status:      status,
		Attachments: append([]models.Attachment{}, s.Attachments...),
		SubmittedBy: s.SubmittedBy,
		SubmittedTo: submittedTo,
		SubmittedAt: submittedAt,
		UpdatedAt:   submittedAt,
	}
	if status == models.ProposalStatusDeclined {
		proposal.DeclineReason = strings.TrimSpace(s.DeclineReason)
		if proposal.DeclineReason == "" {
			proposal.DeclineReason = models.DefaultDeclineReason
		}
	}
	return proposal, nil
}
