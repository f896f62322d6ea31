package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/export"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
	ExportFormatICS = "ics"
)

var proposalExportHeaders = []string{"ID", "Title", "Date", "Time", "Location", "Organizer", "Status", "Decline Reason", "Submitted By", "Attachments"}

type proposalViewer interface {
	View(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, error)
}

type datasetRenderer interface {
	ContentType() string
	Render(data export.Dataset) ([]byte, error)
}

type calendarRenderer interface {
	ContentType() string
	Render(entries []export.CalendarEntry) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders the proposal read view as CSV, PDF or iCalendar.
type ExportService struct {
	proposals proposalViewer
	csv       datasetRenderer
	pdf       datasetRenderer
	ics       calendarRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the pkg/export implementations.
func NewExportService(proposals proposalViewer, logger *zap.Logger, csv, pdf datasetRenderer, ics calendarRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ics == nil {
		ics = export.NewICSExporter()
	}
	return &ExportService{proposals: proposals, csv: csv, pdf: pdf, ics: ics, logger: logger, now: time.Now}
}

// Export renders the filtered read view in the requested format. The ics
// format carries active proposals only.
func (s *ExportService) Export(ctx context.Context, query dto.ExportQuery) (*ExportFile, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = ExportFormatCSV
	}
	switch format {
	case ExportFormatCSV, ExportFormatPDF, ExportFormatICS:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", query.Format)).WithDetail("field", "format")
	}

	filter, err := buildProposalFilter(query.ProposalQuery)
	if err != nil {
		return nil, err
	}
	items, err := s.proposals.View(ctx, filter)
	if err != nil {
		return nil, err
	}

	var (
		body        []byte
		contentType string
		rows        = len(items)
	)
	switch format {
	case ExportFormatICS:
		entries := s.calendarEntries(items)
		rows = len(entries)
		body, err = s.ics.Render(entries)
		contentType = s.ics.ContentType()
	case ExportFormatPDF:
		body, err = s.pdf.Render(buildProposalDataset(items))
		contentType = s.pdf.ContentType()
	default:
		body, err = s.csv.Render(buildProposalDataset(items))
		contentType = s.csv.ContentType()
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("proposals-%s.%s", s.now().UTC().Format("20060102-150405"), format)
	s.logger.Info("proposal export rendered", zap.String("format", format), zap.Int("rows", rows))
	return &ExportFile{Filename: filename, ContentType: contentType, Body: body, Rows: rows}, nil
}

func buildProposalDataset(items []models.Proposal) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, p := range items {
		names := make([]string, len(p.Attachments))
		for i, a := range p.Attachments {
			names[i] = a.Name
		}
		rows = append(rows, map[string]string{
			"ID":             strconv.FormatInt(p.ID, 10),
			"Title":          p.Title,
			"Date":           p.Date,
			"Time":           p.Time,
			"Location":       p.Location,
			"Organizer":      p.Organizer,
			"Status":         string(p.Status),
			"Decline Reason": p.DeclineReason,
			"Submitted By":   p.SubmittedBy,
			"Attachments":    strings.Join(names, "; "),
		})
	}
	return export.Dataset{Title: "Event Proposals", Headers: proposalExportHeaders, Rows: rows}
}

func (s *ExportService) calendarEntries(items []models.Proposal) []export.CalendarEntry {
	entries := make([]export.CalendarEntry, 0, len(items))
	for _, p := range items {
		if !p.Status.Active() {
			continue
		}
		date, err := p.EventDate()
		if err != nil {
			s.logger.Warn("skipping proposal with invalid date", zap.Int64("proposal_id", p.ID), zap.String("date", p.Date))
			continue
		}
		entries = append(entries, export.CalendarEntry{
			UID:         fmt.Sprintf("proposal-%d@campus-events", p.ID),
			Title:       p.Title,
			Date:        date,
			TimeLabel:   p.Time,
			Location:    p.Location,
			Organizer:   p.Organizer,
			Description: p.Description,
			Status:      string(p.Status),
		})
	}
	return entries
}
