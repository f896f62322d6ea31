package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/export"
)

type proposalViewerStub struct {
	items  []models.Proposal
	filter models.ProposalFilter
	err    error
}

func (s *proposalViewerStub) View(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, error) {
	s.filter = filter
	return s.items, s.err
}

type calendarRendererStub struct {
	entries []export.CalendarEntry
}

func (s *calendarRendererStub) ContentType() string { return "text/calendar" }

func (s *calendarRendererStub) Render(entries []export.CalendarEntry) ([]byte, error) {
	s.entries = entries
	return []byte("BEGIN:VCALENDAR"), nil
}

func exportFixtures() []models.Proposal {
	return []models.Proposal{
		{ID: 4, Title: "Cultural Night 2026", Date: "2026-03-15", Time: "06:00 PM - 10:00 PM", Status: models.ProposalStatusPending,
			Attachments: []models.Attachment{{Name: "program.pdf"}, {Name: "poster.png"}}},
		{ID: 5, Title: "Thesis Defense Schedule Release", Date: "2026-02-25", Status: models.ProposalStatusDeclined, DeclineReason: "Overlaps"},
		{ID: 1, Title: "College Foundation Week", Date: "2026-02-10", Status: models.ProposalStatusApproved},
	}
}

func TestExportServiceCSV(t *testing.T) {
	viewer := &proposalViewerStub{items: exportFixtures()}
	svc := NewExportService(viewer, zap.NewNop(), nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC) }

	file, err := svc.Export(context.Background(), dto.ExportQuery{ProposalQuery: dto.ProposalQuery{Status: "all", Search: "night"}})
	require.NoError(t, err)
	assert.Equal(t, "proposals-20260201-103000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, 3, file.Rows)
	assert.Equal(t, "night", viewer.filter.Search)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Title,Date"))
	assert.Contains(t, lines[1], "program.pdf; poster.png")
	assert.Contains(t, lines[2], "Overlaps")
}

func TestExportServicePDF(t *testing.T) {
	svc := NewExportService(&proposalViewerStub{items: exportFixtures()}, nil, nil, nil, nil)
	file, err := svc.Export(context.Background(), dto.ExportQuery{Format: "PDF"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(file.Body), "%PDF"))
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
}

func TestExportServiceICSActiveOnly(t *testing.T) {
	ics := &calendarRendererStub{}
	svc := NewExportService(&proposalViewerStub{items: exportFixtures()}, nil, nil, nil, ics)

	file, err := svc.Export(context.Background(), dto.ExportQuery{Format: "ics"})
	require.NoError(t, err)
	assert.Equal(t, 2, file.Rows)
	require.Len(t, ics.entries, 2)
	assert.Equal(t, "proposal-4@campus-events", ics.entries[0].UID)
	assert.Equal(t, "06:00 PM - 10:00 PM", ics.entries[0].TimeLabel)
	assert.Equal(t, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), ics.entries[1].Date)
}

func TestExportServiceICSRendersCalendar(t *testing.T) {
	svc := NewExportService(&proposalViewerStub{items: exportFixtures()}, nil, nil, nil, nil)
	file, err := svc.Export(context.Background(), dto.ExportQuery{Format: "ics"})
	require.NoError(t, err)
	body := string(file.Body)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:College Foundation Week")
	assert.NotContains(t, body, "Thesis Defense")
}

func TestExportServiceRejectsInput(t *testing.T) {
	svc := NewExportService(&proposalViewerStub{}, nil, nil, nil, nil)

	_, err := svc.Export(context.Background(), dto.ExportQuery{Format: "xlsx"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Export(context.Background(), dto.ExportQuery{ProposalQuery: dto.ProposalQuery{Status: "archived"}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
