package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

const icsProductID = "-//campus-events-api//proposals//EN"

// CalendarEntry is a single all-day booking rendered into a VEVENT.
type CalendarEntry struct {
	UID         string
	Title       string
	Date        time.Time
	TimeLabel   string
	Location    string
	Organizer   string
	Description string
	Status      string
}

// ICSExporter renders calendar entries as an iCalendar feed.
type ICSExporter struct {
	now func() time.Time
}

// NewICSExporter constructs an iCalendar exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{now: time.Now}
}

// ContentType is the media type of rendered output.
func (e *ICSExporter) ContentType() string {
	return "text/calendar; charset=utf-8"
}

// Render encodes the entries into a VCALENDAR document.
func (e *ICSExporter) Render(entries []CalendarEntry) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	stamp := e.now().UTC()
	for _, entry := range entries {
		if entry.UID == "" {
			return nil, fmt.Errorf("calendar entry %q has no uid", entry.Title)
		}
		cal.Children = append(cal.Children, toVEvent(entry, stamp))
	}

	buf := &bytes.Buffer{}
	if err := ical.NewEncoder(buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func toVEvent(entry CalendarEntry, stamp time.Time) *ical.Component {
	start := time.Date(entry.Date.Year(), entry.Date.Month(), entry.Date.Day(), 0, 0, 0, 0, time.UTC)

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, entry.UID)
	ve.Props.SetText(ical.PropSummary, entry.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetDateTime(ical.PropDateTimeStart, start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(24*time.Hour))

	if description := describe(entry); description != "" {
		ve.Props.SetText(ical.PropDescription, description)
	}
	if entry.Location != "" {
		ve.Props.SetText(ical.PropLocation, entry.Location)
	}
	switch entry.Status {
	case "Approved":
		ve.Props.SetText(ical.PropStatus, "CONFIRMED")
	case "Pending":
		ve.Props.SetText(ical.PropStatus, "TENTATIVE")
	}
	return ve
}

// describe folds the free-text time range and organizer into the event
// description; neither maps onto a structured iCalendar property.
func describe(entry CalendarEntry) string {
	var b strings.Builder
	if entry.TimeLabel != "" {
		fmt.Fprintf(&b, "Time: %s\n", entry.TimeLabel)
	}
	if entry.Organizer != "" {
		fmt.Fprintf(&b, "Organizer: %s\n", entry.Organizer)
	}
	if entry.Description != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(entry.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
