package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/report"
)

const icalTimeLayout = "20060102T150405Z"

// ICalExporter writes completed entries as VEVENTs. Running entries
// have no end time and are skipped.
type ICalExporter struct{}

func (ICalExporter) Extension() string { return ".ics" }

func (ICalExporter) Export(w io.Writer, entries []model.Entry) error {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//timeaudit//Time Tracking//EN",
		"X-WR-CALNAME:timeaudit",
		"X-WR-TIMEZONE:UTC",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	stamp := time.Now().UTC().Format(icalTimeLayout)
	for _, entry := range entries {
		if entry.IsRunning() {
			continue
		}
		lines = append(lines, eventLines(entry, stamp)...)
	}
	lines = append(lines, "END:VCALENDAR")

	if _, err := io.WriteString(w, strings.Join(lines, "\r\n")+"\r\n"); err != nil {
		return fmt.Errorf("export: write ical: %w", err)
	}
	return nil
}

func eventLines(entry model.Entry, stamp string) []string {
	lines := []string{
		"BEGIN:VEVENT",
		"UID:" + entry.ID.String() + "@timeaudit",
		"DTSTAMP:" + stamp,
		"DTSTART:" + entry.StartTime.UTC().Format(icalTimeLayout),
		"DTEND:" + entry.EndTime.UTC().Format(icalTimeLayout),
		"SUMMARY:" + escapeText(entry.TaskName),
	}

	var desc []string
	if entry.Project != "" {
		desc = append(desc, "Project: "+entry.Project)
	}
	if entry.Category != "" {
		desc = append(desc, "Category: "+entry.Category)
	}
	if len(entry.Tags) > 0 {
		desc = append(desc, "Tags: "+strings.Join(entry.Tags, ", "))
	}
	if duration, ok := entry.Duration(); ok {
		desc = append(desc, "Duration: "+report.FormatDuration(duration))
	}
	if entry.Notes != "" {
		desc = append(desc, "Notes: "+entry.Notes)
	}
	if len(desc) > 0 {
		lines = append(lines, "DESCRIPTION:"+escapeText(strings.Join(desc, "\n")))
	}
	if entry.Category != "" {
		lines = append(lines, "CATEGORIES:"+escapeText(entry.Category))
	}
	lines = append(lines, "STATUS:CONFIRMED", "END:VEVENT")
	return lines
}

// escapeText escapes TEXT values per RFC 5545 section 3.3.11.
func escapeText(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, ",", `\,`)
	text = strings.ReplaceAll(text, ";", `\;`)
	text = strings.ReplaceAll(text, "\n", `\n`)
	return text
}
