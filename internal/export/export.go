// Package export renders entries to interchange formats. JSON is
// lossless and round-trips through Import; Markdown and iCalendar are
// one-way.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

// Exporter writes a set of entries to w in one output format.
type Exporter interface {
	Export(w io.Writer, entries []model.Entry) error
	Extension() string
}

// ByFormat returns the exporter for a format name.
func ByFormat(format string) (Exporter, error) {
	switch format {
	case "json":
		return JSONExporter{}, nil
	case "markdown", "md":
		return MarkdownExporter{}, nil
	case "ical", "ics":
		return ICalExporter{}, nil
	default:
		return nil, fmt.Errorf("export: unknown format %q", format)
	}
}

// FilterRange keeps entries whose start time falls inside the inclusive
// date range. A nil bound leaves that side open.
func FilterRange(entries []model.Entry, start, end *time.Time) []model.Entry {
	if start == nil && end == nil {
		return entries
	}
	var kept []model.Entry
	for _, entry := range entries {
		if start != nil && entry.StartTime.Before(*start) {
			continue
		}
		if end != nil && entry.StartTime.After(*end) {
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}
