package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the on-disk timestamp format for all entities.
const TimeLayout = time.RFC3339Nano

var ErrInvalidRecord = errors.New("model: invalid record")

// Entry is a single work session, running (EndTime == nil) or completed.
type Entry struct {
	ID              uuid.UUID  `json:"id"`
	TaskName        string     `json:"task_name"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Project         string     `json:"project,omitempty"`
	Category        string     `json:"category,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	ActiveProcess   string     `json:"active_process,omitempty"`
	ActiveWindow    string     `json:"active_window,omitempty"`
	IdleTimeSeconds int        `json:"idle_time_seconds,omitempty"`
	ManualEntry     bool       `json:"manual_entry,omitempty"`
	Edited          bool       `json:"edited,omitempty"`
	AutoTracked     bool       `json:"auto_tracked,omitempty"`
	RuleID          string     `json:"rule_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewEntry creates a running entry starting now.
func NewEntry(taskName string) Entry {
	now := time.Now()
	return Entry{
		ID:        uuid.New(),
		TaskName:  taskName,
		StartTime: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e Entry) Validate() error {
	if e.ID == uuid.Nil {
		return errors.New("model: entry id is required")
	}
	if strings.TrimSpace(e.TaskName) == "" {
		return errors.New("model: entry task_name is required")
	}
	if e.StartTime.IsZero() {
		return errors.New("model: entry start_time is required")
	}
	if e.IdleTimeSeconds < 0 {
		return errors.New("model: entry idle_time_seconds must not be negative")
	}
	return nil
}

// IsRunning reports whether the entry has no end time yet.
func (e Entry) IsRunning() bool {
	return e.EndTime == nil
}

// Duration returns the total session length. ok is false while the entry
// is still running.
func (e Entry) Duration() (time.Duration, bool) {
	if e.EndTime == nil {
		return 0, false
	}
	return e.EndTime.Sub(e.StartTime), true
}

// ActiveDuration returns the session length minus recorded idle time,
// floored at zero.
func (e Entry) ActiveDuration() (time.Duration, bool) {
	total, ok := e.Duration()
	if !ok {
		return 0, false
	}
	active := total - time.Duration(e.IdleTimeSeconds)*time.Second
	if active < 0 {
		active = 0
	}
	return active, true
}

// IdlePercent returns the idle share of the session as a percentage.
// ok is false for running or zero-length entries.
func (e Entry) IdlePercent() (float64, bool) {
	total, ok := e.Duration()
	if !ok || total <= 0 {
		return 0, false
	}
	return float64(e.IdleTimeSeconds) / total.Seconds() * 100, true
}

// EntryColumns is the header row of entries.csv. The duration_seconds
// column is derived on write and ignored on read; it exists so the raw
// file is usable in a spreadsheet.
var EntryColumns = []string{
	"id", "start_time", "end_time", "duration_seconds", "task_name",
	"project", "category", "tags", "notes", "active_process",
	"active_window", "idle_time_seconds", "manual_entry", "edited",
	"auto_tracked", "rule_id", "created_at", "updated_at",
}

// Record serializes the entry as one CSV row, ordered per EntryColumns.
func (e Entry) Record() []string {
	end := ""
	duration := ""
	if e.EndTime != nil {
		end = e.EndTime.Format(TimeLayout)
		seconds := int(e.EndTime.Sub(e.StartTime).Seconds())
		duration = strconv.Itoa(seconds)
	}
	return []string{
		e.ID.String(),
		e.StartTime.Format(TimeLayout),
		end,
		duration,
		e.TaskName,
		e.Project,
		e.Category,
		JoinTags(e.Tags),
		e.Notes,
		e.ActiveProcess,
		e.ActiveWindow,
		strconv.Itoa(e.IdleTimeSeconds),
		strconv.FormatBool(e.ManualEntry),
		strconv.FormatBool(e.Edited),
		strconv.FormatBool(e.AutoTracked),
		e.RuleID,
		e.CreatedAt.Format(TimeLayout),
		e.UpdatedAt.Format(TimeLayout),
	}
}

// EntryFromRecord is the strict inverse of Entry.Record.
func EntryFromRecord(record []string) (Entry, error) {
	if len(record) != len(EntryColumns) {
		return Entry{}, fmt.Errorf("%w: entry row has %d fields, want %d", ErrInvalidRecord, len(record), len(EntryColumns))
	}
	id, err := uuid.Parse(record[0])
	if err != nil {
		return Entry{}, fmt.Errorf("%w: entry id %q: %v", ErrInvalidRecord, record[0], err)
	}
	start, err := parseTime(record[1], "start_time")
	if err != nil {
		return Entry{}, err
	}
	end, err := parseOptionalTime(record[2], "end_time")
	if err != nil {
		return Entry{}, err
	}
	idleSeconds, err := parseOptionalInt(record[11], "idle_time_seconds")
	if err != nil {
		return Entry{}, err
	}
	manual, err := parseBool(record[12], "manual_entry")
	if err != nil {
		return Entry{}, err
	}
	edited, err := parseBool(record[13], "edited")
	if err != nil {
		return Entry{}, err
	}
	autoTracked, err := parseBool(record[14], "auto_tracked")
	if err != nil {
		return Entry{}, err
	}
	createdAt, err := parseTime(record[16], "created_at")
	if err != nil {
		return Entry{}, err
	}
	updatedAt, err := parseTime(record[17], "updated_at")
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:              id,
		StartTime:       start,
		EndTime:         end,
		TaskName:        record[4],
		Project:         record[5],
		Category:        record[6],
		Tags:            SplitTags(record[7]),
		Notes:           record[8],
		ActiveProcess:   record[9],
		ActiveWindow:    record[10],
		IdleTimeSeconds: idleSeconds,
		ManualEntry:     manual,
		Edited:          edited,
		AutoTracked:     autoTracked,
		RuleID:          record[15],
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// JoinTags serializes a tag list as a comma-joined string.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// SplitTags parses a comma-joined tag list, trimming whitespace and
// dropping empty elements. Returns nil for an empty input.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseTime(raw, field string) (time.Time, error) {
	value, err := time.Parse(TimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidRecord, field, raw, err)
	}
	return value, nil
}

func parseOptionalTime(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := parseTime(raw, field)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseOptionalInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidRecord, field, raw, err)
	}
	return value, nil
}

func parseBool(raw, field string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s %q: not a boolean", ErrInvalidRecord, field, raw)
	}
}
