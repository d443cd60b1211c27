package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProcessRule maps a process-name pattern to the task that should be
// tracked while that process is in the foreground. Explicit rules are
// created by the user; learned rules are inferred from repeated behavior
// and carry a confidence score in [0, 1].
type ProcessRule struct {
	ID         string    `json:"id"`
	Pattern    string    `json:"pattern"`
	TaskName   string    `json:"task_name"`
	Project    string    `json:"project,omitempty"`
	Category   string    `json:"category,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Enabled    bool      `json:"enabled"`
	Learned    bool      `json:"learned"`
	Confidence float64   `json:"confidence"`
	MatchCount int       `json:"match_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewProcessRule(pattern, taskName string) ProcessRule {
	return ProcessRule{
		ID:         uuid.NewString(),
		Pattern:    pattern,
		TaskName:   taskName,
		Enabled:    true,
		Confidence: 1.0,
		CreatedAt:  time.Now(),
	}
}

func (r ProcessRule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: rule id is required")
	}
	if r.Pattern == "" {
		return errors.New("model: rule pattern is required")
	}
	if strings.TrimSpace(r.TaskName) == "" {
		return errors.New("model: rule task_name is required")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return errors.New("model: rule confidence must be in [0, 1]")
	}
	if r.MatchCount < 0 {
		return errors.New("model: rule match_count must not be negative")
	}
	return nil
}

// Matches reports whether the process name matches the rule's pattern,
// case-insensitively. A pattern that fails to compile never matches.
func (r ProcessRule) Matches(processName string) bool {
	re, err := regexp.Compile("(?i)" + r.Pattern)
	if err != nil {
		return false
	}
	return re.MatchString(processName)
}

var RuleColumns = []string{
	"id", "pattern", "task_name", "project", "category", "tags",
	"enabled", "learned", "confidence", "match_count", "created_at",
}

func (r ProcessRule) Record() []string {
	return []string{
		r.ID,
		r.Pattern,
		r.TaskName,
		r.Project,
		r.Category,
		JoinTags(r.Tags),
		strconv.FormatBool(r.Enabled),
		strconv.FormatBool(r.Learned),
		strconv.FormatFloat(r.Confidence, 'g', -1, 64),
		strconv.Itoa(r.MatchCount),
		r.CreatedAt.Format(TimeLayout),
	}
}

func RuleFromRecord(record []string) (ProcessRule, error) {
	if len(record) != len(RuleColumns) {
		return ProcessRule{}, fmt.Errorf("%w: rule row has %d fields, want %d", ErrInvalidRecord, len(record), len(RuleColumns))
	}
	enabled, err := parseBool(record[6], "enabled")
	if err != nil {
		return ProcessRule{}, err
	}
	learned, err := parseBool(record[7], "learned")
	if err != nil {
		return ProcessRule{}, err
	}
	confidence, err := strconv.ParseFloat(record[8], 64)
	if err != nil {
		return ProcessRule{}, fmt.Errorf("%w: confidence %q: %v", ErrInvalidRecord, record[8], err)
	}
	matchCount, err := parseOptionalInt(record[9], "match_count")
	if err != nil {
		return ProcessRule{}, err
	}
	createdAt, err := parseTime(record[10], "created_at")
	if err != nil {
		return ProcessRule{}, err
	}
	return ProcessRule{
		ID:         record[0],
		Pattern:    record[1],
		TaskName:   record[2],
		Project:    record[3],
		Category:   record[4],
		Tags:       SplitTags(record[5]),
		Enabled:    enabled,
		Learned:    learned,
		Confidence: confidence,
		MatchCount: matchCount,
		CreatedAt:  createdAt,
	}, nil
}
