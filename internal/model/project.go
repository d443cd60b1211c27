package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Project groups entries for reporting and billing. Rate and budget are
// decimal strings on disk; binary floats are never used for money.
type Project struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Client      string           `json:"client,omitempty"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate,omitempty"`
	BudgetHours *decimal.Decimal `json:"budget_hours,omitempty"`
	Active      bool             `json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
}

func NewProject(id, name string) Project {
	return Project{
		ID:        id,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("model: project id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("model: project name is required")
	}
	return nil
}

var ProjectColumns = []string{
	"id", "name", "description", "client", "hourly_rate", "budget_hours",
	"active", "created_at",
}

func (p Project) Record() []string {
	rate := ""
	if p.HourlyRate != nil {
		rate = p.HourlyRate.String()
	}
	budget := ""
	if p.BudgetHours != nil {
		budget = p.BudgetHours.String()
	}
	return []string{
		p.ID,
		p.Name,
		p.Description,
		p.Client,
		rate,
		budget,
		strconv.FormatBool(p.Active),
		p.CreatedAt.Format(TimeLayout),
	}
}

func ProjectFromRecord(record []string) (Project, error) {
	if len(record) != len(ProjectColumns) {
		return Project{}, fmt.Errorf("%w: project row has %d fields, want %d", ErrInvalidRecord, len(record), len(ProjectColumns))
	}
	rate, err := parseOptionalDecimal(record[4], "hourly_rate")
	if err != nil {
		return Project{}, err
	}
	budget, err := parseOptionalDecimal(record[5], "budget_hours")
	if err != nil {
		return Project{}, err
	}
	active, err := parseBool(record[6], "active")
	if err != nil {
		return Project{}, err
	}
	createdAt, err := parseTime(record[7], "created_at")
	if err != nil {
		return Project{}, err
	}
	return Project{
		ID:          record[0],
		Name:        record[1],
		Description: record[2],
		Client:      record[3],
		HourlyRate:  rate,
		BudgetHours: budget,
		Active:      active,
		CreatedAt:   createdAt,
	}, nil
}

func parseOptionalDecimal(raw, field string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidRecord, field, raw, err)
	}
	return &value, nil
}
