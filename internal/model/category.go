package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Category labels entries for grouping. ParentCategory is informational
// only; no hierarchy is enforced.
type Category struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Color          string `json:"color,omitempty"`
	ParentCategory string `json:"parent_category,omitempty"`
	Billable       bool   `json:"billable"`
}

func NewCategory(id, name string) Category {
	return Category{ID: id, Name: name, Billable: true}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("model: category id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("model: category name is required")
	}
	return nil
}

var CategoryColumns = []string{"id", "name", "color", "parent_category", "billable"}

func (c Category) Record() []string {
	return []string{
		c.ID,
		c.Name,
		c.Color,
		c.ParentCategory,
		strconv.FormatBool(c.Billable),
	}
}

func CategoryFromRecord(record []string) (Category, error) {
	if len(record) != len(CategoryColumns) {
		return Category{}, fmt.Errorf("%w: category row has %d fields, want %d", ErrInvalidRecord, len(record), len(CategoryColumns))
	}
	billable, err := parseBool(record[4], "billable")
	if err != nil {
		return Category{}, err
	}
	return Category{
		ID:             record[0],
		Name:           record[1],
		Color:          record[2],
		ParentCategory: record[3],
		Billable:       billable,
	}, nil
}
