package storage

import (
	"fmt"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

func (s *Store) SaveCategory(category model.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	return s.upsert(categoriesFile, model.CategoryColumns, category.ID, category.Record())
}

func (s *Store) LoadCategories() ([]model.Category, error) {
	rows, err := readCSV(s.path(categoriesFile), model.CategoryColumns)
	if err != nil {
		return nil, err
	}
	categories := make([]model.Category, 0, len(rows))
	for i, row := range rows {
		category, err := model.CategoryFromRecord(row)
		if err != nil {
			return nil, fmt.Errorf("storage: %s row %d: %w", categoriesFile, i+2, err)
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (s *Store) GetCategory(id string) (model.Category, error) {
	categories, err := s.LoadCategories()
	if err != nil {
		return model.Category{}, err
	}
	for _, category := range categories {
		if category.ID == id {
			return category, nil
		}
	}
	return model.Category{}, ErrNotFound
}

func (s *Store) DeleteCategory(id string) (bool, error) {
	return s.remove(categoriesFile, model.CategoryColumns, id)
}
