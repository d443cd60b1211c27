package storage

import (
	"fmt"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

func (s *Store) SaveRule(rule model.ProcessRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	return s.upsert(rulesFile, model.RuleColumns, rule.ID, rule.Record())
}

// LoadRules returns rules in storage order. With enabledOnly set,
// disabled rules are filtered out.
func (s *Store) LoadRules(enabledOnly bool) ([]model.ProcessRule, error) {
	rows, err := readCSV(s.path(rulesFile), model.RuleColumns)
	if err != nil {
		return nil, err
	}
	rules := make([]model.ProcessRule, 0, len(rows))
	for i, row := range rows {
		rule, err := model.RuleFromRecord(row)
		if err != nil {
			return nil, fmt.Errorf("storage: %s row %d: %w", rulesFile, i+2, err)
		}
		if enabledOnly && !rule.Enabled {
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (s *Store) GetRule(id string) (model.ProcessRule, error) {
	rules, err := s.LoadRules(false)
	if err != nil {
		return model.ProcessRule{}, err
	}
	for _, rule := range rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return model.ProcessRule{}, ErrNotFound
}

func (s *Store) DeleteRule(id string) (bool, error) {
	return s.remove(rulesFile, model.RuleColumns, id)
}
