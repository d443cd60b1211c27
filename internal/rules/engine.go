// Package rules matches detected process names against stored process
// rules and adapts learned rules from repeated behavior.
package rules

import (
	"sort"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/storage"
)

// Confidence mechanics for learned rules.
const (
	DefaultLearnConfidence = 0.8
	learnConfidenceStep    = 0.1
)

// Engine matches process names to rules. The enabled-rule cache is
// populated lazily on the first match and refreshed after every mutation.
type Engine struct {
	store *storage.Store
	cache []model.ProcessRule
	ready bool
}

func New(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// MatchProcess returns the best enabled rule for the process name, or
// (zero, false). Explicit rules always win, in storage order, regardless
// of any learned rule's confidence. Among learned rules the highest
// confidence wins, ties broken by highest match count.
func (e *Engine) MatchProcess(processName string) (model.ProcessRule, bool, error) {
	if processName == "" {
		return model.ProcessRule{}, false, nil
	}
	if !e.ready {
		if err := e.refresh(); err != nil {
			return model.ProcessRule{}, false, err
		}
	}

	var explicit, learned []model.ProcessRule
	for _, rule := range e.cache {
		if !rule.Matches(processName) {
			continue
		}
		if rule.Learned {
			learned = append(learned, rule)
		} else {
			explicit = append(explicit, rule)
		}
	}

	if len(explicit) > 0 {
		return explicit[0], true, nil
	}
	if len(learned) > 0 {
		sort.SliceStable(learned, func(i, j int) bool {
			if learned[i].Confidence != learned[j].Confidence {
				return learned[i].Confidence > learned[j].Confidence
			}
			return learned[i].MatchCount > learned[j].MatchCount
		})
		return learned[0], true, nil
	}
	return model.ProcessRule{}, false, nil
}

// LearnRule records that the user tracked taskName while processName was
// active. An existing learned rule whose pattern equals processName
// exactly is updated: its fields are replaced, its confidence raised by
// 0.1 capped at 1.0, and its match count incremented. Otherwise a new
// learned rule is created with the given confidence and a zero match
// count. Pass confidence <= 0 for the default.
func (e *Engine) LearnRule(processName, taskName string, project, category string, tags []string, confidence float64) (model.ProcessRule, error) {
	if confidence <= 0 {
		confidence = DefaultLearnConfidence
	}

	all, err := e.store.LoadRules(false)
	if err != nil {
		return model.ProcessRule{}, err
	}
	for _, rule := range all {
		if !rule.Learned || rule.Pattern != processName {
			continue
		}
		rule.TaskName = taskName
		rule.Project = project
		rule.Category = category
		rule.Tags = tags
		rule.Confidence = min(1.0, rule.Confidence+learnConfidenceStep)
		rule.MatchCount++
		if err := e.store.SaveRule(rule); err != nil {
			return model.ProcessRule{}, err
		}
		return rule, e.refresh()
	}

	rule := model.ProcessRule{
		ID:         model.NewProcessRule(processName, taskName).ID,
		Pattern:    processName,
		TaskName:   taskName,
		Project:    project,
		Category:   category,
		Tags:       tags,
		Enabled:    true,
		Learned:    true,
		Confidence: confidence,
		CreatedAt:  time.Now(),
	}
	if err := e.store.SaveRule(rule); err != nil {
		return model.ProcessRule{}, err
	}
	return rule, e.refresh()
}

// AddRule creates an explicit rule with full confidence. No duplicate
// check is performed.
func (e *Engine) AddRule(pattern, taskName string, project, category string, tags []string) (model.ProcessRule, error) {
	rule := model.NewProcessRule(pattern, taskName)
	rule.Project = project
	rule.Category = category
	rule.Tags = tags
	if err := e.store.SaveRule(rule); err != nil {
		return model.ProcessRule{}, err
	}
	return rule, e.refresh()
}

// RuleUpdate holds partial updates for UpdateRule; nil fields are left
// untouched. Changing a pattern does not reset the accrued match count.
type RuleUpdate struct {
	Pattern  *string
	TaskName *string
	Project  *string
	Category *string
	Tags     []string
	Enabled  *bool
}

// UpdateRule applies the provided fields to an existing rule. Fails with
// storage.ErrNotFound for an unknown id.
func (e *Engine) UpdateRule(id string, update RuleUpdate) (model.ProcessRule, error) {
	rule, err := e.store.GetRule(id)
	if err != nil {
		return model.ProcessRule{}, err
	}
	if update.Pattern != nil {
		rule.Pattern = *update.Pattern
	}
	if update.TaskName != nil {
		rule.TaskName = *update.TaskName
	}
	if update.Project != nil {
		rule.Project = *update.Project
	}
	if update.Category != nil {
		rule.Category = *update.Category
	}
	if update.Tags != nil {
		rule.Tags = update.Tags
	}
	if update.Enabled != nil {
		rule.Enabled = *update.Enabled
	}
	if err := e.store.SaveRule(rule); err != nil {
		return model.ProcessRule{}, err
	}
	return rule, e.refresh()
}

// DeleteRule removes a rule by id, reporting whether it existed.
func (e *Engine) DeleteRule(id string) (bool, error) {
	removed, err := e.store.DeleteRule(id)
	if err != nil {
		return false, err
	}
	if removed {
		if err := e.refresh(); err != nil {
			return true, err
		}
	}
	return removed, nil
}

// IncrementMatchCount bumps the rule's match count and persists it. Call
// this when a matched rule is actually applied to a process change.
func (e *Engine) IncrementMatchCount(rule model.ProcessRule) (model.ProcessRule, error) {
	rule.MatchCount++
	if err := e.store.SaveRule(rule); err != nil {
		return model.ProcessRule{}, err
	}
	return rule, e.refresh()
}

// Rules returns all rules, optionally only the enabled ones.
func (e *Engine) Rules(enabledOnly bool) ([]model.ProcessRule, error) {
	return e.store.LoadRules(enabledOnly)
}

func (e *Engine) refresh() error {
	enabled, err := e.store.LoadRules(true)
	if err != nil {
		return err
	}
	e.cache = enabled
	e.ready = true
	return nil
}
