// Package tracker enforces the single-active-session invariant on top of
// the storage layer: across the whole entry collection at most one entry
// is running at any time.
//
// The check-then-act between reading the current entry and persisting a
// new one is not atomic across processes. Two processes racing to Start on
// an empty store can both succeed. For a single-user local tool this is an
// accepted limitation; see the design notes.
package tracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/storage"
)

var (
	ErrAlreadyTracking = errors.New("tracker: an entry is already running")
	ErrNotTracking     = errors.New("tracker: no entry is running")
	ErrInvalidRange    = errors.New("tracker: end time must be after start time")
)

// StartOptions carries the optional fields for a new session.
type StartOptions struct {
	Project  string
	Category string
	Tags     []string
	Notes    string
}

// EntryFilter selects entries for Entries. A positive Limit bounds how
// many of the most recent entries are loaded before the remaining filters
// apply, so a filtered query with a limit can return fewer than Limit
// matches even when more exist. This mirrors long-standing behavior;
// callers wanting "top N matching" should pass Limit 0 and truncate.
type EntryFilter struct {
	Limit     int
	Project   string
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
}

// EntryEdit holds partial updates for EditEntry; nil fields are left
// untouched.
type EntryEdit struct {
	TaskName  *string
	Project   *string
	Category  *string
	Tags      []string
	Notes     *string
	StartTime *time.Time
	EndTime   *time.Time
}

type Tracker struct {
	store *storage.Store
}

func New(store *storage.Store) *Tracker {
	return &Tracker{store: store}
}

// Start begins tracking a new task. It fails with ErrAlreadyTracking when
// an entry is already running.
func (t *Tracker) Start(taskName string, opts StartOptions) (model.Entry, error) {
	current, err := t.store.CurrentEntry()
	if err == nil {
		return model.Entry{}, fmt.Errorf("%w: %s", ErrAlreadyTracking, current.TaskName)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return model.Entry{}, err
	}

	entry := model.NewEntry(taskName)
	entry.Project = opts.Project
	entry.Category = opts.Category
	entry.Tags = opts.Tags
	entry.Notes = opts.Notes
	if err := t.store.SaveEntry(entry); err != nil {
		return model.Entry{}, err
	}
	return entry, nil
}

// Stop ends the running entry, overwriting its notes when notes is
// non-empty. It fails with ErrNotTracking when nothing is running; the
// already-stopped entry is never mutated by a second Stop.
func (t *Tracker) Stop(notes string) (model.Entry, error) {
	current, err := t.store.CurrentEntry()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Entry{}, ErrNotTracking
		}
		return model.Entry{}, err
	}

	now := time.Now()
	current.EndTime = &now
	if notes != "" {
		current.Notes = notes
	}
	current.UpdatedAt = now
	if err := t.store.SaveEntry(current); err != nil {
		return model.Entry{}, err
	}
	return current, nil
}

// TryStop is Stop for callers that treat "nothing running" as a normal
// outcome: it returns a nil entry instead of ErrNotTracking.
func (t *Tracker) TryStop(notes string) (*model.Entry, error) {
	stopped, err := t.Stop(notes)
	if err != nil {
		if errors.Is(err, ErrNotTracking) {
			return nil, nil
		}
		return nil, err
	}
	return &stopped, nil
}

// Switch stops the running entry, if any, then starts a new one. The
// returned stopped entry is nil when nothing was running.
func (t *Tracker) Switch(taskName string, opts StartOptions) (*model.Entry, model.Entry, error) {
	stopped, err := t.TryStop("")
	if err != nil {
		return nil, model.Entry{}, err
	}
	started, err := t.Start(taskName, opts)
	if err != nil {
		return stopped, model.Entry{}, err
	}
	return stopped, started, nil
}

// Status returns the running entry, or ErrNotTracking.
func (t *Tracker) Status() (model.Entry, error) {
	current, err := t.store.CurrentEntry()
	if errors.Is(err, storage.ErrNotFound) {
		return model.Entry{}, ErrNotTracking
	}
	return current, err
}

// CancelCurrent deletes the running entry outright. The entry is gone for
// good; there is no undo. Returns false when nothing is running.
func (t *Tracker) CancelCurrent() (bool, error) {
	current, err := t.store.CurrentEntry()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return t.store.DeleteEntry(current.ID.String())
}

// AddManualEntry records a completed session independent of the tracking
// state. It fails with ErrInvalidRange before any write when end is not
// after start.
func (t *Tracker) AddManualEntry(taskName string, start, end time.Time, opts StartOptions) (model.Entry, error) {
	if !end.After(start) {
		return model.Entry{}, ErrInvalidRange
	}
	entry := model.NewEntry(taskName)
	entry.StartTime = start
	entry.EndTime = &end
	entry.Project = opts.Project
	entry.Category = opts.Category
	entry.Tags = opts.Tags
	entry.Notes = opts.Notes
	entry.ManualEntry = true
	if err := t.store.SaveEntry(entry); err != nil {
		return model.Entry{}, err
	}
	return entry, nil
}

// EditEntry applies the provided fields to an existing entry, marks it
// edited, and persists. Fails with storage.ErrNotFound for an unknown id.
func (t *Tracker) EditEntry(id string, edit EntryEdit) (model.Entry, error) {
	entry, err := t.store.GetEntry(id)
	if err != nil {
		return model.Entry{}, err
	}

	if edit.TaskName != nil {
		entry.TaskName = *edit.TaskName
	}
	if edit.Project != nil {
		entry.Project = *edit.Project
	}
	if edit.Category != nil {
		entry.Category = *edit.Category
	}
	if edit.Tags != nil {
		entry.Tags = edit.Tags
	}
	if edit.Notes != nil {
		entry.Notes = *edit.Notes
	}
	if edit.StartTime != nil {
		entry.StartTime = *edit.StartTime
	}
	if edit.EndTime != nil {
		entry.EndTime = edit.EndTime
	}
	entry.Edited = true
	entry.UpdatedAt = time.Now()

	if err := t.store.SaveEntry(entry); err != nil {
		return model.Entry{}, err
	}
	return entry, nil
}

// Entries loads up to filter.Limit most-recent entries and then applies
// the project, category, and date filters in memory. Both date bounds are
// inclusive on the entry's start time.
func (t *Tracker) Entries(filter EntryFilter) ([]model.Entry, error) {
	entries, err := t.store.LoadEntries(filter.Limit)
	if err != nil {
		return nil, err
	}
	filtered := entries[:0]
	for _, entry := range entries {
		if filter.Project != "" && entry.Project != filter.Project {
			continue
		}
		if filter.Category != "" && entry.Category != filter.Category {
			continue
		}
		if filter.StartDate != nil && entry.StartTime.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && entry.StartTime.After(*filter.EndDate) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

// DeleteEntry removes an entry by id, reporting whether it existed.
func (t *Tracker) DeleteEntry(id string) (bool, error) {
	return t.store.DeleteEntry(id)
}
