package storage

import (
	"fmt"
	"sort"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

// SaveEntry inserts the entry, or overwrites the stored row with the same
// id, and rewrites the file atomically.
func (s *Store) SaveEntry(entry model.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	return s.upsert(entriesFile, model.EntryColumns, entry.ID.String(), entry.Record())
}

// LoadEntries returns all entries sorted by start time, most recent
// first. A positive limit truncates the result after sorting. Any row
// that fails to parse fails the whole load; a malformed file is
// corruption the caller must know about.
func (s *Store) LoadEntries(limit int) ([]model.Entry, error) {
	rows, err := readCSV(s.path(entriesFile), model.EntryColumns)
	if err != nil {
		return nil, err
	}
	entries := make([]model.Entry, 0, len(rows))
	for i, row := range rows {
		entry, err := model.EntryFromRecord(row)
		if err != nil {
			return nil, fmt.Errorf("storage: %s row %d: %w", entriesFile, i+2, err)
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartTime.After(entries[j].StartTime)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// GetEntry returns the entry with the given id, or ErrNotFound.
func (s *Store) GetEntry(id string) (model.Entry, error) {
	entries, err := s.LoadEntries(0)
	if err != nil {
		return model.Entry{}, err
	}
	for _, entry := range entries {
		if entry.ID.String() == id {
			return entry, nil
		}
	}
	return model.Entry{}, ErrNotFound
}

// DeleteEntry removes the entry with the given id and reports whether a
// row was actually removed.
func (s *Store) DeleteEntry(id string) (bool, error) {
	return s.remove(entriesFile, model.EntryColumns, id)
}

// CurrentEntry returns the running entry (no end time), or ErrNotFound
// when nothing is being tracked. The tracker keeps at most one entry
// running; if the invariant is ever violated on disk, the most recently
// started running entry wins.
func (s *Store) CurrentEntry() (model.Entry, error) {
	entries, err := s.LoadEntries(0)
	if err != nil {
		return model.Entry{}, err
	}
	for _, entry := range entries {
		if entry.IsRunning() {
			return entry, nil
		}
	}
	return model.Entry{}, ErrNotFound
}

// upsert replaces the row whose first field equals id, or appends record,
// then rewrites the file.
func (s *Store) upsert(file string, columns []string, id string, record []string) error {
	path := s.path(file)
	rows, err := readCSV(path, columns)
	if err != nil {
		return err
	}
	found := false
	for i, row := range rows {
		if row[0] == id {
			rows[i] = record
			found = true
			break
		}
	}
	if !found {
		rows = append(rows, record)
	}
	return writeCSVAtomic(path, columns, rows)
}

// remove drops the row whose first field equals id and rewrites the file.
// Removing a missing id is not an error.
func (s *Store) remove(file string, columns []string, id string) (bool, error) {
	path := s.path(file)
	rows, err := readCSV(path, columns)
	if err != nil {
		return false, err
	}
	kept := rows[:0]
	for _, row := range rows {
		if row[0] != id {
			kept = append(kept, row)
		}
	}
	if len(kept) == len(rows) {
		return false, nil
	}
	if err := writeCSVAtomic(path, columns, kept); err != nil {
		return false, err
	}
	return true, nil
}
