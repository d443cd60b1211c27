package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
)

// writeCSVAtomic rewrites path with a header row plus records. The data is
// written to path+".tmp" under an exclusive advisory lock, synced, and
// renamed over path. On any failure the temp file is removed and the
// original file is left untouched.
func writeCSVAtomic(path string, columns []string, records [][]string) (err error) {
	tmpPath := path + ".tmp"

	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	// Truncate only after the lock is held so a concurrent writer cannot
	// clobber another writer's in-progress temp file.
	if err = lockExclusive(file); err != nil {
		return fmt.Errorf("storage: lock %s: %w", tmpPath, err)
	}
	if err = file.Truncate(0); err != nil {
		return fmt.Errorf("storage: truncate %s: %w", tmpPath, err)
	}

	writer := csv.NewWriter(file)
	if err = writer.Write(columns); err != nil {
		return fmt.Errorf("storage: write header: %w", err)
	}
	if err = writer.WriteAll(records); err != nil {
		return fmt.Errorf("storage: write rows: %w", err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("storage: sync %s: %w", tmpPath, err)
	}
	if err = unlock(file); err != nil {
		return fmt.Errorf("storage: unlock %s: %w", tmpPath, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("storage: rename %s: %w", tmpPath, err)
	}
	return nil
}

// readCSV loads all data rows of path under a shared advisory lock and
// verifies the header row matches columns. A missing file yields no rows.
func readCSV(path string, columns []string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer file.Close()

	if err := lockShared(file); err != nil {
		return nil, fmt.Errorf("storage: lock %s: %w", path, err)
	}
	defer unlock(file)

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(columns)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := checkHeader(rows[0], columns); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", path, err)
	}
	return rows[1:], nil
}

func checkHeader(header, columns []string) error {
	if len(header) != len(columns) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(columns))
	}
	for i, column := range columns {
		if header[i] != column {
			return fmt.Errorf("header column %d is %q, want %q", i, header[i], column)
		}
	}
	return nil
}
