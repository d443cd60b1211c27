// Package storage persists the four entity collections (entries, projects,
// categories, process rules) as flat CSV files with a fixed header row.
//
// Every write rewrites the whole file: the new contents go to a temp file
// in the same directory under an exclusive advisory lock, are synced, and
// then atomically renamed over the original. Readers take a shared lock on
// the real file. A reader may observe old or new state, never a torn file.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

const (
	entriesFile    = "entries.csv"
	projectsFile   = "projects.csv"
	categoriesFile = "categories.csv"
	rulesFile      = "rules.csv"
)

// Store owns the on-disk collections rooted at a data directory. Callers
// receive copies of entities and must call the Save methods to persist
// mutations; there is no write-through.
type Store struct {
	dataDir   string
	backupDir string
}

// Open prepares the data directory, creating it and empty header-only
// CSV files as needed. Backups go to a sibling "backups" directory.
func Open(dataDir string) (*Store, error) {
	store := &Store{
		dataDir:   dataDir,
		backupDir: filepath.Join(filepath.Dir(dataDir), "backups"),
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", err)
	}
	for file, columns := range map[string][]string{
		entriesFile:    model.EntryColumns,
		projectsFile:   model.ProjectColumns,
		categoriesFile: model.CategoryColumns,
		rulesFile:      model.RuleColumns,
	} {
		path := filepath.Join(dataDir, file)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: stat %s: %w", file, err)
		}
		if err := writeCSVAtomic(path, columns, nil); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// DataDir returns the directory holding the CSV files.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) path(file string) string {
	return filepath.Join(s.dataDir, file)
}

// Backup copies all collection files into a subdirectory of the backup
// directory named by label, or by a timestamp when label is empty. The
// copy is best effort: files are copied one at a time with no lock held
// across them.
func (s *Store) Backup(label string) (string, error) {
	if label == "" {
		label = time.Now().Format("20060102_150405")
	}
	target := filepath.Join(s.backupDir, label)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("storage: create backup dir: %w", err)
	}
	for _, file := range []string{entriesFile, projectsFile, categoriesFile, rulesFile} {
		if err := copyFile(s.path(file), filepath.Join(target, file)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("storage: backup %s: %w", file, err)
		}
	}
	return target, nil
}

// PruneBackups deletes backup directories last modified more than
// retentionDays ago, returning how many were removed.
func (s *Store) PruneBackups(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	dirs, err := os.ReadDir(s.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: read backup dir: %w", err)
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}
		info, err := dir.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.backupDir, dir.Name())); err != nil {
			return removed, fmt.Errorf("storage: prune backup %s: %w", dir.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
