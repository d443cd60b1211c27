package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// State is the daemon's externally visible status, persisted as JSON so
// the CLI can report on a running daemon without IPC.
type State struct {
	StartedAt string `json:"started_at"`
	PID       int    `json:"pid"`
	Version   string `json:"version"`

	ProcessMonitoringEnabled bool `json:"process_monitoring_enabled"`
	IdleMonitoringEnabled    bool `json:"idle_monitoring_enabled"`
	NotificationsEnabled     bool `json:"notifications_enabled"`

	Tracking        bool   `json:"tracking"`
	CurrentEntryID  string `json:"current_entry_id,omitempty"`
	CurrentTaskName string `json:"current_task_name,omitempty"`

	LastDetectedProcess string `json:"last_detected_process,omitempty"`
	LastProcessCheck    string `json:"last_process_check,omitempty"`

	IsIdle    bool   `json:"is_idle"`
	IdleSince string `json:"idle_since,omitempty"`

	ProcessChecksCount int `json:"process_checks_count"`
	IdleChecksCount    int `json:"idle_checks_count"`
	NotificationsSent  int `json:"notifications_sent"`
}

// Statestore persists daemon state and the PID file under a state
// directory.
type StateStore struct {
	mu  sync.Mutex
	dir string
}

func NewStateStore(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("daemon: create state dir: %w", err)
	}
	return &StateStore{dir: dir}, nil
}

func (s *StateStore) Dir() string { return s.dir }

func (s *StateStore) statePath() string { return filepath.Join(s.dir, "daemon.json") }
func (s *StateStore) pidPath() string   { return filepath.Join(s.dir, "daemon.pid") }

// Save writes the state file, replacing any previous one.
func (s *StateStore) Save(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("daemon: marshal state: %w", err)
	}
	if err := os.WriteFile(s.statePath(), data, 0o644); err != nil {
		return fmt.Errorf("daemon: write state: %w", err)
	}
	return nil
}

// Load reads the persisted state. ok is false when no daemon has ever
// written one.
func (s *StateStore) Load() (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.statePath())
	if errors.Is(err, os.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("daemon: read state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, false, fmt.Errorf("daemon: parse state: %w", err)
	}
	return state, true, nil
}

// WritePID records the daemon's process id.
func (s *StateStore) WritePID(pid int) error {
	if err := os.WriteFile(s.pidPath(), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("daemon: write pid file: %w", err)
	}
	return nil
}

// ReadPID returns the recorded pid, or ok false when no pid file exists.
func (s *StateStore) ReadPID() (int, bool, error) {
	data, err := os.ReadFile(s.pidPath())
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("daemon: read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false, fmt.Errorf("daemon: bad pid file: %w", err)
	}
	return pid, true, nil
}

// RemovePID deletes the pid file if present.
func (s *StateStore) RemovePID() error {
	err := os.Remove(s.pidPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("daemon: remove pid file: %w", err)
	}
	return nil
}
