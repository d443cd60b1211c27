package tracker

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/storage"
)

func newTestTracker(t *testing.T) (*Tracker, *storage.Store) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	return New(store), store
}

func runningCount(t *testing.T, store *storage.Store) int {
	t.Helper()
	entries, err := store.LoadEntries(0)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsRunning() {
			count++
		}
	}
	return count
}

func TestStartCreatesRunningEntry(t *testing.T) {
	tr, _ := newTestTracker(t)

	entry, err := tr.Start("Write spec", StartOptions{Project: "timeaudit", Tags: []string{"docs"}})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !entry.IsRunning() {
		t.Fatal("started entry must be running")
	}

	status, err := tr.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.TaskName != "Write spec" || status.EndTime != nil {
		t.Fatalf("status mismatch: %+v", status)
	}
}

func TestStartWhileTrackingFails(t *testing.T) {
	tr, store := newTestTracker(t)

	if _, err := tr.Start("A", StartOptions{}); err != nil {
		t.Fatalf("Start A: %v", err)
	}
	_, err := tr.Start("B", StartOptions{})
	if !errors.Is(err, ErrAlreadyTracking) {
		t.Fatalf("want ErrAlreadyTracking, got %v", err)
	}

	if n := runningCount(t, store); n != 1 {
		t.Fatalf("want exactly 1 running entry, got %d", n)
	}
	current, err := store.CurrentEntry()
	if err != nil || current.TaskName != "A" {
		t.Fatalf("running entry should still be A: %+v, %v", current, err)
	}
}

func TestStopEndsEntry(t *testing.T) {
	tr, store := newTestTracker(t)
	started, err := tr.Start("Session", StartOptions{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopped, err := tr.Stop("wrapped up")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stopped.ID != started.ID || stopped.EndTime == nil || stopped.Notes != "wrapped up" {
		t.Fatalf("stopped entry mismatch: %+v", stopped)
	}
	if n := runningCount(t, store); n != 0 {
		t.Fatalf("want 0 running entries after stop, got %d", n)
	}
}

func TestStopIsNotIdempotent(t *testing.T) {
	tr, store := newTestTracker(t)
	if _, err := tr.Start("Once", StartOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first, err := tr.Stop("")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := tr.Stop(""); !errors.Is(err, ErrNotTracking) {
		t.Fatalf("second Stop: want ErrNotTracking, got %v", err)
	}

	// Second stop must not have touched the stored entry.
	reloaded, err := store.GetEntry(first.ID.String())
	if err != nil {
		t.Fatalf("GetEntry: %v", err)
	}
	if !reloaded.EndTime.Equal(*first.EndTime) {
		t.Fatalf("entry mutated by failed Stop: %v vs %v", reloaded.EndTime, first.EndTime)
	}
}

func TestTryStopWhenIdle(t *testing.T) {
	tr, _ := newTestTracker(t)
	stopped, err := tr.TryStop("")
	if err != nil {
		t.Fatalf("TryStop: %v", err)
	}
	if stopped != nil {
		t.Fatalf("TryStop on idle tracker must return nil, got %+v", stopped)
	}
}

func TestSwitchStopsAndStarts(t *testing.T) {
	tr, store := newTestTracker(t)
	if _, err := tr.Start("old", StartOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopped, started, err := tr.Switch("new", StartOptions{Category: "focus"})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if stopped == nil || stopped.TaskName != "old" || stopped.EndTime == nil {
		t.Fatalf("switch should stop the old entry: %+v", stopped)
	}
	if started.TaskName != "new" || !started.IsRunning() {
		t.Fatalf("switch should start the new entry: %+v", started)
	}
	if n := runningCount(t, store); n != 1 {
		t.Fatalf("want exactly 1 running entry after switch, got %d", n)
	}
}

func TestSwitchFromIdle(t *testing.T) {
	tr, _ := newTestTracker(t)
	stopped, started, err := tr.Switch("fresh", StartOptions{})
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if stopped != nil {
		t.Fatalf("nothing to stop, got %+v", stopped)
	}
	if started.TaskName != "fresh" {
		t.Fatalf("started = %+v", started)
	}
}

func TestCancelCurrent(t *testing.T) {
	tr, store := newTestTracker(t)
	if _, err := tr.Start("doomed", StartOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cancelled, err := tr.CancelCurrent()
	if err != nil || !cancelled {
		t.Fatalf("CancelCurrent = %v, %v", cancelled, err)
	}
	entries, err := store.LoadEntries(0)
	if err != nil || len(entries) != 0 {
		t.Fatalf("cancel must delete the entry, have %d", len(entries))
	}

	cancelled, err = tr.CancelCurrent()
	if err != nil || cancelled {
		t.Fatalf("CancelCurrent while idle = %v, %v; want false, nil", cancelled, err)
	}
}

func TestAddManualEntry(t *testing.T) {
	tr, _ := newTestTracker(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	entry, err := tr.AddManualEntry("Past work", start, end, StartOptions{Project: "client-a"})
	if err != nil {
		t.Fatalf("AddManualEntry: %v", err)
	}
	if !entry.ManualEntry || entry.IsRunning() {
		t.Fatalf("manual entry flags wrong: %+v", entry)
	}
}

func TestAddManualEntryInvalidRange(t *testing.T) {
	tr, store := newTestTracker(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := tr.AddManualEntry("Backwards", start, start.Add(-time.Hour), StartOptions{})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("want ErrInvalidRange, got %v", err)
	}
	_, err = tr.AddManualEntry("Zero length", start, start, StartOptions{})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("want ErrInvalidRange for equal times, got %v", err)
	}

	entries, err := store.LoadEntries(0)
	if err != nil || len(entries) != 0 {
		t.Fatalf("nothing may be persisted on InvalidRange, have %d", len(entries))
	}
}

func TestAddManualEntryIgnoresTrackingState(t *testing.T) {
	tr, store := newTestTracker(t)
	if _, err := tr.Start("live", StartOptions{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if _, err := tr.AddManualEntry("backfill", start, start.Add(time.Hour), StartOptions{}); err != nil {
		t.Fatalf("AddManualEntry while tracking: %v", err)
	}
	if n := runningCount(t, store); n != 1 {
		t.Fatalf("manual entry must not affect the running entry, %d running", n)
	}
}

func TestEditEntry(t *testing.T) {
	tr, _ := newTestTracker(t)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entry, err := tr.AddManualEntry("Draft", start, start.Add(time.Hour), StartOptions{})
	if err != nil {
		t.Fatalf("AddManualEntry: %v", err)
	}

	name := "Final"
	project := "client-b"
	edited, err := tr.EditEntry(entry.ID.String(), EntryEdit{TaskName: &name, Project: &project, Tags: []string{"revised"}})
	if err != nil {
		t.Fatalf("EditEntry: %v", err)
	}
	if edited.TaskName != "Final" || edited.Project != "client-b" || !edited.Edited {
		t.Fatalf("edit not applied: %+v", edited)
	}
	// Untouched fields survive.
	if !edited.StartTime.Equal(start) {
		t.Fatalf("start time should be untouched: %v", edited.StartTime)
	}
}

func TestEditEntryNotFound(t *testing.T) {
	tr, _ := newTestTracker(t)
	name := "x"
	_, err := tr.EditEntry("00000000-0000-0000-0000-000000000000", EntryEdit{TaskName: &name})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want storage.ErrNotFound, got %v", err)
	}
}

func TestEntriesFilters(t *testing.T) {
	tr, _ := newTestTracker(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	add := func(task, project, category string, offset time.Duration) {
		t.Helper()
		start := base.Add(offset)
		if _, err := tr.AddManualEntry(task, start, start.Add(30*time.Minute), StartOptions{Project: project, Category: category}); err != nil {
			t.Fatalf("AddManualEntry %s: %v", task, err)
		}
	}
	add("a", "alpha", "dev", 0)
	add("b", "beta", "dev", time.Hour)
	add("c", "alpha", "ops", 2*time.Hour)

	byProject, err := tr.Entries(EntryFilter{Project: "alpha"})
	if err != nil || len(byProject) != 2 {
		t.Fatalf("project filter: %d entries, %v", len(byProject), err)
	}
	byCategory, err := tr.Entries(EntryFilter{Category: "dev"})
	if err != nil || len(byCategory) != 2 {
		t.Fatalf("category filter: %d entries, %v", len(byCategory), err)
	}

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	byDate, err := tr.Entries(EntryFilter{StartDate: &from, EndDate: &to})
	if err != nil || len(byDate) != 1 || byDate[0].TaskName != "b" {
		t.Fatalf("date filter: %+v, %v", byDate, err)
	}
}

func TestEntriesLimitAppliesBeforeFilters(t *testing.T) {
	tr, _ := newTestTracker(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// Oldest entry is the only "alpha" one; a limit of 2 keeps just the
	// two most recent entries, so the filter sees no alpha at all.
	for i, project := range []string{"alpha", "beta", "beta"} {
		start := base.Add(time.Duration(i) * time.Hour)
		if _, err := tr.AddManualEntry("t", start, start.Add(30*time.Minute), StartOptions{Project: project}); err != nil {
			t.Fatalf("AddManualEntry: %v", err)
		}
	}

	got, err := tr.Entries(EntryFilter{Limit: 2, Project: "alpha"})
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("limit-before-filter should under-return here, got %d", len(got))
	}
}

func TestStartStopSequencePreservesInvariant(t *testing.T) {
	tr, store := newTestTracker(t)
	for i := 0; i < 3; i++ {
		if _, err := tr.Start("task", StartOptions{}); err != nil {
			t.Fatalf("Start #%d: %v", i, err)
		}
		if n := runningCount(t, store); n != 1 {
			t.Fatalf("after Start #%d: %d running", i, n)
		}
		if _, err := tr.Stop(""); err != nil {
			t.Fatalf("Stop #%d: %v", i, err)
		}
		if n := runningCount(t, store); n != 0 {
			t.Fatalf("after Stop #%d: %d running", i, n)
		}
	}
}
