// Package daemon runs the background monitor: it polls the platform
// detectors, surfaces rule suggestions, accumulates idle time on the
// running entry, and fires scheduled notifications.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sandeepkv93/timeaudit/internal/config"
	"github.com/sandeepkv93/timeaudit/internal/report"
	"github.com/sandeepkv93/timeaudit/internal/rules"
	"github.com/sandeepkv93/timeaudit/internal/storage"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

// ProcessDetector reports the foreground process. Platform
// implementations live outside this module; the daemon only needs the
// interface.
type ProcessDetector interface {
	ForegroundProcess() (name, window string, err error)
}

// IdleDetector reports how long the user has been inactive.
type IdleDetector interface {
	IdleSeconds() (int, error)
}

// Notifier delivers user-facing notifications. Implementations must not
// block; failures are logged and otherwise ignored.
type Notifier interface {
	Notify(title, message string) error
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(title, message string) error { return nil }

// Daemon wires the tracker, rule engine and detectors into the monitor
// loop. The rule engine only suggests: a matched rule never switches the
// tracker.
type Daemon struct {
	cfg       *config.Config
	store     *storage.Store
	tracker   *tracker.Tracker
	engine    *rules.Engine
	processes ProcessDetector
	idle      IdleDetector
	notifier  Notifier
	states    *StateStore
	logger    *log.Logger
	version   string

	state       State
	lastProcess string
	idleSince   time.Time
}

type Options struct {
	Processes ProcessDetector // nil disables process monitoring
	Idle      IdleDetector    // nil disables idle monitoring
	Notifier  Notifier        // nil means NopNotifier
	Logger    *log.Logger     // nil means log.Default()
	Version   string
}

func New(cfg *config.Config, store *storage.Store, trk *tracker.Tracker, engine *rules.Engine, states *StateStore, opts Options) *Daemon {
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Daemon{
		cfg:       cfg,
		store:     store,
		tracker:   trk,
		engine:    engine,
		processes: opts.Processes,
		idle:      opts.Idle,
		notifier:  opts.Notifier,
		states:    states,
		logger:    opts.Logger,
		version:   opts.Version,
	}
}

// Run blocks until ctx is canceled. It owns the pid file and the state
// file for its lifetime.
func (d *Daemon) Run(ctx context.Context) error {
	pid := os.Getpid()
	if err := d.states.WritePID(pid); err != nil {
		return err
	}
	defer func() {
		if err := d.states.RemovePID(); err != nil {
			d.logger.Printf("daemon: %v", err)
		}
	}()

	d.state = State{
		StartedAt:                time.Now().Format(time.RFC3339),
		PID:                      pid,
		Version:                  d.version,
		ProcessMonitoringEnabled: d.cfg.ProcessDetection.Enabled && d.processes != nil,
		IdleMonitoringEnabled:    d.cfg.IdleDetection.Enabled && d.idle != nil,
		NotificationsEnabled:     d.cfg.Notifications.Enabled,
	}
	d.saveState()
	d.logger.Printf("daemon: started, pid %d", pid)

	jobs, err := d.scheduleJobs()
	if err != nil {
		return err
	}
	jobs.Start()
	defer func() { <-jobs.Stop().Done() }()

	interval := time.Duration(d.cfg.ProcessDetection.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Printf("daemon: shutting down")
			d.saveState()
			return nil
		case <-ticker.C:
			d.poll()
		}
	}
}

// scheduleJobs registers the daily summary and the periodic tracking
// reminder.
func (d *Daemon) scheduleJobs() (*cron.Cron, error) {
	jobs := cron.New(cron.WithSeconds())
	if !d.cfg.Notifications.Enabled {
		return jobs, nil
	}

	spec, err := dailySpec(d.cfg.Notifications.SummaryTime)
	if err != nil {
		return nil, err
	}
	if _, err := jobs.AddFunc(spec, d.dailySummary); err != nil {
		return nil, fmt.Errorf("daemon: schedule summary: %w", err)
	}

	if secs := d.cfg.Notifications.ReminderIntervalSeconds; secs > 0 {
		if _, err := jobs.AddFunc(fmt.Sprintf("@every %ds", secs), d.trackingReminder); err != nil {
			return nil, fmt.Errorf("daemon: schedule reminder: %w", err)
		}
	}
	return jobs, nil
}

// dailySpec converts an HH:MM time into a six-field cron spec.
func dailySpec(value string) (string, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("daemon: invalid summary time %q, expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("daemon: invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("daemon: invalid minute in %q", value)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

func (d *Daemon) poll() {
	d.refreshTrackingState()
	if d.state.ProcessMonitoringEnabled {
		d.checkProcess()
	}
	if d.state.IdleMonitoringEnabled {
		d.checkIdle()
	}
	d.saveState()
}

func (d *Daemon) refreshTrackingState() {
	entry, err := d.tracker.Status()
	switch {
	case err == nil:
		d.state.Tracking = true
		d.state.CurrentEntryID = entry.ID.String()
		d.state.CurrentTaskName = entry.TaskName
	case errors.Is(err, tracker.ErrNotTracking):
		d.state.Tracking = false
		d.state.CurrentEntryID = ""
		d.state.CurrentTaskName = ""
	default:
		d.logger.Printf("daemon: read tracker status: %v", err)
	}
}

func (d *Daemon) checkProcess() {
	name, _, err := d.processes.ForegroundProcess()
	if err != nil {
		d.logger.Printf("daemon: process detection: %v", err)
		return
	}
	d.state.ProcessChecksCount++
	d.state.LastProcessCheck = time.Now().Format(time.RFC3339)
	if name == "" || name == d.lastProcess {
		return
	}
	d.logger.Printf("daemon: process changed: %q -> %q", d.lastProcess, name)
	d.lastProcess = name
	d.state.LastDetectedProcess = name

	rule, ok, err := d.engine.MatchProcess(name)
	if err != nil {
		d.logger.Printf("daemon: rule match: %v", err)
		return
	}
	if !ok {
		return
	}
	if _, err := d.engine.IncrementMatchCount(rule); err != nil {
		d.logger.Printf("daemon: increment match count: %v", err)
	}
	d.notify("Task suggestion", fmt.Sprintf("%s detected. Suggested task: %s", name, rule.TaskName))
}

func (d *Daemon) checkIdle() {
	seconds, err := d.idle.IdleSeconds()
	if err != nil {
		d.logger.Printf("daemon: idle detection: %v", err)
		return
	}
	d.state.IdleChecksCount++

	threshold := d.cfg.IdleDetection.ThresholdSeconds
	now := time.Now()
	switch {
	case seconds >= threshold && !d.state.IsIdle:
		d.state.IsIdle = true
		d.idleSince = now.Add(-time.Duration(seconds) * time.Second)
		d.state.IdleSince = d.idleSince.Format(time.RFC3339)
		d.logger.Printf("daemon: idle for %ds", seconds)
		d.notify("Idle detected", fmt.Sprintf("No activity for %d minutes", seconds/60))
	case seconds < threshold && d.state.IsIdle:
		d.state.IsIdle = false
		d.state.IdleSince = ""
		span := int(now.Sub(d.idleSince).Seconds())
		d.logger.Printf("daemon: active again after %ds idle", span)
		if d.cfg.IdleDetection.MarkAsIdle {
			d.recordIdleTime(span)
		}
	}
}

// recordIdleTime adds the finished idle span to the running entry, if
// any.
func (d *Daemon) recordIdleTime(seconds int) {
	if seconds <= 0 {
		return
	}
	entry, err := d.tracker.Status()
	if err != nil {
		if !errors.Is(err, tracker.ErrNotTracking) {
			d.logger.Printf("daemon: record idle time: %v", err)
		}
		return
	}
	entry.IdleTimeSeconds += seconds
	entry.UpdatedAt = time.Now()
	if err := d.store.SaveEntry(entry); err != nil {
		d.logger.Printf("daemon: record idle time: %v", err)
	}
}

func (d *Daemon) dailySummary() {
	start := time.Now().Truncate(24 * time.Hour)
	entries, err := d.tracker.Entries(tracker.EntryFilter{StartDate: &start})
	if err != nil {
		d.logger.Printf("daemon: daily summary: %v", err)
		return
	}
	summary := report.Summarize(entries, "today")
	d.notify("Daily summary", fmt.Sprintf("Tracked %s across %d entries today",
		report.FormatDuration(summary.TotalTime), summary.EntryCount))
}

func (d *Daemon) trackingReminder() {
	d.refreshTrackingState()
	if d.state.Tracking {
		return
	}
	d.notify("Tracking reminder", "No task is being tracked right now")
}

func (d *Daemon) notify(title, message string) {
	if !d.cfg.Notifications.Enabled {
		return
	}
	if err := d.notifier.Notify(title, message); err != nil {
		d.logger.Printf("daemon: notify: %v", err)
		return
	}
	d.state.NotificationsSent++
}

func (d *Daemon) saveState() {
	if err := d.states.Save(d.state); err != nil {
		d.logger.Printf("daemon: %v", err)
	}
}
