package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/config"
	"github.com/sandeepkv93/timeaudit/internal/rules"
	"github.com/sandeepkv93/timeaudit/internal/storage"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.Open(filepath.Join(root, "data"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.General.DataDir = filepath.Join(root, "data")

	var stdout, stderr bytes.Buffer
	app := &App{
		Config:  cfg,
		Store:   store,
		Tracker: tracker.New(store),
		Engine:  rules.New(store),
		Version: "test",
		Stdout:  &stdout,
		Stderr:  &stderr,
	}
	return app, &stdout, &stderr
}

func run(t *testing.T, app *App, args ...string) int {
	t.Helper()
	return app.Run(context.Background(), args)
}

func TestNoArgsPrintsUsage(t *testing.T) {
	app, _, stderr := newTestApp(t)
	if code := run(t, app); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Fatalf("usage not printed:\n%s", stderr.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	app, _, stderr := newTestApp(t)
	if code := run(t, app, "bogus"); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "unknown command") {
		t.Fatalf("stderr = %s", stderr.String())
	}
}

func TestStartStopFlow(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	if code := run(t, app, "start", "deep work", "--project", "alpha"); code != 0 {
		t.Fatalf("start exit = %d", code)
	}
	if !strings.Contains(stdout.String(), `Started tracking "deep work"`) {
		t.Fatalf("stdout = %s", stdout.String())
	}

	stdout.Reset()
	if code := run(t, app, "stop"); code != 0 {
		t.Fatalf("stop exit = %d", code)
	}
	if !strings.Contains(stdout.String(), `Stopped "deep work"`) {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestStartWhileTrackingFails(t *testing.T) {
	app, _, stderr := newTestApp(t)

	run(t, app, "start", "first")
	if code := run(t, app, "start", "second"); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "switch") {
		t.Fatalf("error should point at switch: %s", stderr.String())
	}
}

func TestStopWhenIdleFails(t *testing.T) {
	app, _, stderr := newTestApp(t)

	if code := run(t, app, "stop"); code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "no task is being tracked") {
		t.Fatalf("stderr = %s", stderr.String())
	}
}

func TestStatusWhenIdle(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	if code := run(t, app, "status"); code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Not tracking") {
		t.Fatalf("stdout = %s", stdout.String())
	}

	run(t, app, "start", "deep work")
	run(t, app, "stop")
	stdout.Reset()
	if code := run(t, app, "status"); code != 0 {
		t.Fatalf("exit after stop = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "Not tracking") {
		t.Fatalf("stdout after stop = %s", stdout.String())
	}
}

func TestStatusWhileTracking(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	run(t, app, "start", "deep work")
	stdout.Reset()
	if code := run(t, app, "status"); code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "deep work") {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestSwitchFlow(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	run(t, app, "start", "first")
	stdout.Reset()
	if code := run(t, app, "switch", "second"); code != 0 {
		t.Fatalf("switch exit = %d", code)
	}
	out := stdout.String()
	if !strings.Contains(out, `Stopped "first"`) || !strings.Contains(out, `Started tracking "second"`) {
		t.Fatalf("stdout = %s", out)
	}
}

func TestAddAndList(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	code := run(t, app, "add", "backfill",
		"--from", "2026-03-02 09:00",
		"--to", "2026-03-02 10:30",
		"--project", "alpha")
	if code != 0 {
		t.Fatalf("add exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "1h 30m") {
		t.Fatalf("stdout = %s", stdout.String())
	}

	stdout.Reset()
	if code := run(t, app, "list"); code != 0 {
		t.Fatalf("list exit = %d", code)
	}
	out := stdout.String()
	if !strings.Contains(out, "backfill") || !strings.Contains(out, "alpha") {
		t.Fatalf("list output = %s", out)
	}
}

func TestAddInvalidRange(t *testing.T) {
	app, _, stderr := newTestApp(t)

	code := run(t, app, "add", "broken",
		"--from", "2026-03-02 10:00",
		"--to", "2026-03-02 09:00")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "end time must be after start time") {
		t.Fatalf("stderr = %s", stderr.String())
	}
}

func TestProjectAddList(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	if code := run(t, app, "project", "add", "Client Work", "--rate", "120.50"); code != 0 {
		t.Fatalf("project add exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "client-work") {
		t.Fatalf("stdout = %s", stdout.String())
	}

	stdout.Reset()
	run(t, app, "project", "list")
	if !strings.Contains(stdout.String(), "120.5") {
		t.Fatalf("project list = %s", stdout.String())
	}
}

func TestRuleAddAndMatch(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	if code := run(t, app, "rule", "add", "code|vscode", "--task", "coding"); code != 0 {
		t.Fatalf("rule add exit = %d", code)
	}

	stdout.Reset()
	if code := run(t, app, "rule", "match", "VSCode.exe"); code != 0 {
		t.Fatalf("rule match exit = %d", code)
	}
	if !strings.Contains(stdout.String(), `task "coding"`) {
		t.Fatalf("match output = %s", stdout.String())
	}

	stdout.Reset()
	run(t, app, "rule", "match", "photoshop")
	if !strings.Contains(stdout.String(), "No rule matches") {
		t.Fatalf("non-match output = %s", stdout.String())
	}
}

func TestConfigGetSet(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	app.Config = cfg

	if code := run(t, app, "config", "get", "idle_detection.threshold"); code != 0 {
		t.Fatalf("config get exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "300") {
		t.Fatalf("stdout = %s", stdout.String())
	}

	stdout.Reset()
	if code := run(t, app, "config", "set", "idle_detection.threshold", "600"); code != 0 {
		t.Fatalf("config set exit = %d", code)
	}
	stdout.Reset()
	run(t, app, "config", "get", "idle_detection.threshold")
	if !strings.Contains(stdout.String(), "600") {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestExportAndImport(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	run(t, app, "add", "exported",
		"--from", "2026-03-02 09:00",
		"--to", "2026-03-02 10:00")

	dir := t.TempDir()
	out := filepath.Join(dir, "dump.json")
	if code := run(t, app, "export", "--format", "json", "--output", out); code != 0 {
		t.Fatalf("export exit = %d", code)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	// import into a fresh app
	other, otherOut, _ := newTestApp(t)
	if code := run(t, other, "import", out); code != 0 {
		t.Fatalf("import exit = %d", code)
	}
	if !strings.Contains(otherOut.String(), "Imported 1 entries") {
		t.Fatalf("import output = %s", otherOut.String())
	}

	stdout.Reset()
	if code := run(t, other, "list"); code != 0 {
		t.Fatal("list after import failed")
	}
	if !strings.Contains(otherOut.String(), "exported") {
		t.Fatalf("imported entry missing: %s", otherOut.String())
	}
}

func TestReportRuns(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	now := time.Now()
	run(t, app, "add", "reported",
		"--from", now.Add(-2*time.Hour).Format("2006-01-02 15:04"),
		"--to", now.Add(-time.Hour).Format("2006-01-02 15:04"))

	stdout.Reset()
	if code := run(t, app, "report", "--period", "all"); code != 0 {
		t.Fatalf("report exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "1h 00m") {
		t.Fatalf("report output = %s", stdout.String())
	}
}

func TestBackupCommand(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	if code := run(t, app, "backup", "--label", "manual"); code != 0 {
		t.Fatalf("backup exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "manual") {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestVersionCommand(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	if code := run(t, app, "version"); code != 0 {
		t.Fatal("version failed")
	}
	if !strings.Contains(stdout.String(), "timeaudit test") {
		t.Fatalf("stdout = %s", stdout.String())
	}
}

func TestDateRangeWeekStart(t *testing.T) {
	app, _, _ := newTestApp(t)
	// Wednesday 2026-03-04
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	start, _, _, err := app.dateRange("week", now)
	if err != nil {
		t.Fatal(err)
	}
	if start.Weekday() != time.Monday {
		t.Fatalf("week start = %v, want Monday", start.Weekday())
	}

	app.Config.General.WeekStart = "sunday"
	start, _, _, err = app.dateRange("week", now)
	if err != nil {
		t.Fatal(err)
	}
	if start.Weekday() != time.Sunday {
		t.Fatalf("week start = %v, want Sunday", start.Weekday())
	}

	if _, _, _, err := app.dateRange("fortnight", now); err == nil {
		t.Fatal("unknown period should fail")
	}
}
