// Package cli implements the timeaudit command line interface. All
// user-facing messages and exit codes live here; the packages below it
// return errors and let this layer decide how to present them.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/sandeepkv93/timeaudit/internal/config"
	"github.com/sandeepkv93/timeaudit/internal/rules"
	"github.com/sandeepkv93/timeaudit/internal/storage"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

// App carries the wired dependencies for every subcommand.
type App struct {
	Config  *config.Config
	Store   *storage.Store
	Tracker *tracker.Tracker
	Engine  *rules.Engine
	Version string

	Stdout io.Writer
	Stderr io.Writer
}

const usage = `timeaudit - personal time tracking

Usage: timeaudit <command> [flags]

Tracking:
  start <task>     Start tracking a task
  stop             Stop the running task
  switch <task>    Stop the running task and start another
  status           Show the running task
  cancel           Discard the running task
  watch            Live tracking dashboard

Entries:
  add <task>       Add a completed entry manually
  edit <id>        Edit an entry
  list             List entries
  delete <id>      Delete an entry

Reporting:
  report           Summarize tracked time
  export           Export entries (json, markdown, ical)
  import <file>    Import entries from a JSON export

Configuration:
  project          Manage projects (add, list)
  category         Manage categories (add, list)
  rule             Manage process rules (add, list, update, delete, match)
  config           Get and set configuration (get, set, list, reset)

System:
  backup           Back up the data files
  serve            Run the REST API server
  daemon           Run the background monitor
  version          Print the version
`

// Run dispatches a subcommand and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.Stderr, usage)
		return 2
	}
	command, rest := args[0], args[1:]

	var err error
	switch command {
	case "start":
		err = a.cmdStart(rest)
	case "stop":
		err = a.cmdStop(rest)
	case "switch":
		err = a.cmdSwitch(rest)
	case "status":
		err = a.cmdStatus(rest)
	case "cancel":
		err = a.cmdCancel(rest)
	case "add":
		err = a.cmdAdd(rest)
	case "edit":
		err = a.cmdEdit(rest)
	case "list":
		err = a.cmdList(rest)
	case "delete":
		err = a.cmdDelete(rest)
	case "report":
		err = a.cmdReport(rest)
	case "export":
		err = a.cmdExport(rest)
	case "import":
		err = a.cmdImport(rest)
	case "project":
		err = a.cmdProject(rest)
	case "category":
		err = a.cmdCategory(rest)
	case "rule":
		err = a.cmdRule(rest)
	case "config":
		err = a.cmdConfig(rest)
	case "backup":
		err = a.cmdBackup(rest)
	case "serve":
		err = a.cmdServe(ctx, rest)
	case "daemon":
		err = a.cmdDaemon(ctx, rest)
	case "watch":
		err = a.cmdWatch(rest)
	case "version":
		fmt.Fprintf(a.Stdout, "timeaudit %s\n", a.Version)
	case "help", "-h", "--help":
		fmt.Fprint(a.Stdout, usage)
	default:
		fmt.Fprintf(a.Stderr, "timeaudit: unknown command %q\n\n", command)
		fmt.Fprint(a.Stderr, usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(a.Stderr, "timeaudit: %s\n", friendlyError(err))
		return 1
	}
	return 0
}

// friendlyError rewrites domain sentinels into actionable messages.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, tracker.ErrAlreadyTracking):
		return err.Error() + " (stop it first, or use switch)"
	case errors.Is(err, tracker.ErrNotTracking):
		return "no task is being tracked"
	case errors.Is(err, storage.ErrNotFound):
		return err.Error()
	default:
		return err.Error()
	}
}

// newFlagSet builds a pflag set that reports errors instead of exiting.
func (a *App) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	return fs
}

// startFlags registers the shared entry metadata flags.
func startFlags(fs *pflag.FlagSet) (project, category, tags, notes *string) {
	project = fs.StringP("project", "p", "", "project name")
	category = fs.StringP("category", "c", "", "category name")
	tags = fs.StringP("tags", "t", "", "comma-separated tags")
	notes = fs.StringP("notes", "n", "", "notes")
	return
}

func startOptions(project, category, tags, notes string) tracker.StartOptions {
	return tracker.StartOptions{
		Project:  project,
		Category: category,
		Tags:     splitTags(tags),
		Notes:    notes,
	}
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// parseUserTime accepts a date, a local datetime or RFC 3339.
func parseUserTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if value, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return value, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (try 2006-01-02 15:04)", raw)
}
