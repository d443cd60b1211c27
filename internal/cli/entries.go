package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/report"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

func (a *App) cmdStart(args []string) error {
	fs := a.newFlagSet("start")
	project, category, tags, notes := startFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("start needs a task name")
	}
	task := fs.Arg(0)

	entry, err := a.Tracker.Start(task, startOptions(*project, *category, *tags, *notes))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Started tracking %q at %s\n", entry.TaskName, entry.StartTime.Format("15:04"))
	return nil
}

func (a *App) cmdStop(args []string) error {
	fs := a.newFlagSet("stop")
	notes := fs.StringP("notes", "n", "", "notes to attach before stopping")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entry, err := a.Tracker.Stop(*notes)
	if err != nil {
		return err
	}
	duration, _ := entry.Duration()
	fmt.Fprintf(a.Stdout, "Stopped %q after %s\n", entry.TaskName, report.FormatDuration(duration))
	return nil
}

func (a *App) cmdSwitch(args []string) error {
	fs := a.newFlagSet("switch")
	project, category, tags, notes := startFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("switch needs a task name")
	}

	stopped, started, err := a.Tracker.Switch(fs.Arg(0), startOptions(*project, *category, *tags, *notes))
	if err != nil {
		return err
	}
	if stopped != nil {
		duration, _ := stopped.Duration()
		fmt.Fprintf(a.Stdout, "Stopped %q after %s\n", stopped.TaskName, report.FormatDuration(duration))
	}
	fmt.Fprintf(a.Stdout, "Started tracking %q\n", started.TaskName)
	return nil
}

func (a *App) cmdStatus(args []string) error {
	fs := a.newFlagSet("status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entry, err := a.Tracker.Status()
	if errors.Is(err, tracker.ErrNotTracking) {
		fmt.Fprintln(a.Stdout, report.RenderStatus(model.Entry{}, false))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Stdout, report.RenderStatus(entry, true))
	return nil
}

func (a *App) cmdCancel(args []string) error {
	fs := a.newFlagSet("cancel")
	if err := fs.Parse(args); err != nil {
		return err
	}

	canceled, err := a.Tracker.CancelCurrent()
	if err != nil {
		return err
	}
	if !canceled {
		fmt.Fprintln(a.Stdout, "Nothing to cancel")
		return nil
	}
	fmt.Fprintln(a.Stdout, "Canceled the running entry")
	return nil
}

func (a *App) cmdAdd(args []string) error {
	fs := a.newFlagSet("add")
	project, category, tags, notes := startFlags(fs)
	from := fs.String("from", "", "start time")
	to := fs.String("to", "", "end time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("add needs a task name")
	}
	if *from == "" || *to == "" {
		return errors.New("add needs --from and --to")
	}
	start, err := parseUserTime(*from)
	if err != nil {
		return err
	}
	end, err := parseUserTime(*to)
	if err != nil {
		return err
	}

	entry, err := a.Tracker.AddManualEntry(fs.Arg(0), start, end, startOptions(*project, *category, *tags, *notes))
	if err != nil {
		return err
	}
	duration, _ := entry.Duration()
	fmt.Fprintf(a.Stdout, "Added %q (%s)\n", entry.TaskName, report.FormatDuration(duration))
	return nil
}

func (a *App) cmdEdit(args []string) error {
	fs := a.newFlagSet("edit")
	task := fs.String("task", "", "new task name")
	project := fs.StringP("project", "p", "", "new project")
	category := fs.StringP("category", "c", "", "new category")
	tags := fs.StringP("tags", "t", "", "new comma-separated tags")
	notes := fs.StringP("notes", "n", "", "new notes")
	from := fs.String("from", "", "new start time")
	to := fs.String("to", "", "new end time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("edit needs an entry id")
	}

	var edit tracker.EntryEdit
	if fs.Changed("task") {
		edit.TaskName = task
	}
	if fs.Changed("project") {
		edit.Project = project
	}
	if fs.Changed("category") {
		edit.Category = category
	}
	if fs.Changed("tags") {
		edit.Tags = splitTags(*tags)
	}
	if fs.Changed("notes") {
		edit.Notes = notes
	}
	if fs.Changed("from") {
		start, err := parseUserTime(*from)
		if err != nil {
			return err
		}
		edit.StartTime = &start
	}
	if fs.Changed("to") {
		end, err := parseUserTime(*to)
		if err != nil {
			return err
		}
		edit.EndTime = &end
	}

	entry, err := a.Tracker.EditEntry(fs.Arg(0), edit)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Updated %q\n", entry.TaskName)
	return nil
}

func (a *App) cmdList(args []string) error {
	fs := a.newFlagSet("list")
	limit := fs.IntP("limit", "l", 20, "maximum entries to load")
	project := fs.StringP("project", "p", "", "filter by project")
	category := fs.StringP("category", "c", "", "filter by category")
	from := fs.String("from", "", "inclusive start date")
	to := fs.String("to", "", "inclusive end date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := tracker.EntryFilter{Limit: *limit, Project: *project, Category: *category}
	if *from != "" {
		start, err := parseUserTime(*from)
		if err != nil {
			return err
		}
		filter.StartDate = &start
	}
	if *to != "" {
		end, err := parseUserTime(*to)
		if err != nil {
			return err
		}
		filter.EndDate = &end
	}

	entries, err := a.Tracker.Entries(filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.Stdout, "No entries")
		return nil
	}

	tw := tabwriter.NewWriter(a.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tTASK\tPROJECT\tSTART\tDURATION")
	for _, entry := range entries {
		length := "running"
		if duration, ok := entry.Duration(); ok {
			length = report.FormatDuration(duration)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			shortID(entry.ID.String()),
			entry.TaskName,
			entry.Project,
			entry.StartTime.Format("2006-01-02 15:04"),
			length)
	}
	return tw.Flush()
}

func (a *App) cmdDelete(args []string) error {
	fs := a.newFlagSet("delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("delete needs an entry id")
	}

	removed, err := a.Tracker.DeleteEntry(fs.Arg(0))
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no entry with id %q", fs.Arg(0))
	}
	fmt.Fprintln(a.Stdout, "Deleted")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// dateRange resolves the named period flags used by report and export.
// The week boundary follows general.week_start.
func (a *App) dateRange(period string, now time.Time) (*time.Time, *time.Time, string, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "today":
		return &day, &now, "today", nil
	case "yesterday":
		start := day.AddDate(0, 0, -1)
		end := day.Add(-time.Nanosecond)
		return &start, &end, "yesterday", nil
	case "week":
		weekday := int(day.Weekday())
		if a.Config.General.WeekStart == "sunday" {
			start := day.AddDate(0, 0, -weekday)
			return &start, &now, "this week", nil
		}
		if weekday == 0 {
			weekday = 7
		}
		start := day.AddDate(0, 0, -(weekday - 1))
		return &start, &now, "this week", nil
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &start, &now, "this month", nil
	case "all", "":
		return nil, nil, "all time", nil
	default:
		return nil, nil, "", fmt.Errorf("unknown period %q (today, yesterday, week, month, all)", period)
	}
}
