package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/export"
	"github.com/sandeepkv93/timeaudit/internal/report"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
	"github.com/sandeepkv93/timeaudit/internal/tui"
)

func (a *App) cmdReport(args []string) error {
	fs := a.newFlagSet("report")
	period := fs.String("period", "week", "today, yesterday, week, month or all")
	project := fs.StringP("project", "p", "", "filter by project")
	markdown := fs.Bool("markdown", false, "render the report as Markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	start, end, label, err := a.dateRange(*period, time.Now())
	if err != nil {
		return err
	}
	entries, err := a.Tracker.Entries(tracker.EntryFilter{
		Project:   *project,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return err
	}

	summary := report.Summarize(entries, label)
	if *markdown {
		fmt.Fprintln(a.Stdout, tui.RenderMarkdown(report.Markdown(summary)))
		return nil
	}
	fmt.Fprintln(a.Stdout, report.Render(summary))
	return nil
}

func (a *App) cmdExport(args []string) error {
	fs := a.newFlagSet("export")
	format := fs.StringP("format", "f", "json", "json, markdown or ical")
	output := fs.StringP("output", "o", "", "output file (default: timeaudit-export.<ext>)")
	period := fs.String("period", "all", "today, yesterday, week, month or all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	exporter, err := export.ByFormat(*format)
	if err != nil {
		return err
	}
	start, end, _, err := a.dateRange(*period, time.Now())
	if err != nil {
		return err
	}
	entries, err := a.Tracker.Entries(tracker.EntryFilter{})
	if err != nil {
		return err
	}
	entries = export.FilterRange(entries, start, end)

	path := *output
	if path == "" {
		path = "timeaudit-export" + exporter.Extension()
	} else if filepath.Ext(path) == "" {
		path += exporter.Extension()
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()
	if err := exporter.Export(file, entries); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Exported %d entries to %s\n", len(entries), path)
	return nil
}

func (a *App) cmdImport(args []string) error {
	fs := a.newFlagSet("import")
	dryRun := fs.Bool("dry-run", false, "parse and report without saving")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("import needs a file")
	}
	path := fs.Arg(0)
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return fmt.Errorf("only JSON imports are supported, got %q", filepath.Ext(path))
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	entries, err := export.Import(file)
	if err != nil {
		return err
	}
	if *dryRun {
		fmt.Fprintf(a.Stdout, "Would import %d entries\n", len(entries))
		return nil
	}
	for _, entry := range entries {
		if err := a.Store.SaveEntry(entry); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.Stdout, "Imported %d entries\n", len(entries))
	return nil
}
