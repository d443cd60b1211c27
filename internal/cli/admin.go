package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/sandeepkv93/timeaudit/internal/config"
	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/rules"
)

func (a *App) cmdProject(args []string) error {
	if len(args) == 0 {
		return errors.New("project needs a subcommand: add, list")
	}
	switch args[0] {
	case "add":
		return a.projectAdd(args[1:])
	case "list":
		return a.projectList(args[1:])
	default:
		return fmt.Errorf("unknown project subcommand %q", args[0])
	}
}

func (a *App) projectAdd(args []string) error {
	fs := a.newFlagSet("project add")
	client := fs.String("client", "", "client name")
	description := fs.String("description", "", "project description")
	rate := fs.String("rate", "", "hourly rate, decimal")
	budget := fs.String("budget", "", "budget hours, decimal")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("project add needs a name")
	}
	name := fs.Arg(0)

	project := model.NewProject(slug(name), name)
	project.Client = *client
	project.Description = *description
	if *rate != "" {
		value, err := decimal.NewFromString(*rate)
		if err != nil {
			return fmt.Errorf("invalid rate %q: %w", *rate, err)
		}
		project.HourlyRate = &value
	}
	if *budget != "" {
		value, err := decimal.NewFromString(*budget)
		if err != nil {
			return fmt.Errorf("invalid budget %q: %w", *budget, err)
		}
		project.BudgetHours = &value
	}
	if err := a.Store.SaveProject(project); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Added project %q (%s)\n", project.Name, project.ID)
	return nil
}

func (a *App) projectList(args []string) error {
	fs := a.newFlagSet("project list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	projects, err := a.Store.LoadProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(a.Stdout, "No projects")
		return nil
	}
	tw := tabwriter.NewWriter(a.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCLIENT\tRATE\tACTIVE")
	for _, project := range projects {
		rate := ""
		if project.HourlyRate != nil {
			rate = project.HourlyRate.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", project.ID, project.Name, project.Client, rate, project.Active)
	}
	return tw.Flush()
}

func (a *App) cmdCategory(args []string) error {
	if len(args) == 0 {
		return errors.New("category needs a subcommand: add, list")
	}
	switch args[0] {
	case "add":
		return a.categoryAdd(args[1:])
	case "list":
		return a.categoryList(args[1:])
	default:
		return fmt.Errorf("unknown category subcommand %q", args[0])
	}
}

func (a *App) categoryAdd(args []string) error {
	fs := a.newFlagSet("category add")
	color := fs.String("color", "", "display color")
	parent := fs.String("parent", "", "parent category")
	billable := fs.Bool("billable", true, "count as billable time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("category add needs a name")
	}
	name := fs.Arg(0)

	category := model.NewCategory(slug(name), name)
	category.Color = *color
	category.ParentCategory = *parent
	category.Billable = *billable
	if err := a.Store.SaveCategory(category); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Added category %q (%s)\n", category.Name, category.ID)
	return nil
}

func (a *App) categoryList(args []string) error {
	fs := a.newFlagSet("category list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	categories, err := a.Store.LoadCategories()
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Fprintln(a.Stdout, "No categories")
		return nil
	}
	tw := tabwriter.NewWriter(a.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPARENT\tBILLABLE")
	for _, category := range categories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", category.ID, category.Name, category.ParentCategory, category.Billable)
	}
	return tw.Flush()
}

func (a *App) cmdRule(args []string) error {
	if len(args) == 0 {
		return errors.New("rule needs a subcommand: add, list, update, delete, match")
	}
	switch args[0] {
	case "add":
		return a.ruleAdd(args[1:])
	case "list":
		return a.ruleList(args[1:])
	case "update":
		return a.ruleUpdate(args[1:])
	case "delete":
		return a.ruleDelete(args[1:])
	case "match":
		return a.ruleMatch(args[1:])
	default:
		return fmt.Errorf("unknown rule subcommand %q", args[0])
	}
}

func (a *App) ruleAdd(args []string) error {
	fs := a.newFlagSet("rule add")
	task := fs.String("task", "", "task to suggest")
	project := fs.StringP("project", "p", "", "project for the suggested task")
	category := fs.StringP("category", "c", "", "category for the suggested task")
	tags := fs.StringP("tags", "t", "", "comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("rule add needs a pattern")
	}
	if *task == "" {
		return errors.New("rule add needs --task")
	}

	rule, err := a.Engine.AddRule(fs.Arg(0), *task, *project, *category, splitTags(*tags))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Added rule %s: %q -> %q\n", shortID(rule.ID), rule.Pattern, rule.TaskName)
	return nil
}

func (a *App) ruleList(args []string) error {
	fs := a.newFlagSet("rule list")
	enabledOnly := fs.Bool("enabled", false, "only enabled rules")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, err := a.Engine.Rules(*enabledOnly)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.Stdout, "No rules")
		return nil
	}
	tw := tabwriter.NewWriter(a.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATTERN\tTASK\tLEARNED\tCONFIDENCE\tMATCHES\tENABLED")
	for _, rule := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%.1f\t%d\t%t\n",
			shortID(rule.ID), rule.Pattern, rule.TaskName, rule.Learned, rule.Confidence, rule.MatchCount, rule.Enabled)
	}
	return tw.Flush()
}

func (a *App) ruleUpdate(args []string) error {
	fs := a.newFlagSet("rule update")
	pattern := fs.String("pattern", "", "new pattern")
	task := fs.String("task", "", "new task name")
	project := fs.StringP("project", "p", "", "new project")
	category := fs.StringP("category", "c", "", "new category")
	tags := fs.StringP("tags", "t", "", "new comma-separated tags")
	enabled := fs.Bool("enabled", true, "enable or disable the rule")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("rule update needs a rule id")
	}

	var update rules.RuleUpdate
	if fs.Changed("pattern") {
		update.Pattern = pattern
	}
	if fs.Changed("task") {
		update.TaskName = task
	}
	if fs.Changed("project") {
		update.Project = project
	}
	if fs.Changed("category") {
		update.Category = category
	}
	if fs.Changed("tags") {
		update.Tags = splitTags(*tags)
	}
	if fs.Changed("enabled") {
		update.Enabled = enabled
	}

	rule, err := a.Engine.UpdateRule(fs.Arg(0), update)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Updated rule %s\n", shortID(rule.ID))
	return nil
}

func (a *App) ruleDelete(args []string) error {
	fs := a.newFlagSet("rule delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("rule delete needs a rule id")
	}
	removed, err := a.Engine.DeleteRule(fs.Arg(0))
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no rule with id %q", fs.Arg(0))
	}
	fmt.Fprintln(a.Stdout, "Deleted")
	return nil
}

func (a *App) ruleMatch(args []string) error {
	fs := a.newFlagSet("rule match")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("rule match needs a process name")
	}

	rule, ok, err := a.Engine.MatchProcess(fs.Arg(0))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.Stdout, "No rule matches")
		return nil
	}
	fmt.Fprintf(a.Stdout, "Matched %q -> task %q (confidence %.1f)\n", rule.Pattern, rule.TaskName, rule.Confidence)
	return nil
}

func (a *App) cmdConfig(args []string) error {
	if len(args) == 0 {
		return errors.New("config needs a subcommand: get, set, list, reset")
	}
	switch args[0] {
	case "get":
		if len(args) < 2 {
			return errors.New("config get needs a key")
		}
		value, err := a.Config.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Stdout, value)
		return nil
	case "set":
		if len(args) < 3 {
			return errors.New("config set needs a key and a value")
		}
		if err := a.Config.Set(args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(a.Stdout, "Set %s = %s\n", args[1], args[2])
		return nil
	case "list":
		tw := tabwriter.NewWriter(a.Stdout, 2, 0, 3, ' ', 0)
		for _, key := range config.Keys() {
			value, err := a.Config.Get(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%s\n", key, value)
		}
		return tw.Flush()
	case "reset":
		if len(args) < 2 {
			return errors.New("config reset needs a key")
		}
		key := args[1]
		defaults := config.Default()
		value, err := defaults.Get(key)
		if err != nil {
			return err
		}
		if err := a.Config.Set(key, value); err != nil {
			return err
		}
		fmt.Fprintf(a.Stdout, "Reset %s to %s\n", key, strconv.Quote(value))
		return nil
	default:
		return fmt.Errorf("unknown config subcommand %q", args[0])
	}
}

func (a *App) cmdBackup(args []string) error {
	fs := a.newFlagSet("backup")
	label := fs.String("label", "", "backup directory name (default: timestamp)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	dir, err := a.Store.Backup(*label)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Backed up to %s\n", dir)
	return nil
}

// slug derives a stable id from a human name.
func slug(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

