package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Bold(true)
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	idleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Render formats a summary for the terminal.
func Render(summary Summary) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Time Audit — "+summary.Label) + "\n\n")

	writeStat := func(name, value string) {
		b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render(name+":"), valueStyle.Render(value)))
	}
	writeStat("Total time", FormatDuration(summary.TotalTime))
	writeStat("Active time", FormatDuration(summary.ActiveTime))
	writeStat("Idle time", FormatDuration(summary.IdleTime))
	writeStat("Entries", fmt.Sprintf("%d", summary.EntryCount))
	writeStat("Unique tasks", fmt.Sprintf("%d", summary.TaskCount))
	if summary.TotalTime > 0 {
		activePct := float64(summary.ActiveTime) / float64(summary.TotalTime) * 100
		writeStat("Active ratio", fmt.Sprintf("%.1f%%", activePct))
	}

	b.WriteString(renderBuckets("Time by project", summary.ByProject))
	b.WriteString(renderBuckets("Time by category", summary.ByCategory))
	b.WriteString(renderBuckets("Top tasks", summary.TopTasks))

	return b.String()
}

func renderBuckets(title string, buckets []Bucket) string {
	if len(buckets) == 0 {
		return ""
	}
	width := 0
	for _, bucket := range buckets {
		if len(bucket.Name) > width {
			width = len(bucket.Name)
		}
	}
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render(title) + "\n")
	for _, bucket := range buckets {
		b.WriteString(fmt.Sprintf("  %-*s  %8s  %5.1f%%  %s\n",
			width, bucket.Name,
			FormatDuration(bucket.Duration),
			bucket.Share,
			barStyle.Render(bar(bucket.Share))))
	}
	return b.String()
}

// bar renders a 20-cell proportional bar for a percentage.
func bar(share float64) string {
	cells := int(share / 5)
	if cells > 20 {
		cells = 20
	}
	return strings.Repeat("█", cells) + strings.Repeat("░", 20-cells)
}

// RenderStatus formats the current tracking state for the status command
// and the watch view.
func RenderStatus(entry model.Entry, tracking bool) string {
	if !tracking {
		return panelStyle.Render(idleStyle.Render("Not tracking") + "\n" + labelStyle.Render("start a task with: timeaudit start <task>"))
	}

	var b strings.Builder
	b.WriteString(activeStyle.Render("● Tracking ") + valueStyle.Render(entry.TaskName) + "\n")
	b.WriteString(labelStyle.Render("started  ") + entry.StartTime.Format("15:04:05") + "\n")
	b.WriteString(labelStyle.Render("elapsed  ") + FormatDuration(elapsed(entry)))
	if entry.Project != "" {
		b.WriteString("\n" + labelStyle.Render("project  ") + entry.Project)
	}
	if entry.Category != "" {
		b.WriteString("\n" + labelStyle.Render("category ") + entry.Category)
	}
	if len(entry.Tags) > 0 {
		b.WriteString("\n" + labelStyle.Render("tags     ") + strings.Join(entry.Tags, ", "))
	}
	return panelStyle.Render(b.String())
}

func elapsed(entry model.Entry) time.Duration {
	return time.Since(entry.StartTime)
}
