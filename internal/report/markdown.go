package report

import (
	"fmt"
	"strings"
)

// Markdown renders a summary as a Markdown report. The same body is used
// by the Markdown exporter and by `report --markdown`, which pipes it
// through a terminal renderer.
func Markdown(summary Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Time Report — %s\n\n", summary.Label)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Total time:** %s\n", FormatDuration(summary.TotalTime))
	fmt.Fprintf(&b, "- **Active time:** %s\n", FormatDuration(summary.ActiveTime))
	fmt.Fprintf(&b, "- **Idle time:** %s\n", FormatDuration(summary.IdleTime))
	fmt.Fprintf(&b, "- **Entries:** %d\n", summary.EntryCount)
	fmt.Fprintf(&b, "- **Unique tasks:** %d\n\n", summary.TaskCount)

	writeBucketTable(&b, "By Project", summary.ByProject)
	writeBucketTable(&b, "By Category", summary.ByCategory)
	writeBucketTable(&b, "Top Tasks", summary.TopTasks)

	if len(summary.ByDay) > 0 {
		b.WriteString("## Daily Log\n\n")
		for _, day := range summary.ByDay {
			fmt.Fprintf(&b, "### %s (%s)\n\n", day.Date.Format("Monday, 2 January 2006"), FormatDuration(day.Total))
			for _, entry := range day.Entries {
				duration, done := entry.Duration()
				length := "ongoing"
				if done {
					length = FormatDuration(duration)
				}
				fmt.Fprintf(&b, "- **%s** — %s", entry.TaskName, length)
				if entry.Project != "" {
					fmt.Fprintf(&b, " _(project: %s)_", entry.Project)
				}
				if entry.Notes != "" {
					fmt.Fprintf(&b, "\n  - %s", entry.Notes)
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeBucketTable(b *strings.Builder, title string, buckets []Bucket) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	b.WriteString("| Name | Duration | Share |\n")
	b.WriteString("| --- | ---: | ---: |\n")
	for _, bucket := range buckets {
		fmt.Fprintf(b, "| %s | %s | %.1f%% |\n", bucket.Name, FormatDuration(bucket.Duration), bucket.Share)
	}
	b.WriteString("\n")
}
