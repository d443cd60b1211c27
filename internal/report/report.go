// Package report aggregates entries into summaries and renders them for
// the terminal and for Markdown export.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

// Bucket is one named slice of tracked time. Durations serialize as
// nanoseconds, the time.Duration default.
type Bucket struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Share    float64       `json:"share"` // percentage of the summary's total
}

// DayBucket groups a day's entries, keyed by the entry start date.
type DayBucket struct {
	Date    time.Time     `json:"date"`
	Entries []model.Entry `json:"entries"`
	Total   time.Duration `json:"total"`
}

// Summary aggregates a set of entries. Running entries contribute to the
// entry count but not to any duration total.
type Summary struct {
	Label      string        `json:"label"`
	TotalTime  time.Duration `json:"total_time"`
	ActiveTime time.Duration `json:"active_time"`
	IdleTime   time.Duration `json:"idle_time"`
	EntryCount int           `json:"entry_count"`
	TaskCount  int           `json:"task_count"`
	ByProject  []Bucket      `json:"by_project"`
	ByCategory []Bucket      `json:"by_category"`
	TopTasks   []Bucket      `json:"top_tasks"`
	ByDay      []DayBucket   `json:"by_day"`
}

const (
	noProject  = "(no project)"
	noCategory = "(no category)"
	topTaskMax = 10
)

// Summarize aggregates entries into a Summary.
func Summarize(entries []model.Entry, label string) Summary {
	summary := Summary{Label: label, EntryCount: len(entries)}

	tasks := make(map[string]time.Duration)
	projects := make(map[string]time.Duration)
	categories := make(map[string]time.Duration)
	days := make(map[time.Time]*DayBucket)

	for _, entry := range entries {
		day := entry.StartTime.Truncate(24 * time.Hour)
		bucket, ok := days[day]
		if !ok {
			bucket = &DayBucket{Date: day}
			days[day] = bucket
		}
		bucket.Entries = append(bucket.Entries, entry)

		duration, done := entry.Duration()
		if !done {
			if _, seen := tasks[entry.TaskName]; !seen {
				tasks[entry.TaskName] = 0
			}
			continue
		}
		summary.TotalTime += duration
		summary.IdleTime += time.Duration(entry.IdleTimeSeconds) * time.Second
		bucket.Total += duration

		tasks[entry.TaskName] += duration
		projects[keyOr(entry.Project, noProject)] += duration
		categories[keyOr(entry.Category, noCategory)] += duration
	}

	summary.ActiveTime = summary.TotalTime - summary.IdleTime
	if summary.ActiveTime < 0 {
		summary.ActiveTime = 0
	}
	summary.TaskCount = len(tasks)

	summary.ByProject = sortedBuckets(projects, summary.TotalTime)
	summary.ByCategory = sortedBuckets(categories, summary.TotalTime)
	summary.TopTasks = sortedBuckets(tasks, summary.TotalTime)
	if len(summary.TopTasks) > topTaskMax {
		summary.TopTasks = summary.TopTasks[:topTaskMax]
	}

	for _, bucket := range days {
		summary.ByDay = append(summary.ByDay, *bucket)
	}
	sort.Slice(summary.ByDay, func(i, j int) bool {
		return summary.ByDay[i].Date.Before(summary.ByDay[j].Date)
	})
	return summary
}

func keyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func sortedBuckets(totals map[string]time.Duration, grand time.Duration) []Bucket {
	buckets := make([]Bucket, 0, len(totals))
	for name, duration := range totals {
		share := 0.0
		if grand > 0 {
			share = float64(duration) / float64(grand) * 100
		}
		buckets = append(buckets, Bucket{Name: name, Duration: duration, Share: share})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Duration != buckets[j].Duration {
			return buckets[i].Duration > buckets[j].Duration
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}

// FormatDuration renders a duration as "3h 05m" (or "45m", "12s").
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}
