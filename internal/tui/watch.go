// Package tui holds the interactive terminal surfaces: the live watch
// dashboard and the Markdown renderer used by report output.
package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/timeaudit/internal/model"
	"github.com/sandeepkv93/timeaudit/internal/report"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type tickMsg time.Time

type statusMsg struct {
	entry    model.Entry
	tracking bool
	err      error
}

// WatchModel polls the tracker once a second and shows the running
// entry with a live elapsed clock.
type WatchModel struct {
	tracker  *tracker.Tracker
	spinner  spinner.Model
	entry    model.Entry
	tracking bool
	err      error
	quitting bool
}

func NewWatch(trk *tracker.Tracker) WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	return WatchModel{tracker: trk, spinner: sp}
}

func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.readStatus, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) readStatus() tea.Msg {
	entry, err := m.tracker.Status()
	if errors.Is(err, tracker.ErrNotTracking) {
		return statusMsg{}
	}
	if err != nil {
		return statusMsg{err: err}
	}
	return statusMsg{entry: entry, tracking: true}
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(m.readStatus, tick())
	case statusMsg:
		m.entry = msg.entry
		m.tracking = msg.tracking
		m.err = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	header := "timeaudit watch"
	if m.tracking {
		header = m.spinner.View() + " " + header
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(report.RenderStatus(m.entry, m.tracking))
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("q to quit"))
	return b.String()
}

// RunWatch runs the watch dashboard until the user quits.
func RunWatch(trk *tracker.Tracker) error {
	_, err := tea.NewProgram(NewWatch(trk)).Run()
	return err
}

// RenderMarkdown renders Markdown for the terminal, falling back to the
// raw text when the renderer fails.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
