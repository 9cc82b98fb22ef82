// Package progress renders live run progress in the terminal.
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/analysis"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
)

// Task states shown before a task reaches a terminal status.
const (
	stateQueued  = "queued"
	stateRunning = "running"
)

var (
	primaryColor = lipgloss.Color("#A78BFA")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#F87171")
	mutedColor   = lipgloss.Color("#9CA3AF")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	okStyle      = lipgloss.NewStyle().Foreground(successColor)
	failStyle    = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	skipStyle    = lipgloss.NewStyle().Foreground(warningColor)
	runningStyle = lipgloss.NewStyle().Foreground(primaryColor)
)

// eventMsg carries one bus event into the program.
type eventMsg struct{ event.Event }

// closedMsg reports that the event channel was closed.
type closedMsg struct{}

// doneMsg is sent when the work behind the view has returned.
type doneMsg struct{}

type task struct {
	id       analysis.AnalyzerID
	state    string
	attempt  int
	started  time.Time
	duration time.Duration
	detail   string
}

// Model is the bubbletea model for one orchestration run.
type Model struct {
	events  <-chan event.Event
	spinner spinner.Model
	now     func() time.Time

	runID      string
	snapshotID string
	workers    int
	tasks      []*task
	byID       map[analysis.AnalyzerID]*task
	documents  []string

	completed *event.RunCompletedEvent
	aborted   bool
	width     int
}

// New creates a Model that reads events from ch.
func New(ch <-chan event.Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = runningStyle
	return Model{
		events:  ch,
		spinner: sp,
		now:     time.Now,
		byID:    make(map[analysis.AnalyzerID]*task),
	}
}

// Aborted reports whether the user quit before the run finished.
func (m Model) Aborted() bool { return m.aborted }

// Completed returns the completion event, if the run finished.
func (m Model) Completed() (event.RunCompletedEvent, bool) {
	if m.completed == nil {
		return event.RunCompletedEvent{}, false
	}
	return *m.completed, true
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg{e}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.completed == nil {
				m.aborted = true
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.apply(msg.Event)
		return m, waitForEvent(m.events)

	case doneMsg:
		m.drain()
		return m, tea.Quit

	case closedMsg:
		return m, tea.Quit
	}
	return m, nil
}

// apply folds e into the model. Events from other runs are ignored once a
// run has started.
func (m *Model) apply(e event.Event) {
	switch e := e.(type) {
	case event.RunStartedEvent:
		if m.runID != "" && e.RunID != m.runID {
			return
		}
		m.runID = e.RunID
		m.snapshotID = e.SnapshotID
		m.workers = e.MaxWorkers
		for _, id := range e.Tasks {
			m.task(id)
		}
	case event.TaskSubmittedEvent:
		if m.ours(e.RunID) {
			m.task(e.AnalyzerID)
		}
	case event.TaskStartedEvent:
		if m.ours(e.RunID) {
			t := m.task(e.AnalyzerID)
			t.state = stateRunning
			t.attempt = e.Attempt
			t.started = m.now()
			t.detail = ""
		}
	case event.TaskFinishedEvent:
		if m.ours(e.RunID) {
			t := m.task(e.AnalyzerID)
			t.state = string(e.Status)
			t.duration = e.Duration
			if e.Status != analysis.StatusSucceeded {
				t.detail = e.Detail
			}
		}
	case event.DocumentGeneratedEvent:
		m.documents = append(m.documents, e.Path)
	case event.RunCompletedEvent:
		if m.ours(e.RunID) {
			m.completed = &e
		}
	}
}

// drain applies events already buffered so the final frame is complete.
func (m *Model) drain() {
	for {
		select {
		case e, ok := <-m.events:
			if !ok {
				return
			}
			m.apply(e)
		default:
			return
		}
	}
}

func (m *Model) ours(runID string) bool {
	return m.runID == "" || runID == m.runID
}

func (m *Model) task(id analysis.AnalyzerID) *task {
	if t, ok := m.byID[id]; ok {
		return t
	}
	t := &task{id: id, state: stateQueued}
	m.byID[id] = t
	m.tasks = append(m.tasks, t)
	return t
}

func (m Model) View() string {
	var b strings.Builder

	title := "Analyzing repository"
	if m.snapshotID != "" {
		title = "Analyzing " + m.snapshotID
	}
	b.WriteString(titleStyle.Render(title))
	if m.workers > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d workers", m.workers)))
	}
	b.WriteString("\n\n")

	nameWidth := 0
	for _, t := range m.tasks {
		nameWidth = max(nameWidth, len(t.id))
	}
	for _, t := range m.tasks {
		b.WriteString(m.renderTask(t, nameWidth))
		b.WriteString("\n")
	}

	for _, p := range m.documents {
		b.WriteString(okStyle.Render("  ✎ ") + p + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.completed != nil:
		c := m.completed
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d succeeded, %d failed, %d skipped in %s",
			c.Succeeded, c.Failed, c.Skipped, c.Duration.Round(time.Millisecond))))
	case m.aborted:
		b.WriteString(skipStyle.Render("canceling run..."))
	default:
		b.WriteString(mutedStyle.Render("q: cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTask(t *task, nameWidth int) string {
	var icon, status string
	switch t.state {
	case stateQueued:
		icon, status = mutedStyle.Render("·"), mutedStyle.Render("queued")
	case stateRunning:
		icon = m.spinner.View()
		status = runningStyle.Render("running")
		if !t.started.IsZero() {
			status += mutedStyle.Render(" " + m.now().Sub(t.started).Round(time.Second).String())
		}
		if t.attempt > 1 {
			status += mutedStyle.Render(fmt.Sprintf(" (attempt %d)", t.attempt))
		}
	case string(analysis.StatusSucceeded):
		icon = okStyle.Render("✓")
		status = okStyle.Render("succeeded") + mutedStyle.Render(" "+t.duration.Round(time.Millisecond).String())
	case string(analysis.StatusFailed):
		icon, status = failStyle.Render("✗"), failStyle.Render("failed")
	default:
		icon, status = skipStyle.Render("−"), skipStyle.Render("skipped")
	}

	line := fmt.Sprintf("  %s %-*s  %s", icon, nameWidth, t.id, status)
	if t.detail != "" {
		line += mutedStyle.Render("  " + t.detail)
	}
	if m.width > 0 {
		line = lipgloss.NewStyle().MaxWidth(m.width).Render(line)
	}
	return line
}
