package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model renders the task list of a cherry-pick run while events arrive on
// a channel. Closing the channel or sending DoneEvent ends the program.
type Model struct {
	events  <-chan Event
	tasks   []Task
	release string

	spinner spinner.Model
	bar     progress.Model

	limitedUntil time.Time
	done         bool
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithTasks replaces the default task list.
func WithTasks(tasks []Task) ModelOption {
	return func(m *Model) { m.tasks = tasks }
}

// WithRelease shows the release name above the task list.
func WithRelease(release string) ModelOption {
	return func(m *Model) { m.release = release }
}

func newTasks(load, fetch string) []Task {
	return []Task{
		NewTask(TaskSetup, "Opening repositories"),
		NewTask(TaskLoad, load),
		NewTask(TaskFetch, fetch),
		NewTask(TaskClassify, "Classifying issues"),
		NewTask(TaskWrite, "Writing report"),
	}
}

// DefaultTasks is the task list of a run driven by a Redmine version.
func DefaultTasks() []Task { return newTasks("Loading version issues", "Fetching issues") }

// BugzillaTasks is the task list of a run driven by a bug list.
func BugzillaTasks() []Task { return newTasks("Loading bugs", "Fetching linked issues") }

// NewModel creates a model reading from events.
func NewModel(events <-chan Event, opts ...ModelOption) Model {
	m := Model{
		events:  events,
		tasks:   DefaultTasks(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar: progress.New(
			progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
			progress.WithWidth(25),
			progress.WithoutPercentage(),
		),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init starts the spinner and the event pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

// Update applies one message to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if k := msg.String(); k == "ctrl+c" || k == "q" {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case TaskEvent:
		return m, tea.Batch(m.applyTask(msg), m.next())

	case RateLimitEvent:
		m.limitedUntil = time.Time{}
		if msg.Limited {
			m.limitedUntil = msg.ResetAt
		}
		return m, m.next()

	case DoneEvent, channelClosed:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) applyTask(e TaskEvent) tea.Cmd {
	for i := range m.tasks {
		if m.tasks[i].ID != e.Task {
			continue
		}
		m.tasks[i].apply(e)
		if e.Progress > 0 {
			return m.bar.SetPercent(e.Progress)
		}
		return nil
	}
	return nil
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	if m.release != "" {
		fmt.Fprintf(&b, "  Cherry-picks for %s\n", header.Render(m.release))
	}
	for _, t := range m.tasks {
		b.WriteString(t.View(m.spinner.View(), m.bar))
		b.WriteByte('\n')
	}

	if wait := time.Until(m.limitedUntil).Round(time.Second); wait > 0 {
		b.WriteString(warning.Render(fmt.Sprintf("\n  GitHub rate limited (resets in %s)\n", wait)))
	}
	if !m.done && !m.allSettled() {
		b.WriteString(footer.Render("\n  Press Ctrl+C to cancel"))
	}
	b.WriteByte('\n')
	return b.String()
}

func (m Model) allSettled() bool {
	for _, t := range m.tasks {
		if !t.Status.settled() {
			return false
		}
	}
	return true
}

type channelClosed struct{}

func (m Model) next() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return channelClosed{}
		}
		return e
	}
}
