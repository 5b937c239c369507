package tui

import (
	"os"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// ciEnv lists variables whose presence means output is being captured by CI.
var ciEnv = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE", "TRAVIS", "CIRCLECI"}

// Run draws the task list on stderr until events is closed. Rendering is
// inline so the finished list stays in the scrollback above the report.
func Run(events <-chan Event, opts ...ModelOption) error {
	_, err := tea.NewProgram(NewModel(events, opts...), tea.WithOutput(os.Stderr)).Run()
	return err
}

// ShouldUseTUI reports whether stderr is an interactive terminal outside CI.
func ShouldUseTUI() bool {
	if !term.IsTerminal(int(os.Stderr.Fd())) || os.Getenv("TERM") == "dumb" {
		return false
	}
	return !slices.ContainsFunc(ciEnv, func(name string) bool {
		return os.Getenv(name) != ""
	})
}

// SendEvent delivers e without blocking; events are dropped when the
// channel is full or nil.
func SendEvent(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- e:
	default:
	}
}

// TaskEventOption sets an optional field of a TaskEvent.
type TaskEventOption func(*TaskEvent)

// SendTaskEvent builds a TaskEvent from opts and sends it with SendEvent.
func SendTaskEvent(ch chan<- Event, task TaskID, status TaskStatus, opts ...TaskEventOption) {
	e := TaskEvent{Task: task, Status: status}
	for _, opt := range opts {
		opt(&e)
	}
	SendEvent(ch, e)
}

func WithMessage(msg string) TaskEventOption {
	return func(e *TaskEvent) { e.Message = msg }
}

func WithCount(count int) TaskEventOption {
	return func(e *TaskEvent) { e.Count = count }
}

// WithProgress sets the completed fraction, 0 to 1.
func WithProgress(progress float64) TaskEventOption {
	return func(e *TaskEvent) { e.Progress = progress }
}

func WithError(err error) TaskEventOption {
	return func(e *TaskEvent) { e.Error = err }
}
