package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// Task is one line of the progress display.
type Task struct {
	ID       TaskID
	Name     string
	Status   TaskStatus
	Message  string
	Count    int
	Progress float64
	Error    error
}

// NewTask returns a pending task.
func NewTask(id TaskID, name string) Task {
	return Task{ID: id, Name: name}
}

// apply merges an event into the task.
func (t *Task) apply(e TaskEvent) {
	t.Status = e.Status
	if e.Message != "" {
		t.Message = e.Message
	}
	if e.Count > 0 {
		t.Count = e.Count
	}
	if e.Progress > 0 {
		t.Progress = e.Progress
	}
	if e.Error != nil {
		t.Error = e.Error
	}
}

// View renders the task as a single line.
func (t Task) View(spinnerFrame string, bar progress.Model) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(StatusIcon(t.Status, spinnerFrame))
	b.WriteByte(' ')

	if t.Status == StatusPending || t.Status == StatusSkipped {
		b.WriteString(dim.Render(t.Name))
	} else {
		b.WriteString(taskName.Render(t.Name))
	}

	switch detail := t.detail(); {
	case t.Status == StatusRunning && t.Progress > 0:
		fmt.Fprintf(&b, " %s %3.0f%%", bar.ViewAs(t.Progress), t.Progress*100)
		if t.Message != "" {
			b.WriteString(" " + muted.Render("("+t.Message+")"))
		}
	case detail != "":
		b.WriteString(" " + muted.Render(detail))
	}

	if t.Error != nil {
		b.WriteString(" " + failed.Render(t.Error.Error()))
	}
	return b.String()
}

func (t Task) detail() string {
	switch {
	case t.Message != "":
		return t.Message
	case t.Count > 0:
		return fmt.Sprintf("(%d)", t.Count)
	}
	return ""
}
