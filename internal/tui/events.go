package tui

import "time"

// TaskID names one step of a cherry-pick run. The values index the task
// lists returned by DefaultTasks and BugzillaTasks.
type TaskID int

const (
	TaskSetup TaskID = iota
	TaskLoad
	TaskFetch
	TaskClassify
	TaskWrite
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusComplete
	StatusError
	StatusSkipped
)

func (s TaskStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	case StatusSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

// settled reports whether the task no longer changes.
func (s TaskStatus) settled() bool {
	return s == StatusComplete || s == StatusError || s == StatusSkipped
}

// Event is delivered to the model over the run's event channel.
type Event interface {
	isEvent()
}

// TaskEvent moves a task to a new status. Zero-valued fields leave the
// task's current value in place.
type TaskEvent struct {
	Task     TaskID
	Status   TaskStatus
	Message  string
	Count    int
	Progress float64 // 0..1
	Error    error
}

// RateLimitEvent toggles the GitHub rate limit banner.
type RateLimitEvent struct {
	Limited bool
	ResetAt time.Time
}

// DoneEvent stops the program.
type DoneEvent struct{}

func (TaskEvent) isEvent()      {}
func (RateLimitEvent) isEvent() {}
func (DoneEvent) isEvent()      {}
