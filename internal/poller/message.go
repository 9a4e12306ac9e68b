package poller

import (
	"time"

	"github.com/ariel-frischer/tasknotify/internal/task"
)

// Action names an inbound control request.
type Action string

const (
	// ActionStart validates inputs, loads the employee and begins polling
	ActionStart Action = "start"
	// ActionStop cancels future ticks and makes the poller inert
	ActionStop Action = "stop"
	// ActionUpdateInterval replaces the fetch period
	ActionUpdateInterval Action = "updateInterval"
)

// Request is a control message sent to the poller.
type Request struct {
	Action Action
	// Interval is the new fetch period for ActionUpdateInterval
	Interval time.Duration
}

// MessageType tags an outbound message.
type MessageType string

const (
	TypeWorkerStarted   MessageType = "WORKER_STARTED"
	TypeWorkerStopped   MessageType = "WORKER_STOPPED"
	TypeWorkerError     MessageType = "WORKER_ERROR"
	TypeTaskEndingToday MessageType = "TASK_ENDING_TODAY"
	TypeTaskOverdue     MessageType = "TASK_OVERDUE"
	TypeNoTasks         MessageType = "NO_TASKS"
)

// IsTaskEvent reports whether the type carries a task that should be
// surfaced to the user.
func (t MessageType) IsTaskEvent() bool {
	return t == TypeTaskEndingToday || t == TypeTaskOverdue
}

// Message is emitted by the poller. Only the fields relevant to Type are set.
type Message struct {
	Type MessageType
	// PollerID identifies the emitting poller instance
	PollerID string
	// Timestamp is the poller clock at emission; all messages of one poll
	// cycle carry the cycle's classification time
	Timestamp time.Time

	// Employee is set on WORKER_STARTED
	Employee task.Employee
	// Task is set on TASK_ENDING_TODAY and TASK_OVERDUE
	Task task.Task
	// Deadline is the resolved deadline instant of Task
	Deadline time.Time
	// DaysOverdue is set on TASK_OVERDUE
	DaysOverdue int
	// Seq numbers the task events of one poll cycle from zero
	Seq int
	// Error is set on WORKER_ERROR
	Error string
}
