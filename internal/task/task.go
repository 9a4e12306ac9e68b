// Package task defines the CRM task and employee records consumed by the
// notifier and the deadline classification rules applied to them.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status values reported by the task API.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Slot is the deadline time-slot tag of a task.
type Slot string

const (
	// SlotMorning closes at 13:30 local time
	SlotMorning Slot = "MORNING"
	// SlotEvening closes at 18:30 local time
	SlotEvening Slot = "EVENING"
)

// Cutoff minutes of day for each slot.
const (
	MorningCutoffMinute = 13*60 + 30
	EveningCutoffMinute = 18*60 + 30
)

// CutoffMinute returns the minute of day at which the slot closes.
// Unknown or empty slots close with the evening cutoff.
func (s Slot) CutoffMinute() int {
	if Slot(strings.ToUpper(strings.TrimSpace(string(s)))) == SlotMorning {
		return MorningCutoffMinute
	}
	return EveningCutoffMinute
}

// Task is a snapshot of one task as returned by the API. The poller never
// mutates a Task; each cycle works on a freshly decoded list.
type Task struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"task_name" yaml:"task_name"`
	CompanyName  string  `json:"company_name" yaml:"company_name"`
	ProjectName  string  `json:"project_name" yaml:"project_name"`
	Status       string  `json:"status" yaml:"status"`
	Progress     float64 `json:"progress" yaml:"progress"`
	Assignee     string  `json:"assignee" yaml:"assignee"`
	DeadlineDate string  `json:"deadline" yaml:"deadline"`
	DeadlineSlot Slot    `json:"deadline_slot" yaml:"deadline_slot"`
}

// UnmarshalJSON accepts the task ID as a JSON string or number.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	t.ID = id
	return nil
}

// Completed reports whether the task status is Completed (case-insensitive).
func (t Task) Completed() bool {
	return strings.EqualFold(strings.TrimSpace(t.Status), StatusCompleted)
}

// Deadline resolves the task's deadline instant in loc: the deadline date at
// the slot's cutoff minute.
func (t Task) Deadline(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date, err := parseDate(t.DeadlineDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	minute := t.DeadlineSlot.CutoffMinute()
	return date.Add(time.Duration(minute) * time.Minute), nil
}

// parseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns local
// midnight of that calendar date.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing deadline date")
	}
	if d, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid deadline date %q", s)
	}
	ts = ts.In(loc)
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc), nil
}

// Employee is the display metadata of the signed-in employee.
type Employee struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Designation   string `json:"designation"`
	IsTeamHead    bool   `json:"isTeamHead"`
	IsProjectHead bool   `json:"isProjectHead"`
}

// UnmarshalJSON accepts the employee ID as a JSON string or number.
func (e *Employee) UnmarshalJSON(data []byte) error {
	type plain Employee
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := decodeID(aux.ID)
	if err != nil {
		return fmt.Errorf("employee id: %w", err)
	}
	e.ID = id
	return nil
}

// decodeID returns a string or numeric JSON ID as text. Absent and null IDs
// are empty.
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// DisplayName returns the name, falling back to the ID.
func (e Employee) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}
