package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ariel-frischer/tasknotify/internal/task"
)

// Vibration patterns per class. Overdue is longer and repeated.
var (
	VibrateDeadlineToday = []int{200, 100, 200}
	VibrateOverdue       = []int{500, 200, 500, 200, 500}
)

// Titles per class.
const (
	TitleDeadlineToday = "⏰ Task deadline today"
	TitleOverdue       = "⚠️ Task overdue"
)

// TaskNotification builds the notification for a task event. Its tag is
// unique to (task, emittedAt) so repeated emissions for the same task are
// shown as separate notifications; callers emitting several events at one
// instant set Tag with TaskTag and a sequence number.
func TaskNotification(kind Kind, t task.Task, daysOverdue int, emittedAt time.Time, cfg NotificationConfig) Notification {
	n := Notification{
		Kind:               kind,
		Badge:              cfg.Badge,
		Tag:                TaskTag(kind, t.ID, emittedAt, 0),
		Renotify:           true,
		RequireInteraction: cfg.RequireInteraction,
		Silent:             cfg.Silent,
		Timestamp:          emittedAt,
		AppName:            cfg.AppName,
		Data: map[string]string{
			"task_id": t.ID,
			"kind":    string(kind),
		},
	}

	switch kind {
	case KindOverdue:
		n.Title = TitleOverdue
		n.Icon = cfg.IconOverdue
		n.Vibrate = append([]int(nil), VibrateOverdue...)
		n.Data["days_overdue"] = strconv.Itoa(daysOverdue)
	default:
		n.Title = TitleDeadlineToday
		n.Icon = cfg.IconToday
		n.Vibrate = append([]int(nil), VibrateDeadlineToday...)
	}

	n.Body = taskBody(kind, t, daysOverdue)
	return n
}

// TaskTag returns the notification tag for a task emission. seq tells apart
// events emitted at the same instant, including tasks without an ID.
func TaskTag(kind Kind, taskID string, emittedAt time.Time, seq int) string {
	return fmt.Sprintf("task-%s-%s-%d-%d", kind, taskID, emittedAt.UnixMilli(), seq)
}

func taskBody(kind Kind, t task.Task, daysOverdue int) string {
	var b strings.Builder
	b.WriteString(orDash(t.Name))
	fmt.Fprintf(&b, "\nCompany: %s", orDash(t.CompanyName))
	fmt.Fprintf(&b, "\nProject: %s", orDash(t.ProjectName))
	fmt.Fprintf(&b, "\nStatus: %s (%s%%)", orDash(t.Status), formatPercent(t.Progress))
	fmt.Fprintf(&b, "\nAssignee: %s", orDash(t.Assignee))
	if kind == KindOverdue {
		fmt.Fprintf(&b, "\nOverdue by %s", pluralDays(daysOverdue))
	}
	return b.String()
}

func pluralDays(n int) string {
	if n == 0 {
		return "less than a day"
	}
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
