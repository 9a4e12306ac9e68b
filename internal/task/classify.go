package task

import "time"

// Class is the deadline classification of a task at a point in time.
type Class int

const (
	// ClassNone means the task needs no notification
	ClassNone Class = iota
	// ClassEndingToday means the deadline is today and its cutoff has not passed
	ClassEndingToday
	// ClassOverdue means the deadline instant is strictly before now
	ClassOverdue
)

// String returns the string representation of Class
func (c Class) String() string {
	switch c {
	case ClassEndingToday:
		return "ENDING_TODAY"
	case ClassOverdue:
		return "OVERDUE"
	default:
		return "NONE"
	}
}

// Result is the outcome of classifying one task.
type Result struct {
	Class       Class
	DaysOverdue int
	Deadline    time.Time
}

// Classify evaluates t against now. The location of now is the wall clock the
// slot cutoffs are read in. Completed tasks always classify as ClassNone.
//
// The result depends only on t and now; nothing is remembered between calls.
func Classify(t Task, now time.Time) (Result, error) {
	if t.Completed() {
		return Result{Class: ClassNone}, nil
	}

	deadline, err := t.Deadline(now.Location())
	if err != nil {
		return Result{Class: ClassNone}, err
	}

	res := Result{Class: ClassNone, Deadline: deadline}
	switch {
	case deadline.Before(now):
		res.Class = ClassOverdue
		res.DaysOverdue = daysBetween(deadline, now)
	case sameDay(deadline, now):
		res.Class = ClassEndingToday
	}
	return res, nil
}

// sameDay reports whether a and b fall on the same calendar date in b's location.
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// daysBetween counts whole calendar days from the date of from to the date of to.
func daysBetween(from, to time.Time) int {
	from = from.In(to.Location())
	d1 := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	d2 := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d2.Sub(d1).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
