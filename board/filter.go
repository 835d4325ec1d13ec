// Package board holds the in-memory task board model: filtering, column
// projection and drag-and-drop reorder transitions. Everything here works on
// a snapshot of tasks and never talks to storage.
package board

import (
	"fmt"
	"time"

	"github.com/kuzcou/plannerdig/domain"
)

// DueBucket selects tasks by due date relative to the current day.
type DueBucket string

const (
	DueAll         DueBucket = "all"
	DueOverdue     DueBucket = "overdue"
	DueToday       DueBucket = "today"
	DueTomorrow    DueBucket = "tomorrow"
	DueWithin7Days DueBucket = "within7days"
)

const (
	AssigneeAll        = "all"
	AssigneeUnassigned = "unassigned"
)

// ParseDueBucket accepts the bucket names plus "week" for within7days. An
// empty string means all.
func ParseDueBucket(s string) (DueBucket, error) {
	switch DueBucket(s) {
	case "", DueAll:
		return DueAll, nil
	case DueOverdue, DueToday, DueTomorrow, DueWithin7Days:
		return DueBucket(s), nil
	case "week":
		return DueWithin7Days, nil
	default:
		return "", fmt.Errorf("%w: unknown due filter %q", domain.ErrValidation, s)
	}
}

// Criteria combines the due-date and assignee filters.
type Criteria struct {
	Due DueBucket
	// Assignee is AssigneeAll, AssigneeUnassigned or a user identifier.
	Assignee string
}

// Active reports whether any filter narrows the task list.
func (c Criteria) Active() bool {
	return (c.Due != "" && c.Due != DueAll) || (c.Assignee != "" && c.Assignee != AssigneeAll)
}

// Filter returns the tasks matching both predicates, in input order.
func Filter(tasks []domain.Task, c Criteria, now time.Time) []domain.Task {
	today := civilDay(now)
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchesDue(t, c.Due, today) && matchesAssignee(t, c.Assignee) {
			out = append(out, t)
		}
	}
	return out
}

func matchesDue(t domain.Task, bucket DueBucket, today time.Time) bool {
	if bucket == "" || bucket == DueAll {
		return true
	}
	due, ok := t.Due()
	if !ok {
		return false
	}
	switch bucket {
	case DueOverdue:
		return due.Before(today)
	case DueToday:
		return due.Equal(today)
	case DueTomorrow:
		return due.Equal(today.AddDate(0, 0, 1))
	case DueWithin7Days:
		// Past-due tasks also pass this bucket.
		return !due.After(today.AddDate(0, 0, 7))
	default:
		return false
	}
}

func matchesAssignee(t domain.Task, assignee string) bool {
	switch assignee {
	case "", AssigneeAll:
		return true
	case AssigneeUnassigned:
		return t.Assignee == ""
	default:
		return t.Assignee == assignee
	}
}

// civilDay truncates now to midnight of its calendar day, expressed in UTC so
// it compares directly with parsed due dates.
func civilDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DueState classifies a task's due date for badge display.
type DueState string

const (
	DueStateNone     DueState = "none"
	DueStateOverdue  DueState = "overdue"
	DueStateToday    DueState = "today"
	DueStateTomorrow DueState = "tomorrow"
	DueStateUpcoming DueState = "upcoming"
)

// StateOf reports the due state of t on the day of now.
func StateOf(t domain.Task, now time.Time) DueState {
	due, ok := t.Due()
	if !ok {
		return DueStateNone
	}
	today := civilDay(now)
	switch {
	case due.Before(today):
		return DueStateOverdue
	case due.Equal(today):
		return DueStateToday
	case due.Equal(today.AddDate(0, 0, 1)):
		return DueStateTomorrow
	default:
		return DueStateUpcoming
	}
}
