// Package report derives progress metrics from a board's tasks. Reports are
// recomputed from the full snapshot on every call.
package report

import (
	"math"
	"time"

	"github.com/kuzcou/plannerdig/domain"
)

// AssigneeAll selects every task regardless of assignee.
const AssigneeAll = "all"

// UserReport summarises the tasks of one assignee, or of everyone.
type UserReport struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	InProgress     int `json:"inProgress"`
	Pending        int `json:"pending"`
	Review         int `json:"review"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completionRate"`
}

// ForAssignee returns the tasks assigned to assignee. AssigneeAll and the
// empty string return tasks unchanged.
func ForAssignee(tasks []domain.Task, assignee string) []domain.Task {
	if assignee == "" || assignee == AssigneeAll {
		return tasks
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Assignee == assignee {
			out = append(out, t)
		}
	}
	return out
}

// User computes the progress report for assignee. A task is overdue when its
// due date lies before now and it is not done.
func User(tasks []domain.Task, assignee string, now time.Time) UserReport {
	var r UserReport
	for _, t := range ForAssignee(tasks, assignee) {
		r.Total++
		switch t.Status {
		case domain.StatusDone:
			r.Completed++
		case domain.StatusInProgress:
			r.InProgress++
		case domain.StatusBacklog:
			r.Pending++
		case domain.StatusReview:
			r.Review++
		}
		if t.Status == domain.StatusDone {
			continue
		}
		if due, ok := t.Due(); ok && due.Before(now) {
			r.Overdue++
		}
	}
	r.CompletionRate = percent(r.Completed, r.Total)
	return r
}

// BoardPerformance describes the status distribution of a board.
type BoardPerformance struct {
	StatusCounts      map[domain.Status]int `json:"statusCounts"`
	Bottlenecks       []domain.Status       `json:"bottlenecks"`
	AvgCompletionDays int                   `json:"avgCompletionDays"`
	TotalTasks        int                   `json:"totalTasks"`
}

// Performance computes status counts, bottlenecks and the average number of
// days between creation and last update of done tasks.
func Performance(tasks []domain.Task) BoardPerformance {
	counts := make(map[domain.Status]int, len(domain.Statuses))
	for _, s := range domain.Statuses {
		counts[s] = 0
	}
	doneDays, doneCount := 0, 0
	for _, t := range tasks {
		if _, ok := counts[t.Status]; ok {
			counts[t.Status]++
		}
		if t.Status == domain.StatusDone {
			doneDays += wholeDays(t.CreatedAt, t.UpdatedAt)
			doneCount++
		}
	}

	peak := 0
	for _, s := range domain.Statuses {
		if counts[s] > peak {
			peak = counts[s]
		}
	}
	bottlenecks := []domain.Status{}
	if peak > 0 {
		for _, s := range domain.Statuses {
			if s != domain.StatusDone && counts[s] == peak {
				bottlenecks = append(bottlenecks, s)
			}
		}
	}

	avg := 0
	if doneCount > 0 {
		avg = int(math.Round(float64(doneDays) / float64(doneCount)))
	}
	return BoardPerformance{
		StatusCounts:      counts,
		Bottlenecks:       bottlenecks,
		AvgCompletionDays: avg,
		TotalTasks:        len(tasks),
	}
}

// IsBottleneck reports whether s is one of the performance bottlenecks.
func (p BoardPerformance) IsBottleneck(s domain.Status) bool {
	for _, b := range p.Bottlenecks {
		if b == s {
			return true
		}
	}
	return false
}

// StatusShare is a status count with its share of the board.
type StatusShare struct {
	Status     domain.Status `json:"status"`
	Count      int           `json:"count"`
	Percent    int           `json:"percent"`
	Bottleneck bool          `json:"bottleneck"`
}

// Shares returns one entry per status in board order.
func (p BoardPerformance) Shares() []StatusShare {
	out := make([]StatusShare, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		n := p.StatusCounts[s]
		out = append(out, StatusShare{
			Status:     s,
			Count:      n,
			Percent:    percent(n, p.TotalTasks),
			Bottleneck: p.IsBottleneck(s),
		})
	}
	return out
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}

// wholeDays counts full 24 hour periods from a to b, truncated toward zero.
func wholeDays(a, b time.Time) int {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return int(b.Sub(a) / (24 * time.Hour))
}
