package board

import (
	"sort"

	"github.com/kuzcou/plannerdig/domain"
)

// Column is one status partition of a board.
type Column struct {
	Status domain.Status `json:"status"`
	Title  string        `json:"title"`
	Tasks  []domain.Task `json:"tasks"`
}

// Project groups tasks by status. Every status key is present, and each
// bucket is ordered by ascending rank with ties kept in input order.
func Project(tasks []domain.Task) map[domain.Status][]domain.Task {
	out := make(map[domain.Status][]domain.Task, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out[s] = []domain.Task{}
	}
	for _, t := range tasks {
		bucket, ok := out[t.Status]
		if !ok {
			continue
		}
		out[t.Status] = append(bucket, t)
	}
	for s, bucket := range out {
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].Rank < bucket[j].Rank })
		out[s] = bucket
	}
	return out
}

// Columns returns the projection as a slice in board order.
func Columns(tasks []domain.Task) []Column {
	byStatus := Project(tasks)
	cols := make([]Column, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		cols = append(cols, Column{Status: s, Title: s.Label(), Tasks: byStatus[s]})
	}
	return cols
}

// NextRank returns a rank that places a new task at the end of the status
// column: one past the current highest rank, or 0 for an empty column.
func NextRank(tasks []domain.Task, status domain.Status) float64 {
	found := false
	var highest float64
	for _, t := range tasks {
		if t.Status != status {
			continue
		}
		if !found || t.Rank > highest {
			highest = t.Rank
			found = true
		}
	}
	if !found {
		return 0
	}
	return highest + 1
}
