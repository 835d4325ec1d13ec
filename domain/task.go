package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for due dates on the wire and in storage.
const DateLayout = "2006-01-02"

// Status is the column a task sits in.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusReview, StatusDone}

// IsValidStatus reports whether s is one of the four board statuses.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusBacklog, StatusInProgress, StatusReview, StatusDone:
		return true
	default:
		return false
	}
}

// Label returns the human readable column title.
func (s Status) Label() string {
	switch s {
	case StatusBacklog:
		return "Backlog"
	case StatusInProgress:
		return "In Progress"
	case StatusReview:
		return "Review"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// Priority represents the importance of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ChecklistItem is a single checkbox line on a task.
type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Task represents a single card on a board.
type Task struct {
	ID          string          `json:"id"`
	BoardID     string          `json:"boardId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      Status          `json:"status"`
	Priority    Priority        `json:"priority"`
	DueDate     string          `json:"dueDate,omitempty"`
	Assignee    string          `json:"assignee,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	Rank        float64         `json:"rank"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Due parses the due date. ok is false when the task has no usable due date.
func (t Task) Due() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// TaskInput carries the user supplied fields for a new task.
type TaskInput struct {
	BoardID     string          `json:"boardId"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      Status          `json:"status,omitempty"`
	Priority    Priority        `json:"priority,omitempty"`
	DueDate     string          `json:"dueDate,omitempty"`
	Assignee    string          `json:"assignee,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
}

// NewTask validates in and returns a task with defaults applied. Identity,
// rank and timestamps are left for the caller and the store.
func NewTask(in TaskInput) (Task, error) {
	t := Task{
		BoardID:     strings.TrimSpace(in.BoardID),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     strings.TrimSpace(in.DueDate),
		Assignee:    strings.TrimSpace(in.Assignee),
		Checklist:   in.Checklist,
	}
	if t.Title == "" {
		return Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if t.BoardID == "" {
		return Task{}, fmt.Errorf("%w: board is required", ErrValidation)
	}
	if t.Status == "" {
		t.Status = StatusBacklog
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if err := validateEnums(t.Status, t.Priority); err != nil {
		return Task{}, err
	}
	if err := validateDueDate(t.DueDate); err != nil {
		return Task{}, err
	}
	return t, nil
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Status      *Status          `json:"status,omitempty"`
	Priority    *Priority        `json:"priority,omitempty"`
	DueDate     *string          `json:"dueDate,omitempty"`
	Assignee    *string          `json:"assignee,omitempty"`
	Checklist   *[]ChecklistItem `json:"checklist,omitempty"`
	Rank        *float64         `json:"rank,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.DueDate == nil && p.Assignee == nil && p.Checklist == nil && p.Rank == nil
}

// Validate checks the fields that are set. An empty due date or assignee
// clears the value.
func (p TaskPatch) Validate() error {
	if p.Empty() {
		return fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if p.Status != nil && !IsValidStatus(*p.Status) {
		return fmt.Errorf("%w %q", ErrInvalidStatus, *p.Status)
	}
	if p.Priority != nil && !IsValidPriority(*p.Priority) {
		return fmt.Errorf("%w %q", ErrInvalidPriority, *p.Priority)
	}
	if p.DueDate != nil {
		return validateDueDate(strings.TrimSpace(*p.DueDate))
	}
	return nil
}

// Apply returns a copy of t with the patch fields written over it.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = strings.TrimSpace(*p.DueDate)
	}
	if p.Assignee != nil {
		t.Assignee = strings.TrimSpace(*p.Assignee)
	}
	if p.Checklist != nil {
		t.Checklist = append([]ChecklistItem(nil), (*p.Checklist)...)
	}
	if p.Rank != nil {
		t.Rank = *p.Rank
	}
	return t
}

func validateEnums(s Status, p Priority) error {
	if !IsValidStatus(s) {
		return fmt.Errorf("%w %q", ErrInvalidStatus, s)
	}
	if !IsValidPriority(p) {
		return fmt.Errorf("%w %q", ErrInvalidPriority, p)
	}
	return nil
}

func validateDueDate(v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, v); err != nil {
		return fmt.Errorf("%w: due date must be yyyy-MM-dd", ErrValidation)
	}
	return nil
}

// AddChecklistItem appends a trimmed, unchecked item. Blank text is ignored.
func AddChecklistItem(items []ChecklistItem, text string) []ChecklistItem {
	text = strings.TrimSpace(text)
	if text == "" {
		return items
	}
	out := make([]ChecklistItem, len(items), len(items)+1)
	copy(out, items)
	return append(out, ChecklistItem{Text: text})
}

// ToggleChecklistItem flips the item at index i. Out of range indexes are a no-op.
func ToggleChecklistItem(items []ChecklistItem, i int) []ChecklistItem {
	out := append([]ChecklistItem(nil), items...)
	if i >= 0 && i < len(out) {
		out[i].Done = !out[i].Done
	}
	return out
}

// RemoveChecklistItem drops the item at index i.
func RemoveChecklistItem(items []ChecklistItem, i int) []ChecklistItem {
	if i < 0 || i >= len(items) {
		return append([]ChecklistItem(nil), items...)
	}
	out := make([]ChecklistItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

// ChecklistProgress summarises how much of a checklist is done.
type ChecklistProgress struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// Progress returns nil for an empty checklist.
func Progress(items []ChecklistItem) *ChecklistProgress {
	if len(items) == 0 {
		return nil
	}
	done := 0
	for _, it := range items {
		if it.Done {
			done++
		}
	}
	return &ChecklistProgress{
		Done:    done,
		Total:   len(items),
		Percent: int(math.Round(float64(done) / float64(len(items)) * 100)),
	}
}
