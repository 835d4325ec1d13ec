// Package export renders reports and task listings as CSV documents.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kuzcou/plannerdig/domain"
	"github.com/kuzcou/plannerdig/report"
)

// Kind selects the exported document.
type Kind string

const (
	KindUser     Kind = "user"
	KindBoard    Kind = "board"
	KindDetailed Kind = "detailed"
)

const (
	lineEnd        = "\r\n"
	dateLayout     = "02/01/2006"
	fileDateLayout = "2006-01-02"

	// UnassignedLabel and NoDueDateLabel fill empty detailed columns.
	UnassignedLabel = "Unassigned"
	NoDueDateLabel  = "No due date"

	// ContentType is sent with downloaded documents.
	ContentType = "text/csv; charset=utf-8"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindUser, KindBoard, KindDetailed:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown export kind %q", domain.ErrValidation, s)
	}
}

// Filename returns <kind>_<yyyy-MM-dd>.csv for the day of now.
func Filename(kind Kind, now time.Time) string {
	return string(kind) + "_" + now.Format(fileDateLayout) + ".csv"
}

// Document is a rendered export ready to be written or downloaded.
type Document struct {
	Filename string
	Body     string
}

// Render builds the document of the given kind from a board's tasks. The
// user and detailed kinds are narrowed to assignee unless it is "all".
func Render(kind Kind, tasks []domain.Task, assignee string, now time.Time) (Document, error) {
	var body string
	switch kind {
	case KindUser:
		body = UserCSV(report.User(tasks, assignee, now))
	case KindBoard:
		body = BoardCSV(report.Performance(tasks))
	case KindDetailed:
		body = DetailedCSV(report.ForAssignee(tasks, assignee))
	default:
		return Document{}, fmt.Errorf("%w: unknown export kind %q", domain.ErrValidation, kind)
	}
	return Document{Filename: Filename(kind, now), Body: body}, nil
}

type table struct {
	b strings.Builder
}

func (t *table) row(cells ...string) {
	t.b.WriteString(strings.Join(cells, ","))
	t.b.WriteString(lineEnd)
}

func (t *table) metric(name string, value string) {
	t.row(name, value)
}

// UserCSV renders a user report as a Metric,Value table.
func UserCSV(r report.UserReport) string {
	var t table
	t.row("Metric", "Value")
	t.metric("Total Tasks", strconv.Itoa(r.Total))
	t.metric("Completed", strconv.Itoa(r.Completed))
	t.metric("In Progress", strconv.Itoa(r.InProgress))
	t.metric("Pending", strconv.Itoa(r.Pending))
	t.metric("In Review", strconv.Itoa(r.Review))
	t.metric("Overdue", strconv.Itoa(r.Overdue))
	t.metric("Completion Rate", strconv.Itoa(r.CompletionRate)+"%")
	return t.b.String()
}

// BoardCSV renders board performance as a Metric,Value table.
func BoardCSV(p report.BoardPerformance) string {
	var t table
	t.row("Metric", "Value")
	t.metric("Total Tasks", strconv.Itoa(p.TotalTasks))
	for _, s := range domain.Statuses {
		t.metric(s.Label(), strconv.Itoa(p.StatusCounts[s]))
	}
	t.metric("Avg Completion Time", strconv.Itoa(p.AvgCompletionDays)+" days")
	bottlenecks := "None"
	if len(p.Bottlenecks) > 0 {
		names := make([]string, len(p.Bottlenecks))
		for i, s := range p.Bottlenecks {
			names[i] = string(s)
		}
		bottlenecks = strings.Join(names, "; ")
	}
	t.metric("Bottlenecks", bottlenecks)
	return t.b.String()
}

// DetailedCSV renders one row per task. Only the title is quoted; the other
// columns are enum values, identifiers or formatted dates.
func DetailedCSV(tasks []domain.Task) string {
	var t table
	t.row("Title", "Status", "Priority", "Assignee", "DueDate", "CreatedDate")
	for _, task := range tasks {
		assignee := task.Assignee
		if assignee == "" {
			assignee = UnassignedLabel
		}
		due := NoDueDateLabel
		if d, ok := task.Due(); ok {
			due = d.Format(dateLayout)
		}
		t.row(
			quote(task.Title),
			string(task.Status),
			string(task.Priority),
			assignee,
			due,
			task.CreatedAt.Format(dateLayout),
		)
	}
	return t.b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
