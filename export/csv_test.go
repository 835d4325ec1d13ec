package export

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kuzcou/plannerdig/domain"
	"github.com/kuzcou/plannerdig/report"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func lines(body string) []string {
	return strings.Split(strings.TrimSuffix(body, "\r\n"), "\r\n")
}

func TestUserCSV(t *testing.T) {
	body := UserCSV(report.UserReport{Total: 4, Completed: 2, InProgress: 1, Pending: 1, CompletionRate: 50})
	got := lines(body)
	if len(got) != 8 {
		t.Fatalf("expected 8 lines, got %d: %q", len(got), body)
	}
	if got[0] != "Metric,Value" || got[1] != "Total Tasks,4" || got[7] != "Completion Rate,50%" {
		t.Fatalf("unexpected rows: %q", got)
	}
	if !strings.HasSuffix(body, "\r\n") {
		t.Fatalf("rows must end with CRLF")
	}
}

func TestBoardCSV(t *testing.T) {
	p := report.Performance([]domain.Task{
		{Status: domain.StatusBacklog},
		{Status: domain.StatusInProgress},
	})
	got := lines(BoardCSV(p))
	if got[2] != "Backlog,1" || got[3] != "In Progress,1" {
		t.Fatalf("unexpected status rows: %q", got)
	}
	if got[len(got)-1] != "Bottlenecks,backlog; in_progress" {
		t.Fatalf("unexpected bottleneck row: %q", got[len(got)-1])
	}
	if last := lines(BoardCSV(report.Performance(nil))); last[len(last)-1] != "Bottlenecks,None" {
		t.Fatalf("expected None for an empty board, got %q", last)
	}
}

func TestDetailedCSV(t *testing.T) {
	created := time.Date(2024, 2, 5, 8, 0, 0, 0, time.UTC)
	tasks := []domain.Task{
		{Title: `Say "hi", twice`, Status: domain.StatusReview, Priority: domain.PriorityHigh, Assignee: "ana@example.com", DueDate: "2024-03-12", CreatedAt: created},
		{Title: "Plain", Status: domain.StatusBacklog, Priority: domain.PriorityLow, CreatedAt: created},
	}
	got := lines(DetailedCSV(tasks))
	if got[0] != "Title,Status,Priority,Assignee,DueDate,CreatedDate" {
		t.Fatalf("unexpected header: %q", got[0])
	}
	if got[1] != `"Say ""hi"", twice",review,high,ana@example.com,12/03/2024,05/02/2024` {
		t.Fatalf("unexpected row: %q", got[1])
	}
	if got[2] != `"Plain",backlog,low,Unassigned,No due date,05/02/2024` {
		t.Fatalf("unexpected row: %q", got[2])
	}
}

func TestRender(t *testing.T) {
	tasks := []domain.Task{
		{Title: "a", Status: domain.StatusDone, Assignee: "ana@example.com"},
		{Title: "b", Status: domain.StatusBacklog, Assignee: "bo@example.com"},
	}
	doc, err := Render(KindDetailed, tasks, "ana@example.com", now)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if doc.Filename != "detailed_2024-03-10.csv" {
		t.Fatalf("unexpected filename: %s", doc.Filename)
	}
	if n := len(lines(doc.Body)); n != 2 {
		t.Fatalf("expected header plus one row, got %d", n)
	}

	if _, err := Render("pdf", tasks, report.AssigneeAll, now); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseKind("board"); err != nil {
		t.Fatalf("parse kind: %v", err)
	}
}
