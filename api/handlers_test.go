package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/kuzcou/plannerdig/domain"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type mockStore struct {
	mu         sync.Mutex
	boards     map[string]domain.Board
	tasks      map[string]domain.Task
	users      []domain.User
	entries    map[string]domain.DiaryEntry
	categories []domain.DiaryCategory
	activities []domain.Activity
	seq        int

	listErr   error
	updateErr error
	createErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		boards:  map[string]domain.Board{"b1": {ID: "b1", Name: "Home"}},
		tasks:   map[string]domain.Task{},
		entries: map[string]domain.DiaryEntry{},
	}
}

func (m *mockStore) nextID(prefix string) string {
	m.seq++
	return prefix + "-" + strconv.Itoa(m.seq)
}

func (m *mockStore) ListBoards(ctx context.Context, userID string) ([]domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Board, 0, len(m.boards))
	for _, b := range m.boards {
		out = append(out, b)
	}
	return out, nil
}

func (m *mockStore) GetBoard(ctx context.Context, userID, boardID string) (domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[boardID]
	if !ok {
		return domain.Board{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *mockStore) CreateBoard(ctx context.Context, userID string, b domain.Board) (domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.nextID("board")
	m.boards[b.ID] = b
	return b, nil
}

func (m *mockStore) ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Task
	for _, t := range m.tasks {
		if t.BoardID == boardID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) GetTask(ctx context.Context, userID, taskID string) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	return t, nil
}

func (m *mockStore) CreateTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return domain.Task{}, m.createErr
	}
	t.ID = m.nextID("task")
	t.CreatedAt = fixedNow
	t.UpdatedAt = fixedNow
	m.tasks[t.ID] = t
	return t, nil
}

func (m *mockStore) UpdateTask(ctx context.Context, userID, taskID string, p domain.TaskPatch) (domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return domain.Task{}, m.updateErr
	}
	t, ok := m.tasks[taskID]
	if !ok {
		return domain.Task{}, domain.ErrNotFound
	}
	t = p.Apply(t)
	m.tasks[taskID] = t
	return t, nil
}

func (m *mockStore) DeleteTask(ctx context.Context, userID, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[taskID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.tasks, taskID)
	return nil
}

func (m *mockStore) ListUsers(ctx context.Context, userID string) ([]domain.User, error) {
	return m.users, nil
}

func (m *mockStore) ListDiaryEntries(ctx context.Context, userID string) ([]domain.DiaryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.DiaryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockStore) SaveDiaryEntry(ctx context.Context, userID string, e domain.DiaryEntry) (domain.DiaryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = m.nextID("entry")
		e.CreatedAt = fixedNow
	} else {
		cur, ok := m.entries[e.ID]
		if !ok {
			return domain.DiaryEntry{}, domain.ErrNotFound
		}
		e.CreatedAt = cur.CreatedAt
	}
	m.entries[e.ID] = e
	return e, nil
}

func (m *mockStore) DeleteDiaryEntry(ctx context.Context, userID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, entryID)
	return nil
}

func (m *mockStore) ListDiaryCategories(ctx context.Context, userID string) ([]domain.DiaryCategory, error) {
	return m.categories, nil
}

func (m *mockStore) CreateDiaryCategory(ctx context.Context, userID string, c domain.DiaryCategory) (domain.DiaryCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID("cat")
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *mockStore) PublishActivity(ctx context.Context, a domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, a)
	return nil
}

func (m *mockStore) Activities() []domain.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Activity(nil), m.activities...)
}

func (m *mockStore) put(t domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
}

type mockAuth struct{}

func (mockAuth) UserIDFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", errMissingAuthorization
	}
	return "user", nil
}

type memDeduper struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (d *memDeduper) Add(ctx context.Context, userID, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys == nil {
		d.keys = map[string]bool{}
	}
	if d.keys[userID+key] {
		return false, nil
	}
	d.keys[userID+key] = true
	return true, nil
}

func (d *memDeduper) Remove(ctx context.Context, userID, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.keys, userID+key)
	return nil
}

func newTestServer(t *testing.T, store *mockStore, deduper Deduper) *echo.Echo {
	t.Helper()
	logger, _ := test.NewNullLogger()
	h := &handler{
		store:    store,
		auth:     mockAuth{},
		deduper:  deduper,
		activity: newActivityPublisher(store, logger, PoolConfig{Workers: 1, Buffer: 16}),
		log:      logger,
		now:      func() time.Time { return fixedNow },
	}
	t.Cleanup(h.activity.Close)
	e := echo.New()
	h.routes(e)
	return e
}

func do(e *echo.Echo, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer a.b.c")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := sonic.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func seedBoard(store *mockStore) {
	store.users = []domain.User{{ID: "u1", FullName: "Ana Souza", Email: "ana@example.com"}}
	store.put(domain.Task{ID: "t1", BoardID: "b1", Title: "late", Status: domain.StatusBacklog, DueDate: "2024-03-01", Rank: 1, Assignee: "ana@example.com"})
	store.put(domain.Task{ID: "t2", BoardID: "b1", Title: "today", Status: domain.StatusBacklog, DueDate: "2024-03-10", Rank: 0})
	store.put(domain.Task{ID: "t3", BoardID: "b1", Title: "done", Status: domain.StatusDone, Rank: 0,
		Checklist: []domain.ChecklistItem{{Text: "a", Done: true}, {Text: "b"}}})
	store.put(domain.Task{ID: "t4", BoardID: "other", Title: "elsewhere", Status: domain.StatusBacklog})
}

func TestUnauthorizedRequestsRejected(t *testing.T) {
	e := newTestServer(t, newMockStore(), nil)
	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t, newMockStore(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetColumnsProjectsAndFilters(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodGet, "/api/boards/b1/columns", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[columnsResponse](t, rec)
	if resp.Total != 3 || resp.Filtered {
		t.Fatalf("unexpected totals: %+v", resp)
	}
	if len(resp.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %d", len(resp.Columns))
	}
	backlog := resp.Columns[0]
	if backlog.Status != domain.StatusBacklog || backlog.Count != 2 {
		t.Fatalf("unexpected backlog column: %+v", backlog)
	}
	if backlog.Tasks[0].ID != "t2" || backlog.Tasks[1].ID != "t1" {
		t.Fatalf("expected rank order t2,t1, got %s,%s", backlog.Tasks[0].ID, backlog.Tasks[1].ID)
	}
	if backlog.Tasks[1].AssigneeName != "Ana" || backlog.Tasks[1].DueState != "overdue" {
		t.Fatalf("unexpected card decorations: %+v", backlog.Tasks[1])
	}
	done := resp.Columns[3]
	if done.Tasks[0].Progress == nil || done.Tasks[0].Progress.Percent != 50 {
		t.Fatalf("expected checklist progress 50%%, got %+v", done.Tasks[0].Progress)
	}

	rec = do(e, http.MethodGet, "/api/boards/b1/columns?due=overdue", "")
	resp = decode[columnsResponse](t, rec)
	if resp.Total != 1 || !resp.Filtered || resp.Columns[0].Tasks[0].ID != "t1" {
		t.Fatalf("unexpected overdue result: %+v", resp)
	}

	rec = do(e, http.MethodGet, "/api/boards/b1/columns?assignee=unassigned", "")
	resp = decode[columnsResponse](t, rec)
	if resp.Total != 2 {
		t.Fatalf("expected 2 unassigned tasks, got %d", resp.Total)
	}
}

func TestGetColumnsRejectsUnknownDueFilter(t *testing.T) {
	e := newTestServer(t, newMockStore(), nil)
	rec := do(e, http.MethodGet, "/api/boards/b1/columns?due=someday", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetColumnsStorageFailure(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("table down")
	e := newTestServer(t, store, nil)
	rec := do(e, http.MethodGet, "/api/boards/b1/columns", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "table down") {
		t.Fatalf("internal error leaked to client: %s", rec.Body.String())
	}
}

func TestCreateTaskAppendsToColumn(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodPost, "/api/boards/b1/tasks", `{"title":"  new  ","dueDate":"2024-03-12"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[domain.Task](t, rec)
	if created.Title != "new" || created.Status != domain.StatusBacklog || created.Priority != domain.PriorityMedium {
		t.Fatalf("unexpected defaults: %+v", created)
	}
	if created.Rank != 2 {
		t.Fatalf("expected rank 2 after ranks 0 and 1, got %v", created.Rank)
	}
	if created.BoardID != "b1" {
		t.Fatalf("expected board from path, got %q", created.BoardID)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "blankTitle", path: "/api/boards/b1/tasks", body: `{"title":"   "}`, want: http.StatusBadRequest},
		{name: "badStatus", path: "/api/boards/b1/tasks", body: `{"title":"x","status":"later"}`, want: http.StatusBadRequest},
		{name: "badDate", path: "/api/boards/b1/tasks", body: `{"title":"x","dueDate":"10/03/2024"}`, want: http.StatusBadRequest},
		{name: "unknownField", path: "/api/boards/b1/tasks", body: `{"title":"x","colour":"red"}`, want: http.StatusBadRequest},
		{name: "unknownBoard", path: "/api/boards/nope/tasks", body: `{"title":"x"}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			e := newTestServer(t, store, nil)
			rec := do(e, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if len(store.tasks) != 0 {
				t.Fatalf("no task should be stored")
			}
		})
	}
}

func TestCreateTaskIdempotencyKey(t *testing.T) {
	store := newMockStore()
	deduper := &memDeduper{}
	e := newTestServer(t, store, deduper)

	rec := do(e, http.MethodPost, "/api/boards/b1/tasks", `{"title":"once"}`, HeaderIdempotencyKey, "k1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec = do(e, http.MethodPost, "/api/boards/b1/tasks", `{"title":"once"}`, HeaderIdempotencyKey, "k1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on replay, got %d", rec.Code)
	}
	if len(store.tasks) != 1 {
		t.Fatalf("expected exactly one task, got %d", len(store.tasks))
	}
}

func TestCreateTaskFailureReleasesIdempotencyKey(t *testing.T) {
	store := newMockStore()
	store.createErr = errors.New("boom")
	deduper := &memDeduper{}
	e := newTestServer(t, store, deduper)

	rec := do(e, http.MethodPost, "/api/boards/b1/tasks", `{"title":"retry me"}`, HeaderIdempotencyKey, "k2")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	store.createErr = nil
	rec = do(e, http.MethodPost, "/api/boards/b1/tasks", `{"title":"retry me"}`, HeaderIdempotencyKey, "k2")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected retry to succeed, got %d", rec.Code)
	}
}

func TestUpdateTaskPatch(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodPatch, "/api/tasks/t1", `{"priority":"high","assignee":""}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[domain.Task](t, rec)
	if got.Priority != domain.PriorityHigh || got.Assignee != "" || got.Title != "late" {
		t.Fatalf("unexpected patched task: %+v", got)
	}

	if rec := do(e, http.MethodPatch, "/api/tasks/t1", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPatch, "/api/tasks/missing", `{"title":"x"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	if rec := do(e, http.MethodDelete, "/api/tasks/t2", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := store.tasks["t2"]; ok {
		t.Fatalf("task not deleted")
	}
	if rec := do(e, http.MethodDelete, "/api/tasks/t2", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestMoveTaskWithoutDestinationIsNoop(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodPost, "/api/tasks/t1/move", `{"source":{"status":"backlog","index":1}}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if store.tasks["t1"].Status != domain.StatusBacklog || store.tasks["t1"].Rank != 1 {
		t.Fatalf("task should be untouched: %+v", store.tasks["t1"])
	}
}

func TestMoveTaskPatchesAndRefetches(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodPost, "/api/tasks/t2/move",
		`{"source":{"status":"backlog","index":0},"destination":{"status":"done","index":1}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	moved := store.tasks["t2"]
	if moved.Status != domain.StatusDone || moved.Rank != 1 {
		t.Fatalf("unexpected stored task after move: %+v", moved)
	}
	resp := decode[columnsResponse](t, rec)
	done := resp.Columns[3]
	if done.Count != 2 || done.Tasks[0].ID != "t3" || done.Tasks[1].ID != "t2" {
		t.Fatalf("unexpected done column after refetch: %+v", done)
	}
}

func TestMoveTaskInvalidDestination(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodPost, "/api/tasks/t2/move",
		`{"source":{"status":"backlog","index":0},"destination":{"status":"archived","index":0}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMoveTaskStoreFailureSurfaces(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	store.updateErr = errors.New("conflict")
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodPost, "/api/tasks/t2/move",
		`{"source":{"status":"backlog","index":0},"destination":{"status":"done","index":0}}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestUserReportEndpoint(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodGet, "/api/boards/b1/reports/user", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[userReportResponse](t, rec)
	if got.Assignee != "all" || got.Total != 3 || got.Completed != 1 || got.Pending != 2 || got.CompletionRate != 33 {
		t.Fatalf("unexpected report: %+v", got)
	}
	// Due today counts as overdue once the day has started.
	if got.Overdue != 2 {
		t.Fatalf("expected two overdue tasks, got %d", got.Overdue)
	}

	rec = do(e, http.MethodGet, "/api/boards/b1/reports/user?assignee=ana@example.com", "")
	got = decode[userReportResponse](t, rec)
	if got.Total != 1 || got.Overdue != 1 {
		t.Fatalf("unexpected assignee report: %+v", got)
	}
}

func TestBoardReportEndpoint(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodGet, "/api/boards/b1/reports/board", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := decode[boardReportResponse](t, rec)
	if got.TotalTasks != 3 || got.StatusCounts[domain.StatusBacklog] != 2 {
		t.Fatalf("unexpected performance: %+v", got)
	}
	if len(got.Bottlenecks) != 1 || got.Bottlenecks[0] != domain.StatusBacklog {
		t.Fatalf("unexpected bottlenecks: %v", got.Bottlenecks)
	}
	if len(got.Shares) != 4 || got.Shares[0].Percent != 67 {
		t.Fatalf("unexpected shares: %+v", got.Shares)
	}
}

func TestExportCSVDownload(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	e := newTestServer(t, store, nil)

	rec := do(e, http.MethodGet, "/api/boards/b1/export/detailed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="detailed_2024-03-10.csv"` {
		t.Fatalf("unexpected disposition: %s", cd)
	}
	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\r\n"), "\r\n")
	if len(lines) != 4 || lines[0] != "Title,Status,Priority,Assignee,DueDate,CreatedDate" {
		t.Fatalf("unexpected csv: %q", rec.Body.String())
	}

	if rec := do(e, http.MethodGet, "/api/boards/b1/export/pdf", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestBoardsEndpoints(t *testing.T) {
	store := newMockStore()
	e := newTestServer(t, store, nil)

	if rec := do(e, http.MethodPost, "/api/boards", `{"name":" "}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec := do(e, http.MethodPost, "/api/boards", `{"name":"Work"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec = do(e, http.MethodGet, "/api/boards", "")
	boards := decode[[]domain.Board](t, rec)
	if len(boards) != 2 {
		t.Fatalf("expected 2 boards, got %d", len(boards))
	}
}

func TestMutationsPublishActivity(t *testing.T) {
	store := newMockStore()
	seedBoard(store)
	logger, _ := test.NewNullLogger()
	h := &handler{
		store:    store,
		auth:     mockAuth{},
		activity: newActivityPublisher(store, logger, PoolConfig{Workers: 1, Buffer: 16}),
		log:      logger,
		now:      func() time.Time { return fixedNow },
	}
	e := echo.New()
	h.routes(e)

	do(e, http.MethodPatch, "/api/tasks/t1", `{"title":"renamed"}`)
	do(e, http.MethodDelete, "/api/tasks/t2", "")
	h.activity.Close()

	acts := store.Activities()
	if len(acts) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(acts))
	}
	if acts[0].Type != domain.ActivityTaskUpdated || acts[0].EntityID != "t1" || acts[0].BoardID != "b1" {
		t.Fatalf("unexpected first activity: %+v", acts[0])
	}
	if acts[1].Type != domain.ActivityTaskDeleted || acts[1].UserID != "user" {
		t.Fatalf("unexpected second activity: %+v", acts[1])
	}
}
