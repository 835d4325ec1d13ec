package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/kuzcou/plannerdig/board"
	"github.com/kuzcou/plannerdig/domain"
	"github.com/kuzcou/plannerdig/export"
	"github.com/kuzcou/plannerdig/report"
)

var errDuplicateRequest = errors.New("duplicate idempotency key")

type handler struct {
	store    Storage
	auth     Authenticator
	deduper  Deduper
	activity *activityPublisher
	log      *log.Logger
	now      func() time.Time
}

// Register wires up all API routes on the provided Echo instance. The
// returned function drains the activity publisher and should be called on
// shutdown. deduper may be nil, in which case Idempotency-Key is ignored.
func Register(e *echo.Echo, store Storage, auth Authenticator, deduper Deduper, logger *log.Logger, pool PoolConfig) func() {
	h := &handler{
		store:    store,
		auth:     auth,
		deduper:  deduper,
		activity: newActivityPublisher(store, logger, pool),
		log:      logger,
		now:      time.Now,
	}
	h.routes(e)
	return h.activity.Close
}

func (h *handler) routes(e *echo.Echo) {
	e.JSONSerializer = SonicSerializer{}
	e.GET("/healthz", healthz)

	g := e.Group("/api", RequestMetrics(h.log), GzipRequestMiddleware())
	g.GET("/boards", h.listBoards)
	g.POST("/boards", h.createBoard)
	g.GET("/boards/:board/columns", h.getColumns)
	g.POST("/boards/:board/tasks", h.createTask)
	g.GET("/boards/:board/reports/user", h.userReport)
	g.GET("/boards/:board/reports/board", h.boardReport)
	g.GET("/boards/:board/export/:kind", h.exportCSV)
	g.PATCH("/tasks/:task", h.updateTask)
	g.DELETE("/tasks/:task", h.deleteTask)
	g.POST("/tasks/:task/move", h.moveTask)
	g.GET("/users", h.listUsers)
	g.GET("/diary/entries", h.listDiaryEntries)
	g.POST("/diary/entries", h.createDiaryEntry)
	g.PATCH("/diary/entries/:entry", h.updateDiaryEntry)
	g.DELETE("/diary/entries/:entry", h.deleteDiaryEntry)
	g.GET("/diary/categories", h.listDiaryCategories)
	g.POST("/diary/categories", h.createDiaryCategory)
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// user authenticates the request and returns the workspace partition.
func (h *handler) user(c echo.Context) (string, error) {
	m := metricsFrom(c)
	start := time.Now()
	userID, err := h.auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	m.ObserveAuth(time.Since(start))
	if err != nil {
		m.Fail("auth", err)
		return "", echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return userID, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidBody),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errDuplicateRequest):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail records the failing stage and converts err into an HTTP error.
// Server errors are logged and their detail is not sent to the client.
func (h *handler) fail(c echo.Context, stage string, err error) error {
	metricsFrom(c).Fail(stage, err)
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.WithFields(log.Fields{
			"route": c.Path(),
			"stage": stage,
		}).Error(err)
		return echo.NewHTTPError(status, http.StatusText(status)).SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error()).SetInternal(err)
}

func (h *handler) record(userID, kind, entityType, entityID, boardID string) {
	h.activity.Publish(domain.Activity{
		ID:         uuid.NewString(),
		UserID:     userID,
		Type:       kind,
		EntityType: entityType,
		EntityID:   entityID,
		BoardID:    boardID,
		Time:       h.now().UTC(),
	})
}

func (h *handler) respond(c echo.Context, status int, body any, items int) error {
	m := metricsFrom(c)
	m.SetItems(items)
	start := time.Now()
	err := c.JSON(status, body)
	m.ObserveEncode(time.Since(start))
	if err != nil {
		m.Fail("encode_response", err)
	}
	return err
}

// boards

type boardRequest struct {
	Name string `json:"name"`
}

func (h *handler) listBoards(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	start := time.Now()
	boards, err := h.store.ListBoards(c.Request().Context(), userID)
	metricsFrom(c).ObserveFetch(time.Since(start))
	if err != nil {
		return h.fail(c, "storage", err)
	}
	if boards == nil {
		boards = []domain.Board{}
	}
	return h.respond(c, http.StatusOK, boards, len(boards))
}

func (h *handler) createBoard(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	var req boardRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, "decode", err)
	}
	b, err := domain.NewBoard(req.Name)
	if err != nil {
		return h.fail(c, "validate", err)
	}
	created, err := h.store.CreateBoard(c.Request().Context(), userID, b)
	if err != nil {
		return h.fail(c, "storage", err)
	}
	h.record(userID, domain.ActivityBoardCreated, "board", created.ID, created.ID)
	return h.respond(c, http.StatusCreated, created, 1)
}

// columns

type taskView struct {
	domain.Task
	DueState     board.DueState            `json:"dueState"`
	AssigneeName string                    `json:"assigneeName,omitempty"`
	Progress     *domain.ChecklistProgress `json:"progress,omitempty"`
}

type columnView struct {
	Status domain.Status `json:"status"`
	Title  string        `json:"title"`
	Count  int           `json:"count"`
	Tasks  []taskView    `json:"tasks"`
}

type columnsResponse struct {
	Columns  []columnView `json:"columns"`
	Total    int          `json:"total"`
	Filtered bool         `json:"filtered"`
}

func criteriaFrom(c echo.Context) (board.Criteria, error) {
	due, err := board.ParseDueBucket(c.QueryParam("due"))
	if err != nil {
		return board.Criteria{}, err
	}
	assignee := strings.TrimSpace(c.QueryParam("assignee"))
	if assignee == "" {
		assignee = board.AssigneeAll
	}
	return board.Criteria{Due: due, Assignee: assignee}, nil
}

func buildColumns(tasks []domain.Task, crit board.Criteria, users []domain.User, now time.Time) columnsResponse {
	filtered := board.Filter(tasks, crit, now)
	resp := columnsResponse{Total: len(filtered), Filtered: crit.Active()}
	for _, col := range board.Columns(filtered) {
		view := columnView{
			Status: col.Status,
			Title:  col.Title,
			Count:  len(col.Tasks),
			Tasks:  make([]taskView, 0, len(col.Tasks)),
		}
		for _, t := range col.Tasks {
			view.Tasks = append(view.Tasks, taskView{
				Task:         t,
				DueState:     board.StateOf(t, now),
				AssigneeName: domain.ShortName(users, t.Assignee),
				Progress:     domain.Progress(t.Checklist),
			})
		}
		resp.Columns = append(resp.Columns, view)
	}
	return resp
}

// boardTasks loads a board's tasks and the users used for assignee display.
// A failed user lookup only degrades display names.
func (h *handler) boardTasks(c echo.Context, userID, boardID string) ([]domain.Task, []domain.User, error) {
	ctx := c.Request().Context()
	m := metricsFrom(c)
	start := time.Now()
	defer func() { m.ObserveFetch(time.Since(start)) }()

	tasks, err := h.store.ListTasks(ctx, userID, boardID)
	if err != nil {
		return nil, nil, err
	}
	users, err := h.store.ListUsers(ctx, userID)
	if err != nil {
		h.log.WithFields(log.Fields{"user": userID, "board": boardID}).Warnf("list users: %v", err)
		users = nil
	}
	return tasks, users, nil
}

func (h *handler) getColumns(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	crit, err := criteriaFrom(c)
	if err != nil {
		return h.fail(c, "params", err)
	}
	tasks, users, err := h.boardTasks(c, userID, c.Param("board"))
	if err != nil {
		return h.fail(c, "storage", err)
	}
	resp := buildColumns(tasks, crit, users, h.now())
	return h.respond(c, http.StatusOK, resp, resp.Total)
}

// tasks

func (h *handler) createTask(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var in domain.TaskInput
	if err := decodeBody(c, &in); err != nil {
		return h.fail(c, "decode", err)
	}
	in.BoardID = c.Param("board")
	t, err := domain.NewTask(in)
	if err != nil {
		return h.fail(c, "validate", err)
	}

	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	if key != "" && h.deduper != nil {
		added, err := h.deduper.Add(ctx, userID, key)
		if err != nil {
			return h.fail(c, "dedupe", err)
		}
		if !added {
			return h.fail(c, "dedupe", errDuplicateRequest)
		}
	}
	forget := func() {
		if key == "" || h.deduper == nil {
			return
		}
		if err := h.deduper.Remove(ctx, userID, key); err != nil {
			h.log.WithFields(log.Fields{"user": userID, "key": key}).Errorf("dedupe rollback failed: %v", err)
		}
	}

	if _, err := h.store.GetBoard(ctx, userID, t.BoardID); err != nil {
		forget()
		return h.fail(c, "board", err)
	}
	start := time.Now()
	existing, err := h.store.ListTasks(ctx, userID, t.BoardID)
	metricsFrom(c).ObserveFetch(time.Since(start))
	if err != nil {
		forget()
		return h.fail(c, "storage", err)
	}
	t.Rank = board.NextRank(existing, t.Status)

	created, err := h.store.CreateTask(ctx, userID, t)
	if err != nil {
		forget()
		return h.fail(c, "storage", err)
	}
	h.record(userID, domain.ActivityTaskCreated, "task", created.ID, created.BoardID)
	return h.respond(c, http.StatusCreated, created, 1)
}

func (h *handler) updateTask(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	var p domain.TaskPatch
	if err := decodeBody(c, &p); err != nil {
		return h.fail(c, "decode", err)
	}
	if err := p.Validate(); err != nil {
		return h.fail(c, "validate", err)
	}
	updated, err := h.store.UpdateTask(c.Request().Context(), userID, c.Param("task"), p)
	if err != nil {
		return h.fail(c, "storage", err)
	}
	h.record(userID, domain.ActivityTaskUpdated, "task", updated.ID, updated.BoardID)
	return h.respond(c, http.StatusOK, updated, 1)
}

func (h *handler) deleteTask(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	taskID := c.Param("task")
	if err := h.store.DeleteTask(c.Request().Context(), userID, taskID); err != nil {
		return h.fail(c, "storage", err)
	}
	h.record(userID, domain.ActivityTaskDeleted, "task", taskID, "")
	return c.NoContent(http.StatusNoContent)
}

type moveRequest struct {
	Source      board.Location  `json:"source"`
	Destination *board.Location `json:"destination,omitempty"`
}

// moveTask applies a finished drag. A drop outside any column changes
// nothing. Otherwise the task is patched and the board's columns are
// refetched, so the response reflects the store rather than the client's
// optimistic view.
func (h *handler) moveTask(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	var req moveRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, "decode", err)
	}
	crit, err := criteriaFrom(c)
	if err != nil {
		return h.fail(c, "params", err)
	}
	patch, ok, err := board.Reorder(board.Drag{
		TaskID:      c.Param("task"),
		Source:      req.Source,
		Destination: req.Destination,
	})
	if err != nil {
		return h.fail(c, "validate", err)
	}
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}

	moved, err := h.store.UpdateTask(c.Request().Context(), userID, patch.TaskID, patch.TaskPatch())
	if err != nil {
		return h.fail(c, "storage", err)
	}
	h.record(userID, domain.ActivityTaskMoved, "task", moved.ID, moved.BoardID)

	tasks, users, err := h.boardTasks(c, userID, moved.BoardID)
	if err != nil {
		return h.fail(c, "refetch", err)
	}
	resp := buildColumns(tasks, crit, users, h.now())
	return h.respond(c, http.StatusOK, resp, resp.Total)
}

// reports

type userReportResponse struct {
	Assignee string `json:"assignee"`
	report.UserReport
}

type boardReportResponse struct {
	report.BoardPerformance
	Shares []report.StatusShare `json:"shares"`
}

func (h *handler) userReport(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	assignee := strings.TrimSpace(c.QueryParam("assignee"))
	if assignee == "" {
		assignee = report.AssigneeAll
	}
	tasks, _, err := h.boardTasks(c, userID, c.Param("board"))
	if err != nil {
		return h.fail(c, "storage", err)
	}
	r := report.User(tasks, assignee, h.now())
	return h.respond(c, http.StatusOK, userReportResponse{Assignee: assignee, UserReport: r}, r.Total)
}

func (h *handler) boardReport(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	tasks, _, err := h.boardTasks(c, userID, c.Param("board"))
	if err != nil {
		return h.fail(c, "storage", err)
	}
	perf := report.Performance(tasks)
	return h.respond(c, http.StatusOK, boardReportResponse{BoardPerformance: perf, Shares: perf.Shares()}, perf.TotalTasks)
}

func (h *handler) exportCSV(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	kind, err := export.ParseKind(c.Param("kind"))
	if err != nil {
		return h.fail(c, "params", err)
	}
	assignee := strings.TrimSpace(c.QueryParam("assignee"))
	if assignee == "" {
		assignee = report.AssigneeAll
	}
	tasks, _, err := h.boardTasks(c, userID, c.Param("board"))
	if err != nil {
		return h.fail(c, "storage", err)
	}
	doc, err := export.Render(kind, tasks, assignee, h.now())
	if err != nil {
		return h.fail(c, "render", err)
	}
	metricsFrom(c).SetItems(len(tasks))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	return c.Blob(http.StatusOK, export.ContentType, []byte(doc.Body))
}

func (h *handler) listUsers(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	start := time.Now()
	users, err := h.store.ListUsers(c.Request().Context(), userID)
	metricsFrom(c).ObserveFetch(time.Since(start))
	if err != nil {
		return h.fail(c, "storage", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return h.respond(c, http.StatusOK, users, len(users))
}
