package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kuzcou/plannerdig/diary"
	"github.com/kuzcou/plannerdig/domain"
)

type diaryEntryRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Favorite bool     `json:"favorite,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func (r diaryEntryRequest) entry(id string) (domain.DiaryEntry, error) {
	var tags []string
	for _, t := range r.Tags {
		tags = diary.AddTag(tags, t)
	}
	return domain.NewDiaryEntry(domain.DiaryEntry{
		ID:       id,
		Title:    r.Title,
		Content:  r.Content,
		Category: r.Category,
		Favorite: r.Favorite,
		Tags:     tags,
	})
}

type diaryEntryView struct {
	domain.DiaryEntry
	Icon domain.Icon `json:"icon"`
}

type diaryEntriesResponse struct {
	Entries []diaryEntryView `json:"entries"`
	// Days lists every day with at least one entry, for calendar marks.
	Days []string `json:"days"`
}

func (h *handler) listDiaryEntries(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	window, err := diary.ParseWindow(c.QueryParam("window"))
	if err != nil {
		return h.fail(c, "params", err)
	}
	category := strings.TrimSpace(c.QueryParam("category"))
	if category == "" {
		category = diary.CategoryAll
	}
	var day time.Time
	if raw := c.QueryParam("day"); raw != "" {
		if day, err = time.Parse(domain.DateLayout, raw); err != nil {
			return h.fail(c, "params", fmt.Errorf("%w: day must be yyyy-MM-dd", domain.ErrValidation))
		}
	}

	ctx := c.Request().Context()
	start := time.Now()
	entries, err := h.store.ListDiaryEntries(ctx, userID)
	if err != nil {
		metricsFrom(c).ObserveFetch(time.Since(start))
		return h.fail(c, "storage", err)
	}
	categories, err := h.store.ListDiaryCategories(ctx, userID)
	metricsFrom(c).ObserveFetch(time.Since(start))
	if err != nil {
		h.log.WithField("user", userID).Warnf("list diary categories: %v", err)
	}

	diary.NewestFirst(entries)
	selected := diary.Filter(entries, category, window, h.now())
	if !day.IsZero() {
		selected = diary.OnDay(selected, day)
	}

	resp := diaryEntriesResponse{
		Entries: make([]diaryEntryView, 0, len(selected)),
		Days:    []string{},
	}
	for _, e := range selected {
		resp.Entries = append(resp.Entries, diaryEntryView{DiaryEntry: e, Icon: domain.IconFor(categories, e.Category)})
	}
	for _, d := range diary.DaysWithEntries(entries) {
		resp.Days = append(resp.Days, d.Format(domain.DateLayout))
	}
	return h.respond(c, http.StatusOK, resp, len(resp.Entries))
}

func (h *handler) createDiaryEntry(c echo.Context) error {
	return h.saveDiaryEntry(c, "", http.StatusCreated)
}

func (h *handler) updateDiaryEntry(c echo.Context) error {
	return h.saveDiaryEntry(c, c.Param("entry"), http.StatusOK)
}

func (h *handler) saveDiaryEntry(c echo.Context, id string, status int) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	var req diaryEntryRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, "decode", err)
	}
	e, err := req.entry(id)
	if err != nil {
		return h.fail(c, "validate", err)
	}
	saved, err := h.store.SaveDiaryEntry(c.Request().Context(), userID, e)
	if err != nil {
		return h.fail(c, "storage", err)
	}
	h.record(userID, domain.ActivityDiarySaved, "diary-entry", saved.ID, "")
	return h.respond(c, status, saved, 1)
}

func (h *handler) deleteDiaryEntry(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	id := c.Param("entry")
	if err := h.store.DeleteDiaryEntry(c.Request().Context(), userID, id); err != nil {
		return h.fail(c, "storage", err)
	}
	h.record(userID, domain.ActivityDiaryDeleted, "diary-entry", id, "")
	return c.NoContent(http.StatusNoContent)
}

type diaryCategoryRequest struct {
	Name string      `json:"name"`
	Icon domain.Icon `json:"icon,omitempty"`
}

func (h *handler) listDiaryCategories(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	start := time.Now()
	categories, err := h.store.ListDiaryCategories(c.Request().Context(), userID)
	metricsFrom(c).ObserveFetch(time.Since(start))
	if err != nil {
		return h.fail(c, "storage", err)
	}
	if categories == nil {
		categories = []domain.DiaryCategory{}
	}
	return h.respond(c, http.StatusOK, categories, len(categories))
}

func (h *handler) createDiaryCategory(c echo.Context) error {
	userID, err := h.user(c)
	if err != nil {
		return err
	}
	var req diaryCategoryRequest
	if err := decodeBody(c, &req); err != nil {
		return h.fail(c, "decode", err)
	}
	cat, err := domain.NewDiaryCategory(req.Name, req.Icon)
	if err != nil {
		return h.fail(c, "validate", err)
	}
	created, err := h.store.CreateDiaryCategory(c.Request().Context(), userID, cat)
	if err != nil {
		return h.fail(c, "storage", err)
	}
	return h.respond(c, http.StatusCreated, created, 1)
}
