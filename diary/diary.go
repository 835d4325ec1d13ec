// Package diary filters and organises diary entries in memory.
package diary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kuzcou/plannerdig/domain"
)

// Window limits entries by creation time.
type Window string

const (
	WindowAll   Window = "all"
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

// CategoryAll matches every category.
const CategoryAll = "all"

// ParseWindow validates a window name. Empty means all.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "", WindowAll:
		return WindowAll, nil
	case WindowToday, WindowWeek, WindowMonth:
		return Window(s), nil
	default:
		return "", fmt.Errorf("%w: unknown date window %q", domain.ErrValidation, s)
	}
}

// Filter keeps entries in category (or all) created inside window, in input order.
func Filter(entries []domain.DiaryEntry, category string, window Window, now time.Time) []domain.DiaryEntry {
	out := make([]domain.DiaryEntry, 0, len(entries))
	for _, e := range entries {
		if category != "" && category != CategoryAll && e.Category != category {
			continue
		}
		if !inWindow(e.CreatedAt, window, now) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func inWindow(created time.Time, w Window, now time.Time) bool {
	switch w {
	case WindowToday:
		return sameDay(created, now)
	case WindowWeek:
		return !created.Before(now.AddDate(0, 0, -7))
	case WindowMonth:
		return !created.Before(now.AddDate(0, -1, 0))
	default:
		return true
	}
}

// OnDay returns the entries created on the calendar day of day.
func OnDay(entries []domain.DiaryEntry, day time.Time) []domain.DiaryEntry {
	var out []domain.DiaryEntry
	for _, e := range entries {
		if sameDay(e.CreatedAt, day) {
			out = append(out, e)
		}
	}
	return out
}

// DaysWithEntries lists the distinct calendar days that have entries, oldest first.
func DaysWithEntries(entries []domain.DiaryEntry) []time.Time {
	seen := make(map[time.Time]struct{}, len(entries))
	days := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		y, m, d := e.CreatedAt.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, e.CreatedAt.Location())
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// NewestFirst sorts entries by creation time, most recent first.
func NewestFirst(entries []domain.DiaryEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
}

// AddTag appends the trimmed tag unless it is blank or already present.
func AddTag(tags []string, tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return tags
	}
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(append([]string(nil), tags...), tag)
}

// RemoveTag drops every occurrence of tag.
func RemoveTag(tags []string, tag string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
