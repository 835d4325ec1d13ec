package storage

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/kuzcou/plannerdig/domain"
)

const (
	edmInt64  = "Edm.Int64"
	edmDouble = "Edm.Double"
)

// entity holds the table keys. The service-managed Timestamp is never written.
type entity struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type taskEntity struct {
	entity
	BoardID       string  `json:"BoardID"`
	Title         string  `json:"Title"`
	Description   string  `json:"Description"`
	Status        string  `json:"Status"`
	Priority      string  `json:"Priority"`
	DueDate       string  `json:"DueDate"`
	Assignee      string  `json:"Assignee"`
	Checklist     string  `json:"Checklist"`
	Rank          float64 `json:"Rank"`
	RankType      string  `json:"Rank@odata.type,omitempty"`
	CreatedAt     int64   `json:"CreatedAt,string"`
	CreatedAtType string  `json:"CreatedAt@odata.type,omitempty"`
	UpdatedAt     int64   `json:"UpdatedAt,string"`
	UpdatedAtType string  `json:"UpdatedAt@odata.type,omitempty"`
}

func newTaskEntity(userID string, t domain.Task) (taskEntity, error) {
	checklist, err := encodeChecklist(t.Checklist)
	if err != nil {
		return taskEntity{}, err
	}
	return taskEntity{
		entity:        entity{PartitionKey: userID, RowKey: t.ID},
		BoardID:       t.BoardID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		DueDate:       t.DueDate,
		Assignee:      t.Assignee,
		Checklist:     checklist,
		Rank:          t.Rank,
		RankType:      edmDouble,
		CreatedAt:     t.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
		UpdatedAt:     t.UpdatedAt.UnixMilli(),
		UpdatedAtType: edmInt64,
	}, nil
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	checklist, err := decodeChecklist(ent.Checklist)
	if err != nil {
		return domain.Task{}, err
	}
	return domain.Task{
		ID:          ent.RowKey,
		BoardID:     ent.BoardID,
		Title:       ent.Title,
		Description: ent.Description,
		Status:      domain.Status(ent.Status),
		Priority:    domain.Priority(ent.Priority),
		DueDate:     ent.DueDate,
		Assignee:    ent.Assignee,
		Checklist:   checklist,
		Rank:        ent.Rank,
		CreatedAt:   fromMillis(ent.CreatedAt),
		UpdatedAt:   fromMillis(ent.UpdatedAt),
	}, nil
}

// taskPatchEntity builds a merge payload holding only the patched fields.
func taskPatchEntity(userID, taskID string, p domain.TaskPatch, updated time.Time) (map[string]any, error) {
	ent := map[string]any{
		"PartitionKey":         userID,
		"RowKey":               taskID,
		"UpdatedAt":            strconv.FormatInt(updated.UnixMilli(), 10),
		"UpdatedAt@odata.type": edmInt64,
	}
	patched := p.Apply(domain.Task{})
	if p.Title != nil {
		ent["Title"] = patched.Title
	}
	if p.Description != nil {
		ent["Description"] = patched.Description
	}
	if p.Status != nil {
		ent["Status"] = string(patched.Status)
	}
	if p.Priority != nil {
		ent["Priority"] = string(patched.Priority)
	}
	if p.DueDate != nil {
		ent["DueDate"] = patched.DueDate
	}
	if p.Assignee != nil {
		ent["Assignee"] = patched.Assignee
	}
	if p.Checklist != nil {
		checklist, err := encodeChecklist(patched.Checklist)
		if err != nil {
			return nil, err
		}
		ent["Checklist"] = checklist
	}
	if p.Rank != nil {
		ent["Rank"] = patched.Rank
		ent["Rank@odata.type"] = edmDouble
	}
	return ent, nil
}

// Tables have no list columns, so checklists are stored as JSON text.
func encodeChecklist(items []domain.ChecklistItem) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeChecklist(raw string) ([]domain.ChecklistItem, error) {
	if raw == "" {
		return nil, nil
	}
	var items []domain.ChecklistItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	return items, nil
}

type boardEntity struct {
	entity
	Name          string `json:"Name"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type,omitempty"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type,omitempty"`
}

func decodeBoard(data []byte) (domain.Board, error) {
	var ent boardEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Board{}, err
	}
	return domain.Board{
		ID:        ent.RowKey,
		Name:      ent.Name,
		CreatedAt: fromMillis(ent.CreatedAt),
		UpdatedAt: fromMillis(ent.UpdatedAt),
	}, nil
}

type userEntity struct {
	entity
	FullName string `json:"FullName"`
	Email    string `json:"Email"`
}

func decodeUser(data []byte) (domain.User, error) {
	var ent userEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.User{}, err
	}
	return domain.User{ID: ent.RowKey, FullName: ent.FullName, Email: ent.Email}, nil
}

type diaryEntryEntity struct {
	entity
	Title         string `json:"Title"`
	Content       string `json:"Content"`
	Category      string `json:"Category"`
	Favorite      bool   `json:"Favorite"`
	Tags          string `json:"Tags"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type,omitempty"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type,omitempty"`
}

func newDiaryEntryEntity(userID string, e domain.DiaryEntry) (diaryEntryEntity, error) {
	tags := ""
	if len(e.Tags) > 0 {
		data, err := json.Marshal(e.Tags)
		if err != nil {
			return diaryEntryEntity{}, err
		}
		tags = string(data)
	}
	return diaryEntryEntity{
		entity:        entity{PartitionKey: userID, RowKey: e.ID},
		Title:         e.Title,
		Content:       e.Content,
		Category:      e.Category,
		Favorite:      e.Favorite,
		Tags:          tags,
		CreatedAt:     e.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
		UpdatedAt:     e.UpdatedAt.UnixMilli(),
		UpdatedAtType: edmInt64,
	}, nil
}

func decodeDiaryEntry(data []byte) (domain.DiaryEntry, error) {
	var ent diaryEntryEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.DiaryEntry{}, err
	}
	var tags []string
	if ent.Tags != "" {
		if err := json.Unmarshal([]byte(ent.Tags), &tags); err != nil {
			return domain.DiaryEntry{}, err
		}
	}
	return domain.DiaryEntry{
		ID:        ent.RowKey,
		Title:     ent.Title,
		Content:   ent.Content,
		Category:  ent.Category,
		Favorite:  ent.Favorite,
		Tags:      tags,
		CreatedAt: fromMillis(ent.CreatedAt),
		UpdatedAt: fromMillis(ent.UpdatedAt),
	}, nil
}

type diaryCategoryEntity struct {
	entity
	Name string `json:"Name"`
	Icon string `json:"Icon"`
}

func decodeDiaryCategory(data []byte) (domain.DiaryCategory, error) {
	var ent diaryCategoryEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.DiaryCategory{}, err
	}
	return domain.DiaryCategory{ID: ent.RowKey, Name: ent.Name, Icon: domain.Icon(ent.Icon)}, nil
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
