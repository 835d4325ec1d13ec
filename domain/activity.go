package domain

import "time"

const (
	ActivityTaskCreated  = "task-created"
	ActivityTaskUpdated  = "task-updated"
	ActivityTaskMoved    = "task-moved"
	ActivityTaskDeleted  = "task-deleted"
	ActivityBoardCreated = "board-created"
	ActivityDiarySaved   = "diary-entry-saved"
	ActivityDiaryDeleted = "diary-entry-deleted"
)

// Activity records a mutation for downstream consumers of the activity feed.
type Activity struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Type       string    `json:"type"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	BoardID    string    `json:"boardId,omitempty"`
	Time       time.Time `json:"time"`
}
