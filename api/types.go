package api

import (
	"context"

	"github.com/kuzcou/plannerdig/domain"
)

// Storage is the record store the handlers work against. Every call is
// scoped to the workspace identified by userID.
type Storage interface {
	ListBoards(ctx context.Context, userID string) ([]domain.Board, error)
	GetBoard(ctx context.Context, userID, boardID string) (domain.Board, error)
	CreateBoard(ctx context.Context, userID string, b domain.Board) (domain.Board, error)
	ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error)
	GetTask(ctx context.Context, userID, taskID string) (domain.Task, error)
	CreateTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, userID, taskID string, p domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, userID, taskID string) error
	ListUsers(ctx context.Context, userID string) ([]domain.User, error)
	ListDiaryEntries(ctx context.Context, userID string) ([]domain.DiaryEntry, error)
	SaveDiaryEntry(ctx context.Context, userID string, e domain.DiaryEntry) (domain.DiaryEntry, error)
	DeleteDiaryEntry(ctx context.Context, userID, entryID string) error
	ListDiaryCategories(ctx context.Context, userID string) ([]domain.DiaryCategory, error)
	CreateDiaryCategory(ctx context.Context, userID string, c domain.DiaryCategory) (domain.DiaryCategory, error)
	PublishActivity(ctx context.Context, a domain.Activity) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper rejects repeated idempotency keys.
type Deduper interface {
	// Add records the key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove forgets a key so a failed create can be retried.
	Remove(ctx context.Context, userID, key string) error
}
