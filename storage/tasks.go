package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/kuzcou/plannerdig/domain"
)

// ListTasks returns every task on the board.
func (s *Storage) ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error) {
	return listEntities(ctx, s.taskTable, partitionFilter(userID, "BoardID", boardID), decodeTask)
}

// GetTask loads a single task.
func (s *Storage) GetTask(ctx context.Context, userID, taskID string) (domain.Task, error) {
	return getEntity(ctx, s.taskTable, userID, taskID, decodeTask)
}

// CreateTask stores t under a new identity and returns the stored record.
func (s *Storage) CreateTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error) {
	now := s.now()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	ent, err := newTaskEntity(userID, t)
	if err != nil {
		return domain.Task{}, err
	}
	if err := addEntity(ctx, s.taskTable, ent); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// UpdateTask merges the patch into the stored task and returns the result.
// There is no version check: the last write wins.
func (s *Storage) UpdateTask(ctx context.Context, userID, taskID string, p domain.TaskPatch) (domain.Task, error) {
	ent, err := taskPatchEntity(userID, taskID, p, s.now())
	if err != nil {
		return domain.Task{}, err
	}
	if err := mergeEntity(ctx, s.taskTable, ent); err != nil {
		return domain.Task{}, err
	}
	return s.GetTask(ctx, userID, taskID)
}

// DeleteTask removes the task.
func (s *Storage) DeleteTask(ctx context.Context, userID, taskID string) error {
	return deleteEntity(ctx, s.taskTable, userID, taskID)
}
