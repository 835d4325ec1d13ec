package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/kuzcou/plannerdig/domain"
)

// ListBoards returns the boards of a workspace.
func (s *Storage) ListBoards(ctx context.Context, userID string) ([]domain.Board, error) {
	return listEntities(ctx, s.boardTable, partitionFilter(userID), decodeBoard)
}

// GetBoard loads a single board.
func (s *Storage) GetBoard(ctx context.Context, userID, boardID string) (domain.Board, error) {
	return getEntity(ctx, s.boardTable, userID, boardID, decodeBoard)
}

// CreateBoard stores b under a new identity.
func (s *Storage) CreateBoard(ctx context.Context, userID string, b domain.Board) (domain.Board, error) {
	now := s.now()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now
	ent := boardEntity{
		entity:        entity{PartitionKey: userID, RowKey: b.ID},
		Name:          b.Name,
		CreatedAt:     now.UnixMilli(),
		CreatedAtType: edmInt64,
		UpdatedAt:     now.UnixMilli(),
		UpdatedAtType: edmInt64,
	}
	if err := addEntity(ctx, s.boardTable, ent); err != nil {
		return domain.Board{}, err
	}
	return b, nil
}

// ListUsers returns the users known to a workspace.
func (s *Storage) ListUsers(ctx context.Context, userID string) ([]domain.User, error) {
	return listEntities(ctx, s.userTable, partitionFilter(userID), decodeUser)
}

// ListDiaryEntries returns every diary entry of a workspace.
func (s *Storage) ListDiaryEntries(ctx context.Context, userID string) ([]domain.DiaryEntry, error) {
	return listEntities(ctx, s.entryTable, partitionFilter(userID), decodeDiaryEntry)
}

// SaveDiaryEntry creates e when it has no id and replaces the stored entry otherwise.
func (s *Storage) SaveDiaryEntry(ctx context.Context, userID string, e domain.DiaryEntry) (domain.DiaryEntry, error) {
	now := s.now()
	e.UpdatedAt = now
	if e.ID == "" {
		e.ID = uuid.NewString()
		e.CreatedAt = now
		ent, err := newDiaryEntryEntity(userID, e)
		if err != nil {
			return domain.DiaryEntry{}, err
		}
		if err := addEntity(ctx, s.entryTable, ent); err != nil {
			return domain.DiaryEntry{}, err
		}
		return e, nil
	}

	current, err := getEntity(ctx, s.entryTable, userID, e.ID, decodeDiaryEntry)
	if err != nil {
		return domain.DiaryEntry{}, err
	}
	e.CreatedAt = current.CreatedAt
	ent, err := newDiaryEntryEntity(userID, e)
	if err != nil {
		return domain.DiaryEntry{}, err
	}
	if err := mergeEntity(ctx, s.entryTable, ent); err != nil {
		return domain.DiaryEntry{}, err
	}
	return e, nil
}

// DeleteDiaryEntry removes the entry.
func (s *Storage) DeleteDiaryEntry(ctx context.Context, userID, entryID string) error {
	return deleteEntity(ctx, s.entryTable, userID, entryID)
}

// ListDiaryCategories returns the diary categories of a workspace.
func (s *Storage) ListDiaryCategories(ctx context.Context, userID string) ([]domain.DiaryCategory, error) {
	return listEntities(ctx, s.categoryTable, partitionFilter(userID), decodeDiaryCategory)
}

// CreateDiaryCategory stores c under a new identity.
func (s *Storage) CreateDiaryCategory(ctx context.Context, userID string, c domain.DiaryCategory) (domain.DiaryCategory, error) {
	c.ID = uuid.NewString()
	ent := diaryCategoryEntity{
		entity: entity{PartitionKey: userID, RowKey: c.ID},
		Name:   c.Name,
		Icon:   string(c.Icon),
	}
	if err := addEntity(ctx, s.categoryTable, ent); err != nil {
		return domain.DiaryCategory{}, err
	}
	return c, nil
}
