package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kuzcou/plannerdig/domain"
)

type backend interface {
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

// Cache wraps a backend with Redis-backed caching of raw record lists. Any
// mutation evicts the affected lists so the next read refetches from the
// store. Derived views are never cached.
type Cache struct {
	backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{backend: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context, userID, boardID string) ([]domain.Task, error) {
	var tasks []domain.Task
	if c.loadField(ctx, tasksCacheKey(userID), boardID, &tasks) {
		return tasks, nil
	}
	tasks, err := c.backend.ListTasks(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}
	c.storeField(ctx, tasksCacheKey(userID), boardID, tasks)
	return tasks, nil
}

func (c *Cache) ListBoards(ctx context.Context, userID string) ([]domain.Board, error) {
	var boards []domain.Board
	if c.load(ctx, boardsCacheKey(userID), &boards) {
		return boards, nil
	}
	boards, err := c.backend.ListBoards(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, boardsCacheKey(userID), boards)
	return boards, nil
}

func (c *Cache) ListUsers(ctx context.Context, userID string) ([]domain.User, error) {
	var users []domain.User
	if c.load(ctx, usersCacheKey(userID), &users) {
		return users, nil
	}
	users, err := c.backend.ListUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, usersCacheKey(userID), users)
	return users, nil
}

func (c *Cache) CreateBoard(ctx context.Context, userID string, b domain.Board) (domain.Board, error) {
	created, err := c.backend.CreateBoard(ctx, userID, b)
	if err != nil {
		return domain.Board{}, err
	}
	c.evict(ctx, boardsCacheKey(userID))
	return created, nil
}

func (c *Cache) CreateTask(ctx context.Context, userID string, t domain.Task) (domain.Task, error) {
	created, err := c.backend.CreateTask(ctx, userID, t)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, tasksCacheKey(userID))
	return created, nil
}

func (c *Cache) UpdateTask(ctx context.Context, userID, taskID string, p domain.TaskPatch) (domain.Task, error) {
	updated, err := c.backend.UpdateTask(ctx, userID, taskID, p)
	// The merge may have landed even when the read-back failed.
	c.evict(ctx, tasksCacheKey(userID))
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

func (c *Cache) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := c.backend.DeleteTask(ctx, userID, taskID); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(userID))
	return nil
}

func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *Cache) loadField(ctx context.Context, key, field string, dst any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.HGet(ctx, key, field).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		_ = c.redis.HDel(ctx, key, field).Err()
		return false
	}
	return true
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) storeField(ctx context.Context, key, field string, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, field, data)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
}

func (c *Cache) evict(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, keys...).Result()
}

// Task lists of all boards in a workspace share one hash so a task mutation
// can evict them without knowing the board.
func tasksCacheKey(userID string) string {
	return "tasks:" + userID
}

func boardsCacheKey(userID string) string {
	return "boards:" + userID
}

func usersCacheKey(userID string) string {
	return "users:" + userID
}
