package storage

import (
	"context"
	"encoding/json"

	"github.com/kuzcou/plannerdig/domain"
)

// PublishActivity enqueues a to the activity queue. It is a no-op when no
// queue is configured.
func (s *Storage) PublishActivity(ctx context.Context, a domain.Activity) error {
	if s.activityQueue == nil {
		return nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	_, err = s.activityQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
