package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tillpoint/tillpoint/internal/application/subscription/usecases"
	"github.com/tillpoint/tillpoint/internal/shared/constants"
)

const defaultCheckpointTTL = 6 * time.Hour

// SweepCheckpointStore keeps the progress of the running subscription sweep
// so a restarted process resumes after the last completed page. The key
// expires so an abandoned pass does not pin future sweeps to a stale cursor.
type SweepCheckpointStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewSweepCheckpointStore(client *redis.Client, ttl time.Duration) *SweepCheckpointStore {
	if ttl <= 0 {
		ttl = defaultCheckpointTTL
	}
	return &SweepCheckpointStore{
		client: client,
		key:    constants.RedisKeySweepCheckpoint,
		ttl:    ttl,
	}
}

// Load returns nil when no pass is in progress.
func (s *SweepCheckpointStore) Load(ctx context.Context) (*usecases.SweepCheckpoint, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sweep checkpoint: %w", err)
	}

	var checkpoint usecases.SweepCheckpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sweep checkpoint: %w", err)
	}
	return &checkpoint, nil
}

func (s *SweepCheckpointStore) Save(ctx context.Context, checkpoint usecases.SweepCheckpoint) error {
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to marshal sweep checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save sweep checkpoint: %w", err)
	}
	return nil
}

func (s *SweepCheckpointStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear sweep checkpoint: %w", err)
	}
	return nil
}
