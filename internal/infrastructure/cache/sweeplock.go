package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tillpoint/tillpoint/internal/shared/constants"
	"github.com/tillpoint/tillpoint/internal/shared/logger"
)

const defaultSweepLockTTL = 15 * time.Minute

// releaseSweepLockScript deletes the lock only while it still carries the
// holder's token, so a lease that expired and was taken over is left alone.
var releaseSweepLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SweepLock is a Redis lease that admits one sweep pass at a time across
// every process sharing the checkpoint. The TTL bounds how long a crashed
// holder blocks later passes.
type SweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger logger.Interface
}

func NewSweepLock(client *redis.Client, ttl time.Duration, log logger.Interface) *SweepLock {
	if ttl <= 0 {
		ttl = defaultSweepLockTTL
	}
	return &SweepLock{
		client: client,
		key:    constants.RedisKeySweepLock,
		ttl:    ttl,
		logger: log,
	}
}

// TryAcquire takes the lease if nobody holds it. acquired is false when
// another pass is running; release is nil in that case.
func (l *SweepLock) TryAcquire(ctx context.Context) (release func(), acquired bool, err error) {
	token := uuid.NewString()

	acquired, err = l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	release = func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseSweepLockScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); err != nil {
			l.logger.Warnw("failed to release sweep lock, it expires on its own",
				"ttl", l.ttl,
				"error", err,
			)
		}
	}
	return release, true, nil
}
