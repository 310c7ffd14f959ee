package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyplanner-backend/internal/logger"
)

// UserLocker serializes mutating operations per user. Different users never
// contend.
type UserLocker interface {
	Lock(ctx context.Context, userID uuid.UUID) (unlock func(), err error)
}

const lockRetryInterval = 25 * time.Millisecond

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisUserLocker holds a SETNX lock per user with a TTL so a crashed holder
// cannot wedge the account.
type RedisUserLocker struct {
	redis *redis.Client
	ttl   time.Duration
	wait  time.Duration
	log   *logger.Logger
}

func NewRedisUserLocker(client *redis.Client, ttl, wait time.Duration, log *logger.Logger) *RedisUserLocker {
	return &RedisUserLocker{redis: client, ttl: ttl, wait: wait, log: log}
}

func userLockKey(userID uuid.UUID) string {
	return fmt.Sprintf("progress_lock:%s", userID.String())
}

func (l *RedisUserLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	key := userLockKey(userID)
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	for {
		locked, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to acquire user lock: %w", err)
		}
		if locked {
			return func() {
				// release with a fresh context: the request may already be cancelled
				rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
				defer rcancel()
				if err := releaseScript.Run(rctx, l.redis, []string{key}, token).Err(); err != nil {
					l.log.Warn("failed to release user lock", "user_id", userID.String(), "error", err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, &ConflictError{Message: "Another update for this account is in progress. Please retry."}
		case <-time.After(lockRetryInterval):
		}
	}
}

// noopLocker is used where the store's row locks are enough, such as tests.
type noopLocker struct{}

func (noopLocker) Lock(context.Context, uuid.UUID) (func(), error) {
	return func() {}, nil
}
