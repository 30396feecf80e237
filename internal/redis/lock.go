package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinicdesk/internal/schedule"
)

var (
	ErrLockNotAcquired = errors.New("schedule lock not acquired")
	// ErrLockUnavailable wraps failures talking to Redis; fn has not run.
	ErrLockUnavailable = errors.New("schedule lock unavailable")
)

// Locker serializes check-and-write sections on one doctor's day.
type Locker interface {
	WithScheduleLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// ScheduleLockKey names the lock guarding a doctor's bookings on one date.
func ScheduleLockKey(tenantID string, doctorID uuid.UUID, date schedule.Date) string {
	return fmt.Sprintf("lock:schedule:%s:%s:%s", tenantID, doctorID, date)
}

type redisScheduleLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisScheduleLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisScheduleLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisScheduleLocker) WithScheduleLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLockUnavailable, err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	// fn must finish before the key can expire under it.
	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisScheduleLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release schedule lock: %w", err)
	}
	return nil
}
