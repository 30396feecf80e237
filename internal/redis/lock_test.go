package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/hackgods/clinicdesk/internal/schedule"
)

func TestScheduleLockKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a4e-1111-4a7a-9d55-0a0b0c0d0e0f")
	assert.Equal(t,
		"lock:schedule:north:6f1c2a4e-1111-4a7a-9d55-0a0b0c0d0e0f:2026-03-02",
		ScheduleLockKey("north", id, schedule.NewDate(2026, time.March, 2)))
}

func TestWithScheduleLock_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ran := false
	err := NewRedisScheduleLocker(client, time.Second).WithScheduleLock(context.Background(), "lock:schedule:test", func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrLockUnavailable)
	assert.NotErrorIs(t, err, ErrLockNotAcquired)
	assert.False(t, ran)
}
