package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/loanflow/pkg/adapters/redis"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newMini(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:s1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:s1"))
}

func TestRedisLocker_Contention(t *testing.T) {
	_, client := newMini(t)
	first := redis.NewLocker(client, "test:")
	second := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := first.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	_, err = second.Lock(short, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	unlock2, err := second.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	assert.NoError(t, unlock2(ctx))
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	mr, client := newMini(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Second)
	require.NoError(t, err)

	// Our lease expired and another replica took the lock.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("test:lock:s1", "someone-else"))

	require.NoError(t, unlock(ctx))
	got, err := mr.Get("test:lock:s1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_BackendError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.Regexp().ExpectSetNX("loanflow:session:lock:s1", `.+`, time.Second).SetErr(errors.New("READONLY"))

	_, err := redis.NewLocker(client, "").Lock(context.Background(), "s1", time.Second)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
}
