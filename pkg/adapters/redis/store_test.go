package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/loanflow/pkg/adapters/redis"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/go-redis/redismock/v9"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMini(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newMini(t)
	ports.RunSnapshotStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTLExpiration(t *testing.T) {
	mr, client := newMini(t)
	now := time.Now()
	clock := func() time.Time { return now }
	store := redis.NewFromClient(client, redis.WithTTL(time.Second), redis.WithClock(clock))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s-ttl", domain.NewSnapshot("deposit", domain.NewApplication())))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "s-ttl")

	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, err = store.Load(ctx, "s-ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "expired ids are pruned from the index")
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newMini(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))

	require.NoError(t, store.Save(context.Background(), "my-session", domain.NewSnapshot("welcome", domain.NewApplication())))

	assert.True(t, mr.Exists("custom:app:my-session"))
	assert.True(t, mr.Exists("custom:app:index"))
	score, err := mr.ZScore("custom:app:index", "my-session")
	require.NoError(t, err)
	assert.Equal(t, float64(4102444800), score)
}

func TestRedisStore_RejectsEmptyID(t *testing.T) {
	_, client := newMini(t)
	err := redis.NewFromClient(client).Save(context.Background(), "", domain.NewSnapshot("welcome", nil))
	assert.ErrorIs(t, err, domain.ErrSessionIDRequired)
}

func TestRedisStore_BackendErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := redis.NewFromClient(client)
	ctx := context.Background()
	boom := errors.New("connection reset")

	mock.ExpectGet(redis.DefaultPrefix + "s1").SetErr(boom)
	_, err := store.Load(ctx, "s1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)

	mock.ExpectGet(redis.DefaultPrefix + "s2").RedisNil()
	_, err = store.Load(ctx, "s2")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	mock.ExpectGet(redis.DefaultPrefix + "s3").SetVal("{not json")
	_, err = store.Load(ctx, "s3")
	assert.ErrorContains(t, err, "unmarshal")

	mock.ExpectZRemRangeByScore(redis.DefaultPrefix+"index", "-inf", "(0").SetErr(boom)
	_, err = redis.NewFromClient(client, redis.WithClock(func() time.Time { return time.Unix(0, 0) })).List(ctx)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, mock.ExpectationsWereMet())
}
