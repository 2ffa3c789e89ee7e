package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockAcquire is returned when Redis refuses the lock command.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// DefaultRetry is the polling interval while a lock is held elsewhere.
const DefaultRetry = 50 * time.Millisecond

// unlockScript deletes the key only if it still holds our token.
var unlockScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

var _ ports.DistributedLocker = (*Locker)(nil)

// Locker implements ports.DistributedLocker with SET NX PX and a token-checked release.
type Locker struct {
	client backend.Cmdable
	prefix string
	retry  time.Duration
}

// NewLocker creates a locker whose keys are prefix + "lock:" + key.
func NewLocker(client backend.Cmdable, prefix string) *Locker {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Locker{client: client, prefix: prefix, retry: DefaultRetry}
}

// Lock blocks until the lock is held or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %w", ErrLockAcquire, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return unlockScript.Run(ctx, l.client, []string{lockKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
