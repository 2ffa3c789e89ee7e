package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/loanflow/pkg/adapters/memory"
	"github.com/aretw0/loanflow/pkg/domain"
	"github.com/aretw0/loanflow/pkg/ports"
	"github.com/aretw0/loanflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Snapshot
	mu   sync.Mutex
}

func (s *SlowStore) Save(_ context.Context, sessionID string, snap *domain.Snapshot) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Snapshot)
	}
	s.data[sessionID] = snap
	return nil
}

func (s *SlowStore) Load(_ context.Context, sessionID string) (*domain.Snapshot, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.data[sessionID]; ok {
		return snap, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_SerializesReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, domain.NewSnapshot("welcome", domain.NewApplication())))

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context) error {
				snap, err := manager.Read(ctx, id)
				if err != nil {
					return err
				}
				app := snap.Record.Clone()
				app.DirectorCursor++
				return manager.Write(ctx, id, domain.NewSnapshot(snap.StepID, app))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, writers, snap.Record.DirectorCursor, "no update may be lost")
}

func TestManager_NilStore(t *testing.T) {
	manager := session.NewManager(nil)
	ctx := context.Background()

	_, err := manager.Load(ctx, "x")
	assert.True(t, session.IsNotFound(err))
	assert.NoError(t, manager.Save(ctx, "x", &domain.Snapshot{}))
	assert.NoError(t, manager.Delete(ctx, "x"))
}

type countingLocker struct {
	locks, unlocks atomic.Int32
	fail           error
}

func (c *countingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	if c.fail != nil {
		return nil, c.fail
	}
	c.locks.Add(1)
	return func(context.Context) error {
		c.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "s", domain.NewSnapshot("welcome", nil)))
	_, err := manager.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())

	locker.fail = errors.New("redis down")
	err = manager.Save(ctx, "s", domain.NewSnapshot("welcome", nil))
	assert.ErrorContains(t, err, "distributed lock")
}
