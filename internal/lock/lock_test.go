package lock

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	key := Key("bed", uuid.New())

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), key, func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, maxInside)
}

func TestMemoryLockerExcludes(t *testing.T) {
	exerciseMutualExclusion(t, NewMemoryLocker())
}

func TestMemoryLockerReleasesEntries(t *testing.T) {
	l := NewMemoryLocker().(*memoryLocker)
	sentinel := errors.New("boom")

	err := l.WithLock(context.Background(), "k", func(ctx context.Context) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.Empty(t, l.locks)
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	l := NewMemoryLocker()
	done := make(chan struct{})

	err := l.WithLock(context.Background(), "a", func(ctx context.Context) error {
		go func() {
			_ = l.WithLock(context.Background(), "b", func(ctx context.Context) error { return nil })
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-time.After(time.Second):
			return errors.New("lock on b blocked by a")
		}
	})
	require.NoError(t, err)
}

func TestMemoryLockerCancelledContext(t *testing.T) {
	l := NewMemoryLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := l.WithLock(ctx, "k", func(ctx context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set; skipping redis locker tests")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisLockerExcludes(t *testing.T) {
	exerciseMutualExclusion(t, NewRedisLocker(redisClient(t), 5*time.Second, 5*time.Second))
}

func TestRedisLockerTimesOut(t *testing.T) {
	client := redisClient(t)
	key := Key("ambulance", uuid.New())
	require.NoError(t, client.Set(context.Background(), key, "someone-else", time.Minute).Err())
	t.Cleanup(func() { client.Del(context.Background(), key) })

	l := NewRedisLocker(client, time.Second, 50*time.Millisecond)
	err := l.WithLock(context.Background(), key, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}
