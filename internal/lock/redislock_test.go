package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/catalogo-mayorista/internal/lock"
)

func newLocker(t *testing.T) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}, mr
}

func TestWithLockSerializesCallers(t *testing.T) {
	locker, _ := newLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var order []string
	var mu sync.Mutex
	firstDone := make(chan struct{})
	releaseFirst := make(chan struct{})
	key := locker.Key("cart", "s1")

	go func() {
		_ = locker.WithLock(ctx, key, 100*time.Millisecond, func(context.Context) error {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			close(firstDone)
			<-releaseFirst
			return nil
		})
	}()

	<-firstDone

	go func() {
		_ = locker.WithLock(ctx, key, 100*time.Millisecond, func(context.Context) error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
	}()

	close(releaseFirst)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"first", "second"}, order)
}

func TestWithLockMaxWait(t *testing.T) {
	locker, mr := newLocker(t)
	locker.MaxWait = 30 * time.Millisecond
	key := locker.Key("cart", "busy")
	require.NoError(t, mr.Set(key, "someone-else"))

	called := false
	err := locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
		called = true
		return nil
	})
	require.True(t, errors.Is(err, lock.ErrNotAcquired))
	require.False(t, called)
}

func TestWithLockReleasesOnError(t *testing.T) {
	locker, mr := newLocker(t)
	key := locker.Key("cart", "err")
	boom := errors.New("boom")

	err := locker.WithLock(context.Background(), key, time.Second, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists(key))
}

func TestKeyPrefix(t *testing.T) {
	require.Equal(t, "lock:cart:abc", lock.Locker{}.Key("cart", "abc"))
	require.Equal(t, "x:a", lock.Locker{Prefix: "x"}.Key("a"))
}
