package lock

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fieldvisits_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type locker interface {
	Lock(ctx context.Context, agentID uuid.UUID) (func(), error)
}

func assertMutualExclusion(t *testing.T, l locker) {
	t.Helper()
	agentID := uuid.New()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), agentID)
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if got := maxInside.Load(); got != 1 {
		t.Fatalf("expected at most one holder, saw %d", got)
	}
}

func TestLocalMutualExclusion(t *testing.T) {
	assertMutualExclusion(t, NewLocal())
}

func TestLocalDifferentAgentsDoNotBlock(t *testing.T) {
	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, uuid.New())
	if err != nil {
		t.Fatalf("lock b should not wait for a: %v", err)
	}
	unlockB()
}

func TestLocalHonoursContext(t *testing.T) {
	l := NewLocal()
	agentID := uuid.New()
	unlock, _ := l.Lock(context.Background(), agentID)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, agentID); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLocalUnlockIsIdempotent(t *testing.T) {
	l := NewLocal()
	agentID := uuid.New()
	unlock, _ := l.Lock(context.Background(), agentID)
	unlock()
	unlock()

	if len(l.locks) != 0 {
		t.Fatalf("expected lock table to be empty, got %d entries", len(l.locks))
	}
}

func newRedisLocker(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, logger.Nop())
	l.RetryPeriod = time.Millisecond
	return l, mr
}

func TestRedisMutualExclusion(t *testing.T) {
	l, _ := newRedisLocker(t)
	assertMutualExclusion(t, l)
}

func TestRedisTimesOutWhileHeld(t *testing.T) {
	l, _ := newRedisLocker(t)
	l.Wait = 30 * time.Millisecond
	agentID := uuid.New()

	unlock, err := l.Lock(context.Background(), agentID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	if _, err := l.Lock(context.Background(), agentID); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestRedisUnlockOnlyReleasesOwnToken(t *testing.T) {
	l, mr := newRedisLocker(t)
	agentID := uuid.New()
	key := redisKeyPrefix + agentID.String()

	unlock, err := l.Lock(context.Background(), agentID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	// Simulate expiry and takeover by another instance.
	mr.Del(key)
	if err := mr.Set(key, "someone-else"); err != nil {
		t.Fatalf("set: %v", err)
	}

	unlock()
	if got, _ := mr.Get(key); got != "someone-else" {
		t.Fatalf("unlock removed a lock it did not own, value now %q", got)
	}
}

func TestRedisLockExpires(t *testing.T) {
	l, mr := newRedisLocker(t)
	agentID := uuid.New()

	if _, err := l.Lock(context.Background(), agentID); err != nil {
		t.Fatalf("lock: %v", err)
	}
	mr.FastForward(l.TTL + time.Second)

	unlock, err := l.Lock(context.Background(), agentID)
	if err != nil {
		t.Fatalf("expected lock to be available after TTL, got %v", err)
	}
	unlock()
}

func TestRedisFailedReleaseIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	var buf bytes.Buffer
	l := NewRedis(client, logger.NewWithWriter("production", &buf))
	agentID := uuid.New()

	unlock, err := l.Lock(context.Background(), agentID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	mr.Close()
	unlock()

	out := buf.String()
	if !strings.Contains(out, "failed to release agent lock") {
		t.Fatalf("expected release failure to be logged, got %q", out)
	}
	if !strings.Contains(out, agentID.String()) {
		t.Errorf("expected log to name agent %s, got %q", agentID, out)
	}
}
