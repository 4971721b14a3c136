// Package lock serializes booking decisions per agent so that the
// read-check-insert sequence of visit creation cannot interleave.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"fieldvisits_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when the lock could not be acquired in time.
var ErrLockTimeout = errors.New("agent lock: timed out waiting for lock")

// Local is an in-process per-agent lock. It is enough for a single API instance.
type Local struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocal creates an empty Local locker.
func NewLocal() *Local {
	return &Local{locks: make(map[uuid.UUID]*entry)}
}

// Lock blocks until the agent's lock is free or ctx is done.
func (l *Local) Lock(ctx context.Context, agentID uuid.UUID) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[agentID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[agentID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(agentID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(agentID, e)
		})
	}, nil
}

func (l *Local) release(agentID uuid.UUID, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, agentID)
	}
}

const (
	redisKeyPrefix     = "visits:agent-lock:"
	defaultTTL         = 10 * time.Second
	defaultWait        = 5 * time.Second
	defaultRetryPeriod = 25 * time.Millisecond
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a per-agent lock shared by every API instance using the same Redis.
// Each hold expires after TTL so a crashed holder cannot block an agent forever.
type Redis struct {
	client      redis.UniversalClient
	log         *logger.Logger
	TTL         time.Duration
	Wait        time.Duration
	RetryPeriod time.Duration
}

// NewRedis creates a Redis locker with default timings. Failed releases are
// logged to log; the key then lingers until TTL.
func NewRedis(client redis.UniversalClient, log *logger.Logger) *Redis {
	if log == nil {
		log = logger.Nop()
	}
	return &Redis{
		client:      client,
		log:         log,
		TTL:         defaultTTL,
		Wait:        defaultWait,
		RetryPeriod: defaultRetryPeriod,
	}
}

// Lock acquires the agent's lock, retrying until Wait elapses or ctx is done.
func (r *Redis) Lock(ctx context.Context, agentID uuid.UUID) (func(), error) {
	key := redisKeyPrefix + agentID.String()
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, r.Wait)
	defer cancel()

	ticker := time.NewTicker(r.RetryPeriod)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(waitCtx, key, token, r.TTL).Result()
		if err != nil {
			if waitCtx.Err() != nil && ctx.Err() == nil {
				return nil, ErrLockTimeout
			}
			return nil, err
		}
		if ok {
			return func() {
				if err := unlockScript.Run(context.WithoutCancel(ctx), r.client, []string{key}, token).Err(); err != nil {
					r.log.WithContext(ctx).Error("failed to release agent lock",
						"agentId", agentID.String(),
						"ttl", r.TTL.String(),
						"error", err,
					)
				}
			}, nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout
		}
	}
}
