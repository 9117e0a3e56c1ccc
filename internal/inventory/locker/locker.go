package locker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrLockBusy = errors.New("system busy, please try again later (lock)")

// Local serializes callers of one process with a mutex per key.
type Local struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*sync.Mutex)}
}

func (l *Local) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

type RedisLocker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// Redis serializes callers across processes sharing one store.
type Redis struct {
	client   RedisLocker
	ttl      time.Duration
	attempts int
	backoff  time.Duration
	logger   logger.ZapLogger
}

func NewRedis(client RedisLocker, ttl time.Duration, log logger.ZapLogger) *Redis {
	return &Redis{
		client:   client,
		ttl:      ttl,
		attempts: 3,
		backoff:  100 * time.Millisecond,
		logger:   log,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	value := uuid.New().String()

	acquired := false
	for i := 0; i < r.attempts; i++ {
		ok, err := r.client.AcquireLock(ctx, key, value, r.ttl)
		if err != nil {
			r.logger.Error("failed to acquire lock redis error", zap.String("key", key), zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff):
		}
	}
	if !acquired {
		return nil, apperror.StoreUnavailable("acquire lock", ErrLockBusy)
	}

	return func() {
		// The caller's context may already be done; release regardless.
		if err := r.client.ReleaseLock(context.Background(), key, value); err != nil {
			r.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
