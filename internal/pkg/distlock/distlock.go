// Package distlock serialises snapshot refreshes across monitor instances.
package distlock

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned by Run when another holder owns the lock.
var ErrNotAcquired = errors.New("distlock: lock held elsewhere")

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock picks a backend: Redis when a client is given, then a PostgreSQL
// advisory lock when a database is given, else a process-local lock.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	switch {
	case redisClient != nil:
		return NewRedisLock(redisClient, key, ttl)
	case db != nil:
		return NewPGAdvisoryLock(db, key)
	default:
		return NewLocalLock()
	}
}

// Extender is implemented by locks that expire on their own. Run keeps such
// a lock alive for as long as fn is running.
type Extender interface {
	TTL() time.Duration
	Extend(ctx context.Context, ttl time.Duration) error
}

// Run executes fn while holding l. It returns ErrNotAcquired without
// calling fn when the lock is taken.
func Run(ctx context.Context, l DistLock, fn func(ctx context.Context) error) error {
	ok, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAcquired
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to release lock", "error", err)
		}
	}()

	if ext, ok := l.(Extender); ok && ext.TTL() > 0 {
		stop := keepAlive(ctx, ext)
		defer stop()
	}
	return fn(ctx)
}

// keepAlive extends ext every half TTL until the returned stop is called.
// It gives up after the first failed extension, since the lock is lost.
func keepAlive(ctx context.Context, ext Extender) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ttl := ext.TTL()

	go func() {
		defer close(done)
		ticker := time.NewTicker(max(ttl/2, time.Millisecond))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := ext.Extend(ctx, ttl); err != nil {
					if ctx.Err() == nil {
						logger.Warn("lost lock while running", "error", err)
					}
					return
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// PGAdvisoryLock implements DistLock using session-scoped PostgreSQL
// advisory locks (pg_try_advisory_lock / pg_advisory_unlock). Both calls
// run on one pinned connection, since the lock belongs to the session that
// took it. The server drops the lock if that connection goes away.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64

	mu   sync.Mutex
	conn *sql.Conn
}

// NewPGAdvisoryLock creates a PG advisory lock with a deterministic lock ID
// derived from the given key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	return &PGAdvisoryLock{db: db, lockID: LockID(key)}
}

// LockID hashes key into the advisory lock ID space.
func LockID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

// Acquire tries to acquire the advisory lock without blocking. On success
// the connection stays checked out of the pool until Release.
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("pinning connection for advisory lock: %w", err)
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("pg_try_advisory_lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

// Release unlocks on the pinned connection and returns it to the pool. If
// the unlock fails the connection is discarded, which ends the session and
// with it the lock.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()
	if conn == nil {
		return nil
	}
	defer conn.Close()

	var released bool
	err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID).Scan(&released)
	if err == nil && !released {
		err = fmt.Errorf("advisory lock %d was not held by this session", l.lockID)
	}
	if err != nil {
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		return fmt.Errorf("pg_advisory_unlock: %w", err)
	}
	return nil
}

// LocalLock is an in-process DistLock for single-instance deployments.
type LocalLock struct {
	ch chan struct{}
}

// NewLocalLock creates an unlocked LocalLock.
func NewLocalLock() *LocalLock {
	return &LocalLock{ch: make(chan struct{}, 1)}
}

// Acquire takes the lock if it is free.
func (l *LocalLock) Acquire(_ context.Context) (bool, error) {
	select {
	case l.ch <- struct{}{}:
		return true, nil
	default:
		return false, nil
	}
}

// Release frees the lock. Releasing an unheld lock is a no-op.
func (l *LocalLock) Release(_ context.Context) error {
	select {
	case <-l.ch:
	default:
	}
	return nil
}
