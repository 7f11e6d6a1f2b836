package distlock

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisLock_MutualExclusion(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	a := NewRedisLock(client, "outreach:refresh", time.Minute)
	b := NewRedisLock(client, "outreach:refresh", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lock:outreach:refresh"))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// b does not own the lock, so its release leaves it in place
	require.NoError(t, b.Release(ctx))
	assert.True(t, mr.Exists(a.key))

	require.NoError(t, a.Release(ctx))
	assert.False(t, mr.Exists(a.key))

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_ExpiresAndExtends(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	l := NewRedisLock(client, "refresh", 10*time.Second)

	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Extend(ctx, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(l.key))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(l.key))
	assert.Error(t, l.Extend(ctx, time.Minute))
}

func TestPGAdvisoryLock_PinsOneConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "outreach:refresh")
	id := LockID("outreach:refresh")

	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery(`SELECT pg_advisory_unlock\(\$1\)`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	ctx := context.Background()
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	// The session holding the lock stays out of the pool
	assert.Equal(t, 1, db.Stats().InUse)

	// A second acquire from this process does not touch the database
	ok, err = l.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx))
	assert.Equal(t, 0, db.Stats().InUse)
	assert.Equal(t, 1, db.Stats().OpenConnections, "acquire and release share one session")

	// Releasing again is a no-op
	require.NoError(t, l.Release(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLock_NotAcquiredReturnsConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "outreach:refresh")
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT pg_try_advisory_lock`).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))
	}

	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, db.Stats().InUse)

	called := false
	err = Run(context.Background(), l, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLock_UnlockNotHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "outreach:refresh")
	mock.ExpectQuery(`SELECT pg_try_advisory_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectQuery(`SELECT pg_advisory_unlock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(false))

	ctx := context.Background()
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	err = l.Release(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not held by this session")
	assert.Equal(t, 0, db.Stats().InUse)
}

func TestLockID_IsStable(t *testing.T) {
	assert.Equal(t, LockID("outreach:refresh"), LockID("outreach:refresh"))
	assert.NotEqual(t, LockID("outreach:refresh"), LockID("outreach:other"))
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()

	called := false
	err := Run(ctx, l, func(ctx context.Context) error {
		called = true
		// Nested attempts see the lock as held
		return Run(ctx, l, func(context.Context) error { return nil })
	})
	assert.True(t, called)
	assert.ErrorIs(t, err, ErrNotAcquired)

	boom := errors.New("boom")
	assert.ErrorIs(t, Run(ctx, l, func(context.Context) error { return boom }), boom)
	ok, _ := l.Acquire(ctx)
	assert.True(t, ok, "Run must release the lock")
}

func TestRun_KeepsRedisLockAlive(t *testing.T) {
	client, mr := setupTestRedis(t)
	ttl := 200 * time.Millisecond
	l := NewRedisLock(client, "refresh", ttl)

	err := Run(context.Background(), l, func(context.Context) error {
		// Spend most of the TTL, then wait for the keep-alive to reset it
		mr.FastForward(150 * time.Millisecond)
		require.Eventually(t, func() bool { return mr.TTL(l.key) == ttl }, 2*time.Second, 10*time.Millisecond)
		mr.FastForward(150 * time.Millisecond)
		assert.True(t, mr.Exists(l.key), "lock must outlive its original TTL while held")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(l.key))
}

type failingRelease struct{ LocalLock }

func (f *failingRelease) Release(context.Context) error { return errors.New("release refused") }

func TestRun_LogsReleaseError(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := logger.Default()
	logger.SetDefault(logger.New(zapcore.AddSync(buf), logger.DEBUG))
	t.Cleanup(func() { logger.SetDefault(prev) })

	l := &failingRelease{LocalLock: *NewLocalLock()}
	require.NoError(t, Run(context.Background(), l, func(context.Context) error { return nil }))
	assert.Contains(t, buf.String(), "failed to release lock")
	assert.Contains(t, buf.String(), "release refused")
}

func TestNewLock_PicksBackend(t *testing.T) {
	client, _ := setupTestRedis(t)
	assert.IsType(t, &RedisLock{}, NewLock(client, nil, "k", time.Second))
	assert.IsType(t, &LocalLock{}, NewLock(nil, nil, "k", time.Second))

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	assert.IsType(t, &PGAdvisoryLock{}, NewLock(nil, db, "k", time.Second))
}
