package keylock

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// AdvisoryLocker implements Locker with Postgres session advisory locks.
// The lock is taken on a pinned connection from the pool and held until
// release runs; if the process dies the session ends and Postgres frees the
// lock, so a crashed holder cannot starve the key forever.
type AdvisoryLocker struct {
	db *gorm.DB
}

func NewAdvisoryLocker(db *gorm.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

func (l *AdvisoryLocker) Acquire(ctx context.Context, key string) (func(), error) {
	sqlDB, err := l.db.DB()
	if err != nil {
		return nil, fmt.Errorf("advisory lock: get sql.DB: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("advisory lock: get connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock(hashtext($1))", key); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("advisory lock: acquire %q: %w", key, err)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// Unlock on a background context: release must succeed even when
			// the caller's context is already cancelled. Closing the pinned
			// connection returns it to the pool; if the unlock failed the
			// close tears the session down, which also frees the lock.
			_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock(hashtext($1))", key)
			_ = conn.Close()
		})
	}
	return release, nil
}
