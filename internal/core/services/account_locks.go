package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/smartlens_backend/internal/apperrors"
	"golang.org/x/sync/semaphore"
)

// accountLocks hands out one mutual-exclusion lock per account id. Entries are
// reference counted and dropped when the last holder or waiter leaves, so the
// map only grows with the number of accounts being written concurrently.
type accountLocks struct {
	mu      sync.Mutex
	entries map[string]*accountLock
}

type accountLock struct {
	sem  *semaphore.Weighted
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{entries: make(map[string]*accountLock)}
}

// acquire blocks until the lock for accountID is held, timeout elapses or ctx ends.
// A timeout yields apperrors.ErrLockTimeout; caller cancellation returns ctx.Err().
// The returned func releases the lock and must be called exactly once.
func (l *accountLocks) acquire(ctx context.Context, accountID string, timeout time.Duration) (func(), error) {
	l.mu.Lock()
	entry, ok := l.entries[accountID]
	if !ok {
		entry = &accountLock{sem: semaphore.NewWeighted(1)}
		l.entries[accountID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := entry.sem.Acquire(waitCtx, 1); err != nil {
		l.unref(accountID, entry)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: account %s after %s", apperrors.ErrLockTimeout, accountID, timeout)
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.sem.Release(1)
			l.unref(accountID, entry)
		})
	}, nil
}

func (l *accountLocks) unref(accountID string, entry *accountLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, accountID)
	}
}

// size reports how many accounts currently have holders or waiters.
func (l *accountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
