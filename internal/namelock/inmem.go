// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package namelock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/manomayam/manas/internal/problem"
)

// Policy selects how InMem behaves when a requested name is already
// held with a conflicting kind.
type Policy int

const (
	// Wait blocks until the name becomes available or the context is
	// done.
	Wait Policy = iota

	// FailFast returns a Conflict problem immediately.
	FailFast
)

// InMem is a process-local NameLocker backed by a table of per-name
// reader/writer locks. It only coordinates callers within one process;
// multi-process deployments need an external coordination layer.
//
// Entries are created on first use and removed when the last holder or
// waiter of a name releases it, so the table stays proportional to the
// set of names currently under contention, not to the set of names
// ever locked.
type InMem struct {
	policy Policy

	mu    sync.Mutex
	names map[string]*nameEntry
}

var _ NameLocker = (*InMem)(nil)

type nameEntry struct {
	lock sync.RWMutex

	// refs counts holders plus waiters. Guarded by InMem.mu.
	refs int

	// holders records acquired locks for diagnostics. Guarded by
	// InMem.mu, not by lock.
	holders map[string]*LockInfo
}

// NewInMem creates an in-memory name locker with the given contention
// policy.
func NewInMem(policy Policy) *InMem {
	return &InMem{
		policy: policy,
		names:  make(map[string]*nameEntry),
	}
}

// WithLock implements NameLocker.
func (l *InMem) WithLock(ctx context.Context, name string, kind LockKind, fn func(ctx context.Context) error) error {
	info := NewLockInfo(name, kind)

	entry := l.ref(name)
	if err := l.acquire(ctx, entry, info); err != nil {
		return err
	}

	defer func() {
		l.mu.Lock()
		delete(entry.holders, info.ID)
		l.mu.Unlock()
		unlockKind(&entry.lock, kind)
		l.unref(name, entry)
	}()

	return fn(ctx)
}

func (l *InMem) acquire(ctx context.Context, entry *nameEntry, info *LockInfo) error {
	if l.policy == FailFast {
		if !tryLockKind(&entry.lock, info.Kind) {
			holder := l.someHolder(entry)
			l.unref(info.Name, entry)
			return problem.Wrap(problem.Conflict, &LockError{
				Info: holder,
				Err:  errors.New("name already locked"),
			}, "acquiring %s lock on %q", info.Kind, info.Name)
		}
		l.recordHolder(entry, info)
		return nil
	}

	locked := make(chan struct{})
	go func() {
		lockKind(&entry.lock, info.Kind)
		close(locked)
	}()

	select {
	case <-locked:
		l.recordHolder(entry, info)
		return nil
	case <-ctx.Done():
		// The pending acquisition cannot be withdrawn, so let it
		// complete in the background and release immediately.
		go func() {
			<-locked
			unlockKind(&entry.lock, info.Kind)
			l.unref(info.Name, entry)
		}()
		return problem.Wrap(problem.BackendFailure, ctx.Err(), "waiting for lock on %q", info.Name)
	}
}

func (l *InMem) ref(name string) *nameEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.names[name]
	if entry == nil {
		entry = &nameEntry{holders: make(map[string]*LockInfo)}
		l.names[name] = entry
	}
	entry.refs++
	return entry
}

func (l *InMem) unref(name string, entry *nameEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 && l.names[name] == entry {
		delete(l.names, name)
	}
}

func (l *InMem) recordHolder(entry *nameEntry, info *LockInfo) {
	l.mu.Lock()
	info.Created = time.Now().UTC()
	entry.holders[info.ID] = info
	l.mu.Unlock()
}

// someHolder returns a copy of an arbitrary current holder's info, or
// nil when none is recorded.
func (l *InMem) someHolder(entry *nameEntry) *LockInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, info := range entry.holders {
		copied := *info
		return &copied
	}
	return nil
}

func lockKind(mu *sync.RWMutex, kind LockKind) {
	if kind == Shared {
		mu.RLock()
	} else {
		mu.Lock()
	}
}

func unlockKind(mu *sync.RWMutex, kind LockKind) {
	if kind == Shared {
		mu.RUnlock()
	} else {
		mu.Unlock()
	}
}

func tryLockKind(mu *sync.RWMutex, kind LockKind) bool {
	if kind == Shared {
		return mu.TryRLock()
	}
	return mu.TryLock()
}
