// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package namelock provides advisory locking keyed by normalized
// resource URI.
//
// Status tokens are optimistic snapshots, so two concurrent create
// requests for the same name can both observe "safe to create" and
// race their mutations. A NameLocker closes that window: the repo
// serializes the mutation phase of create and delete operations under
// the target's lock. Deployments with a single writer, or with
// synchronization handled by an outer layer, can use Disabled instead
// and accept the race.
package namelock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-uuid"
)

// LockKind selects how a lock acquisition interacts with concurrent
// holders of the same name.
type LockKind int

const (
	// Shared locks may be held by any number of callers at once, but
	// exclude exclusive holders.
	Shared LockKind = iota

	// Exclusive locks exclude all other holders.
	Exclusive
)

func (k LockKind) String() string {
	switch k {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("unknown lock kind %d", int(k))
	}
}

// LockInfo describes a held or requested lock, for diagnostics when an
// acquisition fails or a stale lock needs to be reported.
type LockInfo struct {
	// ID is unique per acquisition.
	ID string

	// Name is the locked name, normally a normalized resource URI.
	Name string

	Kind LockKind

	// Who identifies the acquiring process, best effort.
	Who string

	Created time.Time
}

// NewLockInfo creates a LockInfo for an acquisition attempt, with a
// fresh ID and the local process identity filled in.
func NewLockInfo(name string, kind LockKind) *LockInfo {
	id, err := uuid.GenerateUUID()
	if err != nil {
		// uuid generation only fails when the platform's entropy
		// source is broken, at which point there is nothing useful
		// to do differently.
		panic(err)
	}

	host, _ := os.Hostname()
	return &LockInfo{
		ID:   id,
		Name: name,
		Kind: kind,
		Who:  fmt.Sprintf("pid-%d@%s", os.Getpid(), host),
	}
}

func (l *LockInfo) String() string {
	return fmt.Sprintf("%s lock %s on %q held by %s", l.Kind, l.ID, l.Name, l.Who)
}

// LockError is returned when an acquisition cannot proceed. When the
// conflicting holder is known, Info describes it.
type LockError struct {
	Info *LockInfo
	Err  error
}

func (e *LockError) Error() string {
	if e.Info != nil {
		return fmt.Sprintf("%s (conflicting %s)", e.Err, e.Info)
	}
	return e.Err.Error()
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// NameLocker grants advisory possession of a name for the duration of
// a critical section.
//
// WithLock acquires name with the given kind, runs fn, and releases on
// every exit path, including a panic in fn or an error return. The
// context bounds the acquisition wait; once fn is running, cancellation
// is fn's own concern.
type NameLocker interface {
	WithLock(ctx context.Context, name string, kind LockKind, fn func(ctx context.Context) error) error
}
