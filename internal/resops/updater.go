// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resops

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/manomayam/manas/internal/namelock"
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
	"github.com/manomayam/manas/internal/resource"
	"github.com/manomayam/manas/internal/status"
)

// BasicUpdater replaces resource representations, with optional
// create-on-absence semantics. The mutation phase runs under an
// exclusive name lock on the target URI.
type BasicUpdater struct {
	backend  objstore.Backend
	resolver *status.Resolver
	locker   namelock.NameLocker
	logger   hclog.Logger

	// createIfAbsent turns an update of a non-existing resource into a
	// create instead of a NotFound failure.
	createIfAbsent bool
	creator        *BasicCreator
}

var _ Updater = (*BasicUpdater)(nil)

// NewBasicUpdater constructs an updater. When createIfAbsent is set,
// updates of non-existing resources are delegated to the given
// creator, which must be non-nil in that case. A nil locker disables
// locking; a nil logger disables logging.
func NewBasicUpdater(backend objstore.Backend, resolver *status.Resolver, locker namelock.NameLocker, logger hclog.Logger, createIfAbsent bool, creator *BasicCreator) *BasicUpdater {
	if locker == nil {
		locker = namelock.Disabled{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BasicUpdater{
		backend:        backend,
		resolver:       resolver,
		locker:         locker,
		logger:         logger,
		createIfAbsent: createIfAbsent,
		creator:        creator,
	}
}

// Update implements Updater with replace semantics. Container
// representations are derived from membership and cannot be replaced.
func (u *BasicUpdater) Update(ctx context.Context, token *status.Token, data []byte, opts UpdateOptions) error {
	switch token.State() {
	case status.NonExistingMutexExisting:
		return problem.New(problem.Conflict, "mutex sibling of %s exists", token.URI())
	case status.NonExistingMutexNonExisting:
		if !u.createIfAbsent {
			return problem.New(problem.NotFound, "resource %s does not exist", token.URI())
		}
		return u.creator.Create(ctx, token, data, CreateOptions(opts))
	}

	rctx := token.Context()
	if rctx.Slot().Kind() == resource.Container {
		return problem.New(problem.Unsupported, "representation of container %s cannot be replaced", token.URI())
	}

	return u.locker.WithLock(ctx, token.URI().String(), namelock.Exclusive, func(ctx context.Context) error {
		fresh, err := u.resolver.Resolve(ctx, token.URI())
		if err != nil {
			return err
		}
		// The resource may lose or gain representation between snapshot
		// and lock acquisition without invalidating the update; only a
		// mutex conflict does.
		if fresh.State() == status.NonExistingMutexExisting {
			return problem.New(problem.Conflict, "mutex sibling of %s appeared during update", token.URI())
		}

		if err := u.backend.Put(ctx, rctx.BaseObjectID(), data, objstore.PutOptions{ContentType: opts.ContentType}); err != nil {
			return err
		}
		u.logger.Debug("updated resource", "uri", token.URI().String(), "size", len(data))
		return nil
	})
}
