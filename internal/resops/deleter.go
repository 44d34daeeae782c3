// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resops

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/manomayam/manas/internal/namelock"
	"github.com/manomayam/manas/internal/objspace"
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
	"github.com/manomayam/manas/internal/status"
)

// BasicDeleter deletes resources from a backend, removing the base
// object together with auxiliary and sidecar remnants. The mutation
// phase runs under an exclusive name lock on the target URI.
type BasicDeleter struct {
	backend  objstore.Backend
	resolver *status.Resolver
	locker   namelock.NameLocker
	logger   hclog.Logger
}

var _ Deleter = (*BasicDeleter)(nil)

// NewBasicDeleter constructs a deleter. A nil locker disables locking;
// a nil logger disables logging.
func NewBasicDeleter(backend objstore.Backend, resolver *status.Resolver, locker namelock.NameLocker, logger hclog.Logger) *BasicDeleter {
	if locker == nil {
		locker = namelock.Disabled{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BasicDeleter{
		backend:  backend,
		resolver: resolver,
		locker:   locker,
		logger:   logger,
	}
}

// Delete implements Deleter. The token must be in an existing state;
// deleting a non-existing resource is a NotFound problem and deleting
// a non-empty container is a Conflict.
func (d *BasicDeleter) Delete(ctx context.Context, token *status.Token) error {
	if !token.State().Exists() {
		return problem.New(problem.NotFound, "resource %s does not exist", token.URI())
	}
	rctx := token.Context()
	if rctx.Slot().IsRoot() {
		return problem.New(problem.Conflict, "storage root %s cannot be deleted", token.URI())
	}

	return d.locker.WithLock(ctx, token.URI().String(), namelock.Exclusive, func(ctx context.Context) error {
		fresh, _, err := d.resolver.Revalidate(ctx, token)
		if err != nil {
			return err
		}
		if !fresh.State().Exists() {
			return problem.New(problem.NotFound, "resource %s was deleted concurrently", token.URI())
		}

		if cctx, ok := rctx.AsContainer(); ok {
			empty, err := d.containerEmpty(ctx, cctx.MemberNamespaceID(), token)
			if err != nil {
				return err
			}
			if !empty {
				return problem.New(problem.Conflict, "container %s is not empty", token.URI())
			}
		}

		var errs *multierror.Error

		// Aux remnants first so a partial failure cannot orphan them
		// behind an already-deleted base.
		if err := d.deleteNamespace(ctx, rctx.AuxNSObjectID()); err != nil {
			errs = multierror.Append(errs, err)
		}
		for _, id := range rctx.SidecarObjectIDs() {
			if err := d.deleteIfPresent(ctx, id); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		if err := d.deleteIfPresent(ctx, rctx.BaseObjectID()); err != nil {
			errs = multierror.Append(errs, err)
		}

		if err := errs.ErrorOrNil(); err != nil {
			return problem.Wrap(problem.BackendFailure, err, "deleting objects of %s", token.URI())
		}
		d.logger.Debug("deleted resource", "uri", token.URI().String())
		return nil
	})
}

// containerEmpty reports whether the container has no member
// resources. Objects owned by the container itself do not count.
func (d *BasicDeleter) containerEmpty(ctx context.Context, memberNS objstore.ObjectID, token *status.Token) (bool, error) {
	objs, err := d.backend.List(ctx, memberNS)
	if err != nil {
		return false, err
	}
	space := token.Context().Space()
	for _, obj := range objs {
		rev, err := space.RevLink(obj.ID)
		if err != nil {
			// Foreign object; conservatively treat as a member.
			return false, nil
		}
		if rev.RelType == objspace.RelBase && rev.Target != token.URI() {
			return false, nil
		}
		if rev.Target != token.URI() {
			// Aux or sidecar of a member resource.
			return false, nil
		}
	}
	return true, nil
}

// deleteNamespace removes every object under the namespace, walking
// nested namespaces depth first, then the namespace marker itself.
func (d *BasicDeleter) deleteNamespace(ctx context.Context, ns objstore.ObjectID) error {
	objs, err := d.backend.List(ctx, ns)
	if err != nil {
		return err
	}

	var errs *multierror.Error
	for _, obj := range objs {
		if obj.IsNamespaceObject() {
			if err := d.deleteNamespace(ctx, obj.ID); err != nil {
				errs = multierror.Append(errs, err)
			}
			continue
		}
		if err := d.deleteIfPresent(ctx, obj.ID); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := d.deleteIfPresent(ctx, ns); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

func (d *BasicDeleter) deleteIfPresent(ctx context.Context, id objstore.ObjectID) error {
	err := d.backend.Delete(ctx, id)
	if err != nil && !problem.IsKind(err, problem.NotFound) {
		return err
	}
	return nil
}
