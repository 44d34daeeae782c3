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
	"github.com/manomayam/manas/internal/resctx"
	"github.com/manomayam/manas/internal/resource"
	"github.com/manomayam/manas/internal/status"
)

// BasicCreator creates resources against a backend. The mutation phase
// runs under an exclusive name lock on the target URI, with the status
// re-resolved inside the lock scope.
type BasicCreator struct {
	backend  objstore.Backend
	resolver *status.Resolver
	locker   namelock.NameLocker
	logger   hclog.Logger

	// createIntermediates makes Create materialize missing ancestor
	// containers instead of rejecting the request.
	createIntermediates bool
}

var _ Creator = (*BasicCreator)(nil)

// NewBasicCreator constructs a creator. A nil locker disables locking;
// a nil logger disables logging.
func NewBasicCreator(backend objstore.Backend, resolver *status.Resolver, locker namelock.NameLocker, logger hclog.Logger, createIntermediates bool) *BasicCreator {
	if locker == nil {
		locker = namelock.Disabled{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BasicCreator{
		backend:             backend,
		resolver:            resolver,
		locker:              locker,
		logger:              logger,
		createIntermediates: createIntermediates,
	}
}

// Create implements Creator. The token must be in the
// non-existing-with-non-existing-sibling state; any other state is a
// Conflict. Container payloads must be empty.
func (c *BasicCreator) Create(ctx context.Context, token *status.Token, data []byte, opts CreateOptions) error {
	if err := checkCreatable(token); err != nil {
		return err
	}
	rctx := token.Context()
	if rctx == nil {
		return problem.New(problem.Conflict, "no object can back resource %s", token.URI())
	}
	if rctx.Slot().Kind() == resource.Container && len(data) > 0 {
		return problem.New(problem.Unsupported, "container %s cannot be created with content", token.URI())
	}

	return c.locker.WithLock(ctx, token.URI().String(), namelock.Exclusive, func(ctx context.Context) error {
		fresh, same, err := c.resolver.Revalidate(ctx, token)
		if err != nil {
			return err
		}
		if !same {
			return problem.New(problem.Conflict, "state of %s changed to %s during create", token.URI(), fresh.State())
		}

		if err := c.checkAncestors(ctx, rctx); err != nil {
			return err
		}

		if err := c.backend.Put(ctx, rctx.BaseObjectID(), data, objstore.PutOptions{ContentType: opts.ContentType}); err != nil {
			return err
		}
		c.logger.Debug("created resource", "uri", token.URI().String(), "object", rctx.BaseObjectID().Path())
		return nil
	})
}

func checkCreatable(token *status.Token) error {
	switch token.State() {
	case status.NonExistingMutexNonExisting:
		return nil
	case status.NonExistingMutexExisting:
		return problem.New(problem.Conflict, "mutex sibling of %s already exists", token.URI())
	default:
		return problem.New(problem.Conflict, "resource %s already exists", token.URI())
	}
}

// checkAncestors verifies the target's ancestry. Every ancestor
// container of an ordinary resource must have a base object, with
// missing ones created when configured to. Auxiliary resources hang off
// their subject rather than a URI-path parent, and the aux namespace
// between them is an object-space construct with no resource behind it,
// so for aux slots the check is that the subject resource exists.
func (c *BasicCreator) checkAncestors(ctx context.Context, rctx *resctx.Context) error {
	space := rctx.Space()

	if slot := rctx.Slot(); slot.IsAux() {
		return c.checkAuxSubject(ctx, slot)
	}

	// Collect missing ancestors root-down so intermediates are created
	// parent first.
	var missing []resource.Slot
	uri := rctx.URI()
	for {
		parent, ok := uri.Parent()
		if !ok || !space.StorageSpace().Contains(parent) {
			break
		}
		slot, err := resource.ResolveSlot(space.StorageSpace(), parent)
		if err != nil {
			return problem.Wrap(problem.BackendFailure, err, "resolving ancestor %s", parent)
		}
		if slot.IsRoot() {
			// The space root always exists.
			break
		}
		_, exists, err := objstore.Found(c.backend.Stat(ctx, space.BaseObjectID(slot)))
		if err != nil {
			return err
		}
		if exists {
			break
		}
		if !c.createIntermediates {
			return problem.New(problem.Conflict, "ancestor container %s does not exist", parent)
		}
		missing = append(missing, slot)
		uri = parent
	}

	for i := len(missing) - 1; i >= 0; i-- {
		slot := missing[i]
		if err := c.backend.Put(ctx, space.BaseObjectID(slot), nil, objstore.PutOptions{}); err != nil {
			return err
		}
		c.logger.Debug("created intermediate container", "uri", slot.URI().String())
	}
	return nil
}

// checkAuxSubject verifies the subject resource of an aux slot exists.
// A non-represented subject counts: the aux link hangs off the resource,
// not its representation. A missing subject is a Conflict rather than a
// creatable intermediate, since subjects carry their own representations
// and cannot be materialized on the target's behalf.
func (c *BasicCreator) checkAuxSubject(ctx context.Context, slot resource.Slot) error {
	subject, _ := slot.Subject()
	if subject == slot.Space().Root() {
		// The space root always exists.
		return nil
	}
	subjToken, err := c.resolver.Resolve(ctx, subject)
	if err != nil {
		return err
	}
	if !subjToken.State().Exists() {
		return problem.New(problem.Conflict, "subject %s of auxiliary resource %s does not exist", subject, slot.URI())
	}
	return nil
}
