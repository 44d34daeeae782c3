// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package status

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/manomayam/manas/internal/objspace"
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
	"github.com/manomayam/manas/internal/resctx"
	"github.com/manomayam/manas/internal/resource"

	"golang.org/x/sync/errgroup"
)

// Resolver computes status tokens by probing the backend. It keeps no
// state between resolutions; every call re-queries the store.
type Resolver struct {
	backend objstore.Backend
	space   *objspace.Space
	logger  hclog.Logger
}

// NewResolver creates a resolver over the given backend and object
// space. A nil logger disables logging.
func NewResolver(backend objstore.Backend, space *objspace.Space, logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{
		backend: backend,
		space:   space,
		logger:  logger,
	}
}

// Space returns the object space the resolver probes against.
func (r *Resolver) Space() *objspace.Space {
	return r.space
}

// Backend returns the backend the resolver probes.
func (r *Resolver) Backend() objstore.Backend {
	return r.backend
}

// Resolve computes the status token for the given URI.
//
// The resource's base object, its mutex sibling's base object, and its
// auxiliary namespace are probed concurrently; none of the probes
// depends on another's outcome. Any probe failure fails the whole
// resolution with a BackendFailure problem, never a guessed state.
func (r *Resolver) Resolve(ctx context.Context, uri resource.URI) (*Token, error) {
	if !r.space.StorageSpace().Contains(uri) {
		return nil, problem.New(problem.NotFound, "resource %s is outside the storage space rooted at %s", uri, r.space.StorageSpace().Root())
	}

	slot, err := resource.ResolveSlot(r.space.StorageSpace(), uri)
	if err != nil {
		if errors.Is(err, resource.ErrUnassignable) {
			// No object can ever back this URI, so it is trivially
			// non-existing, and so is its equally unassignable mutex
			// sibling.
			r.logger.Trace("uri not assignable in object space", "uri", uri.String())
			return &Token{
				uri:        uri,
				state:      NonExistingMutexNonExisting,
				resolvedAt: time.Now().UTC(),
			}, nil
		}
		return nil, problem.Wrap(problem.BackendFailure, err, "resolving slot for %s", uri)
	}

	rctx, err := resctx.New(r.space, slot)
	if err != nil {
		return nil, problem.Wrap(problem.BackendFailure, err, "building resource context for %s", uri)
	}

	var (
		baseMeta      objstore.Metadata
		baseExists    bool
		siblingExists bool
		auxExists     bool
	)

	eg, probeCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		meta, ok, err := objstore.Found(r.backend.Stat(probeCtx, rctx.BaseObjectID()))
		if err != nil {
			return err
		}
		baseMeta, baseExists = meta, ok
		return nil
	})

	if siblingURI, ok := slot.MutexSibling(); ok {
		siblingSlot, err := resource.ResolveSlot(r.space.StorageSpace(), siblingURI)
		switch {
		case errors.Is(err, resource.ErrUnassignable):
			// An unassignable sibling can never exist; no probe needed.
		case err != nil:
			return nil, problem.Wrap(problem.BackendFailure, err, "resolving mutex sibling slot for %s", uri)
		default:
			siblingID := r.space.BaseObjectID(siblingSlot)
			eg.Go(func() error {
				_, ok, err := objstore.Found(r.backend.Stat(probeCtx, siblingID))
				if err != nil {
					return err
				}
				siblingExists = ok
				return nil
			})
		}
	}

	eg.Go(func() error {
		objs, err := r.backend.List(probeCtx, rctx.AuxNSObjectID())
		if err != nil {
			return err
		}
		if len(objs) > 0 {
			auxExists = true
			return nil
		}
		// On backends with independent namespace objects an empty aux
		// namespace marker still witnesses existence, and List reports
		// only children.
		_, ok, err := objstore.Found(r.backend.Stat(probeCtx, rctx.AuxNSObjectID()))
		if err != nil {
			return err
		}
		auxExists = ok
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, problem.Wrap(problem.BackendFailure, err, "probing status of %s", uri)
	}

	token := &Token{
		ctx:        rctx,
		uri:        uri,
		resolvedAt: time.Now().UTC(),
	}
	switch {
	case baseExists:
		// Own existence always wins over a sibling's.
		token.state = ExistingRepresented
		token.baseMeta = baseMeta
	case siblingExists:
		token.state = NonExistingMutexExisting
	case auxExists:
		token.state = ExistingNonRepresented
	default:
		token.state = NonExistingMutexNonExisting
	}

	r.logger.Debug("resolved resource status",
		"uri", uri.String(),
		"state", token.state.String(),
	)
	return token, nil
}

// Revalidate re-resolves the token's URI and reports whether the
// freshly observed state still matches the token's. Mutating operators
// call this inside their lock scope to guard against acting on a stale
// snapshot.
func (r *Resolver) Revalidate(ctx context.Context, token *Token) (*Token, bool, error) {
	fresh, err := r.Resolve(ctx, token.URI())
	if err != nil {
		return nil, false, err
	}
	return fresh, fresh.State() == token.State(), nil
}
