// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resops

import (
	"context"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/manomayam/manas/internal/objspace"
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
	"github.com/manomayam/manas/internal/resource"
	"github.com/manomayam/manas/internal/status"
)

// BasicReader reads resource representations from a backend. Reads
// take no locks: they act on the snapshot the token describes, and a
// concurrent mutation simply yields whichever state the backend call
// observes.
type BasicReader struct {
	backend objstore.Backend
	logger  hclog.Logger
}

var _ Reader = (*BasicReader)(nil)

// NewBasicReader constructs a reader. A nil logger disables logging.
func NewBasicReader(backend objstore.Backend, logger hclog.Logger) *BasicReader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BasicReader{backend: backend, logger: logger}
}

// Read implements Reader. A represented resource yields its content
// for the requested range; a known but non-represented resource yields
// an existence-only result; a non-existing resource yields a NotFound
// problem.
func (r *BasicReader) Read(ctx context.Context, token *status.Token, rng objstore.ByteRange) (*ReadResult, error) {
	switch token.State() {
	case status.ExistingRepresented:
		// Proceed below.
	case status.ExistingNonRepresented:
		return &ReadResult{Represented: false}, nil
	default:
		return nil, problem.New(problem.NotFound, "resource %s does not exist", token.URI())
	}

	rctx := token.Context()
	res, err := r.backend.Get(ctx, rctx.BaseObjectID(), rng)
	if err != nil {
		if problem.IsKind(err, problem.NotFound) && rctx.Slot().Kind() == resource.Container {
			// Containers have a namespace marker as base object, which
			// carries no bytes. Their content is the member listing,
			// served through ListMembers.
			meta, ok := token.BaseMetadata()
			if !ok {
				meta = objstore.Metadata{}
			}
			return &ReadResult{Represented: true, Meta: meta}, nil
		}
		return nil, err
	}
	return &ReadResult{
		Represented: true,
		Data:        res.Data,
		Range:       res.Range,
		Meta:        res.Meta,
	}, nil
}

// ListMembers returns the URIs of the container's member resources, in
// lexical order. Objects under the container that belong to the
// container itself, like its auxiliary namespace and sidecars, are not
// members and are skipped.
func (r *BasicReader) ListMembers(ctx context.Context, token *status.Token) ([]resource.URI, error) {
	if !token.State().Exists() {
		return nil, problem.New(problem.NotFound, "container %s does not exist", token.URI())
	}
	cctx, ok := token.Context().AsContainer()
	if !ok {
		return nil, problem.New(problem.Unsupported, "resource %s is not a container", token.URI())
	}

	objs, err := r.backend.List(ctx, cctx.MemberNamespaceID())
	if err != nil {
		return nil, err
	}

	space := token.Context().Space()
	members := make([]resource.URI, 0, len(objs))
	for _, obj := range objs {
		rev, err := space.RevLink(obj.ID)
		if err != nil {
			// Foreign object inside the member namespace; not a
			// resource of this space.
			r.logger.Warn("skipping unmappable object in container", "container", token.URI().String(), "object", obj.ID.Path())
			continue
		}
		if rev.RelType != objspace.RelBase || rev.Target == token.URI() {
			continue
		}
		members = append(members, rev.Target)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].String() < members[j].String()
	})
	return members, nil
}
