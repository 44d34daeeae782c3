// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package repo assembles the mapping core into one service facade:
// storage space, object space, backend, status resolver, name locker
// and the four resource operators behind a single entry point.
package repo

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/manomayam/manas/internal/namelock"
	"github.com/manomayam/manas/internal/objspace"
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/resops"
	"github.com/manomayam/manas/internal/resource"
	"github.com/manomayam/manas/internal/status"
)

// Options tunes the assembly. The zero value is a sensible read-write
// configuration with locking disabled.
type Options struct {
	// Logger for all components. Nil disables logging.
	Logger hclog.Logger

	// Locker guards create, update and delete mutation windows. Nil
	// disables locking.
	Locker namelock.NameLocker

	// ReadOnly wires unsupported operators in place of the mutating
	// ones.
	ReadOnly bool

	// NoIntermediates makes creates fail instead of materializing
	// missing ancestor containers.
	NoIntermediates bool

	// NoCreateOnUpdate makes updates of non-existing resources fail
	// with NotFound instead of creating them.
	NoCreateOnUpdate bool
}

// Repo is the assembled resource repository over one backend.
type Repo struct {
	space    *objspace.Space
	backend  objstore.Backend
	resolver *status.Resolver
	logger   hclog.Logger

	creator resops.Creator
	deleter resops.Deleter
	reader  *resops.BasicReader
	updater resops.Updater
}

// New assembles a repository for the given storage space and backend.
func New(storageSpace *resource.StorageSpace, backend objstore.Backend, opts Options) *Repo {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("repo")

	space := objspace.New(storageSpace)
	resolver := status.NewResolver(backend, space, logger.Named("status"))

	r := &Repo{
		space:    space,
		backend:  backend,
		resolver: resolver,
		logger:   logger,
		reader:   resops.NewBasicReader(backend, logger.Named("read")),
	}

	if opts.ReadOnly {
		r.creator = resops.UnsupportedCreator{}
		r.deleter = resops.UnsupportedDeleter{}
		r.updater = resops.UnsupportedUpdater{}
		return r
	}

	creator := resops.NewBasicCreator(backend, resolver, opts.Locker, logger.Named("create"), !opts.NoIntermediates)
	r.creator = creator
	r.deleter = resops.NewBasicDeleter(backend, resolver, opts.Locker, logger.Named("delete"))
	r.updater = resops.NewBasicUpdater(backend, resolver, opts.Locker, logger.Named("update"), !opts.NoCreateOnUpdate, creator)
	return r
}

// Space returns the repository's object space.
func (r *Repo) Space() *objspace.Space {
	return r.space
}

// Backend returns the repository's backend.
func (r *Repo) Backend() objstore.Backend {
	return r.backend
}

// ResolveStatus resolves the status token of the given URI.
func (r *Repo) ResolveStatus(ctx context.Context, uri resource.URI) (*status.Token, error) {
	return r.resolver.Resolve(ctx, uri)
}

// Create resolves the URI and creates the resource with the given
// content. Containers take no content.
func (r *Repo) Create(ctx context.Context, uri resource.URI, data []byte, contentType string) error {
	token, err := r.resolver.Resolve(ctx, uri)
	if err != nil {
		return err
	}
	return r.creator.Create(ctx, token, data, resops.CreateOptions{ContentType: contentType})
}

// Read resolves the URI and reads the requested range of its
// representation.
func (r *Repo) Read(ctx context.Context, uri resource.URI, rng objstore.ByteRange) (*resops.ReadResult, error) {
	token, err := r.resolver.Resolve(ctx, uri)
	if err != nil {
		return nil, err
	}
	return r.reader.Read(ctx, token, rng)
}

// ListContainer resolves the URI and returns its member resources.
func (r *Repo) ListContainer(ctx context.Context, uri resource.URI) ([]resource.URI, error) {
	token, err := r.resolver.Resolve(ctx, uri)
	if err != nil {
		return nil, err
	}
	return r.reader.ListMembers(ctx, token)
}

// Update resolves the URI and replaces its representation.
func (r *Repo) Update(ctx context.Context, uri resource.URI, data []byte, contentType string) error {
	token, err := r.resolver.Resolve(ctx, uri)
	if err != nil {
		return err
	}
	return r.updater.Update(ctx, token, data, resops.UpdateOptions{ContentType: contentType})
}

// Delete resolves the URI and deletes the resource.
func (r *Repo) Delete(ctx context.Context, uri resource.URI) error {
	token, err := r.resolver.Resolve(ctx, uri)
	if err != nil {
		return err
	}
	return r.deleter.Delete(ctx, token)
}
