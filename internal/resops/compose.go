// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resops

import (
	"context"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
	"github.com/manomayam/manas/internal/status"
)

// The unsupported and delegating variants below let higher layers
// assemble partial capability sets, like a read-only store, without
// branching at every call site.

// UnsupportedCreator fails every create with an Unsupported problem.
type UnsupportedCreator struct{}

var _ Creator = UnsupportedCreator{}

func (UnsupportedCreator) Create(_ context.Context, token *status.Token, _ []byte, _ CreateOptions) error {
	return problem.New(problem.Unsupported, "creating %s: operation not supported by this store", token.URI())
}

// UnsupportedDeleter fails every delete with an Unsupported problem.
type UnsupportedDeleter struct{}

var _ Deleter = UnsupportedDeleter{}

func (UnsupportedDeleter) Delete(_ context.Context, token *status.Token) error {
	return problem.New(problem.Unsupported, "deleting %s: operation not supported by this store", token.URI())
}

// UnsupportedReader fails every read with an Unsupported problem.
type UnsupportedReader struct{}

var _ Reader = UnsupportedReader{}

func (UnsupportedReader) Read(_ context.Context, token *status.Token, _ objstore.ByteRange) (*ReadResult, error) {
	return nil, problem.New(problem.Unsupported, "reading %s: operation not supported by this store", token.URI())
}

// UnsupportedUpdater fails every update with an Unsupported problem.
type UnsupportedUpdater struct{}

var _ Updater = UnsupportedUpdater{}

func (UnsupportedUpdater) Update(_ context.Context, token *status.Token, _ []byte, _ UpdateOptions) error {
	return problem.New(problem.Unsupported, "updating %s: operation not supported by this store", token.URI())
}

// DelegatingCreator forwards creates to Inner unchanged.
type DelegatingCreator struct {
	Inner Creator
}

var _ Creator = DelegatingCreator{}

func (d DelegatingCreator) Create(ctx context.Context, token *status.Token, data []byte, opts CreateOptions) error {
	return d.Inner.Create(ctx, token, data, opts)
}

// DelegatingDeleter forwards deletes to Inner unchanged.
type DelegatingDeleter struct {
	Inner Deleter
}

var _ Deleter = DelegatingDeleter{}

func (d DelegatingDeleter) Delete(ctx context.Context, token *status.Token) error {
	return d.Inner.Delete(ctx, token)
}

// DelegatingReader forwards reads to Inner unchanged.
type DelegatingReader struct {
	Inner Reader
}

var _ Reader = DelegatingReader{}

func (d DelegatingReader) Read(ctx context.Context, token *status.Token, rng objstore.ByteRange) (*ReadResult, error) {
	return d.Inner.Read(ctx, token, rng)
}

// DelegatingUpdater forwards updates to Inner unchanged.
type DelegatingUpdater struct {
	Inner Updater
}

var _ Updater = DelegatingUpdater{}

func (d DelegatingUpdater) Update(ctx context.Context, token *status.Token, data []byte, opts UpdateOptions) error {
	return d.Inner.Update(ctx, token, data, opts)
}
