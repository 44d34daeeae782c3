// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package resops implements the resource operators: create, read,
// update and delete against a resolved status token.
//
// Operators are deliberately thin. Status tokens are optimistic
// snapshots, so every mutating operator re-resolves the target under
// its name lock before touching the backend, and fails with a Conflict
// problem when the observed state no longer matches the token's.
package resops

import (
	"context"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/status"
)

// CreateOptions carries the payload metadata for a create operation.
type CreateOptions struct {
	// ContentType of the supplied representation. Ignored for
	// containers.
	ContentType string
}

// UpdateOptions carries the payload metadata for an update operation.
type UpdateOptions struct {
	ContentType string
}

// ReadResult is the outcome of a read operation.
type ReadResult struct {
	// Represented reports whether the resource had retrievable content.
	// When false, only the existence of the resource is conveyed and
	// the remaining fields are zero.
	Represented bool

	// Data holds the requested byte range of the representation.
	Data []byte

	// Range is the clamped range Data covers. Callers constructing
	// range-aware responses must use this, not the range they asked
	// for.
	Range objstore.EffectiveRange

	// Meta is the backend metadata of the representation object.
	Meta objstore.Metadata
}

// Creator creates a resource that does not yet exist.
type Creator interface {
	Create(ctx context.Context, token *status.Token, data []byte, opts CreateOptions) error
}

// Deleter deletes an existing resource.
type Deleter interface {
	Delete(ctx context.Context, token *status.Token) error
}

// Reader reads a resource's representation.
type Reader interface {
	Read(ctx context.Context, token *status.Token, rng objstore.ByteRange) (*ReadResult, error)
}

// Updater replaces a resource's representation, creating the resource
// first if the implementation is configured to.
type Updater interface {
	Update(ctx context.Context, token *status.Token, data []byte, opts UpdateOptions) error
}
