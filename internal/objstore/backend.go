// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objstore

import (
	"context"
)

// Capability is a flag set describing the extra capabilities a backend
// provides beyond the baseline [Backend] contract.
type Capability uint8

const (
	// CapIndependentNamespaceObjects indicates that the backend's
	// namespace objects exist independently of their contents: a
	// namespace marker can be deleted without deleting the objects under
	// it, and can exist while empty.
	CapIndependentNamespaceObjects Capability = 1 << iota

	// CapObjectValidators indicates that the backend reports
	// last-modified timestamps or etags usable as update validators.
	CapObjectValidators

	// CapNativeContentTypeMetadata indicates that the backend stores and
	// reports per-object content-type metadata natively.
	CapNativeContentTypeMetadata
)

// Has reports whether all of the given capability flags are set.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// ReadResult is the result of a [Backend.Get] call: the requested bytes
// and the server-clamped range they cover, plus the object metadata
// observed by the same request.
type ReadResult struct {
	Data  []byte
	Range EffectiveRange
	Meta  Metadata
}

// PutOptions carries optional metadata for a [Backend.Put] call. Backends
// without [CapNativeContentTypeMetadata] ignore ContentType.
type PutOptions struct {
	ContentType string
}

// Backend is the uniform capability interface over physical object
// storage. Implementations exist for the local filesystem, AWS S3,
// Google Cloud Storage, and process memory.
//
// Error contract: all methods return a problem of kind
// [problem.NotFound] when the target object is absent, and a problem of
// kind [problem.BackendFailure] for any transport or storage-engine
// error. No backend-specific error types escape an implementation.
//
// Concurrency contract: Put is atomic from the caller's perspective. A
// concurrent or cancelled Put never leaves an object observable in an
// intermediate state: Stat and Get see either the previous state or the
// fully written new object.
type Backend interface {
	// Name returns a short identifier for the backend implementation,
	// for log and error messages.
	Name() string

	// Capabilities returns the backend's extra capability flags.
	Capabilities() Capability

	// Stat returns the metadata of the object with the given id.
	Stat(ctx context.Context, id ObjectID) (Metadata, error)

	// Get reads the object's bytes for the given range, clamped to the
	// object's actual size. Requesting a range beyond the end of the
	// object yields an empty result, not an error.
	//
	// Get on a namespace id returns a NotFound problem: namespaces have
	// no byte content.
	Get(ctx context.Context, id ObjectID, rng ByteRange) (ReadResult, error)

	// Put atomically creates or replaces the object with the given id.
	// Putting a namespace id creates the namespace marker; data must be
	// empty in that case.
	Put(ctx context.Context, id ObjectID, data []byte, opts PutOptions) error

	// Delete removes the object with the given id. Deleting an absent
	// object returns a NotFound problem.
	Delete(ctx context.Context, id ObjectID) error

	// List returns the objects that are immediate children of the given
	// namespace id, namespace markers included. The result order is
	// unspecified. Listing an absent namespace returns an empty slice,
	// not an error: absence of children and absence of the namespace
	// marker are separate observations.
	List(ctx context.Context, ns ObjectID) ([]Object, error)
}
