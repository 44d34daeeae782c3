// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package status resolves the existence state of a resource against
// the backend object store.
//
// A Token is a read-only snapshot taken at resolution time. It holds
// no locks: by the time an operator acts on a token, the store may
// have changed, so mutating operators re-resolve under a name lock
// before committing (see package resops).
package status

import (
	"fmt"
	"time"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/resctx"
	"github.com/manomayam/manas/internal/resource"
)

// State is the resolved existence state of a resource.
type State int

const (
	stateInvalid State = iota

	// ExistingRepresented: the resource's base object exists, so the
	// resource has retrievable content.
	ExistingRepresented

	// ExistingNonRepresented: the resource has no base object but at
	// least one auxiliary object, so the resource is known without
	// having content of its own.
	ExistingNonRepresented

	// NonExistingMutexExisting: neither base nor auxiliary objects
	// exist for the resource, but its mutex sibling's base object
	// does. Creation is blocked.
	NonExistingMutexExisting

	// NonExistingMutexNonExisting: neither the resource nor its mutex
	// sibling has a base object. Creation is safe.
	NonExistingMutexNonExisting
)

func (s State) String() string {
	switch s {
	case ExistingRepresented:
		return "existing represented"
	case ExistingNonRepresented:
		return "existing non-represented"
	case NonExistingMutexExisting:
		return "non-existing with existing mutex sibling"
	case NonExistingMutexNonExisting:
		return "non-existing with non-existing mutex sibling"
	default:
		return fmt.Sprintf("invalid state %d", int(s))
	}
}

// Exists reports whether the state is one of the Existing variants.
func (s State) Exists() bool {
	return s == ExistingRepresented || s == ExistingNonRepresented
}

// Token is the resolved status of one resource at one point in time.
type Token struct {
	ctx        *resctx.Context
	uri        resource.URI
	state      State
	baseMeta   objstore.Metadata
	resolvedAt time.Time
}

// URI returns the resource URI the token was resolved for.
func (t *Token) URI() resource.URI {
	return t.uri
}

// State returns the resolved existence state.
func (t *Token) State() State {
	return t.state
}

// Context returns the resource context candidate object identities
// were derived from. It is nil when the URI is not assignable in the
// object space; such resources are always non-existing.
func (t *Token) Context() *resctx.Context {
	return t.ctx
}

// BaseMetadata returns the metadata of the resource's base object as
// observed at resolution time. It reports false unless the state is
// [ExistingRepresented].
func (t *Token) BaseMetadata() (objstore.Metadata, bool) {
	if t.state != ExistingRepresented {
		return objstore.Metadata{}, false
	}
	return t.baseMeta, true
}

// ResolvedAt returns the time the snapshot was taken.
func (t *Token) ResolvedAt() time.Time {
	return t.resolvedAt
}

func (t *Token) String() string {
	return fmt.Sprintf("%s: %s", t.uri, t.state)
}
