// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package resctx binds a resolved resource slot to the backend objects
// that may carry its state.
//
// A Context is a per-request value: it is derived freshly from a slot
// and an object space, carries no observations about what actually
// exists in the backend, and is discarded when the request completes.
// Existence questions are answered by package status, which consumes
// the candidate object identities a Context exposes.
package resctx

import (
	"fmt"

	"github.com/manomayam/manas/internal/objspace"
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/resource"
)

// Context aggregates a resource slot with the object identities its
// object space assigns to it, one per association relation type.
//
// Classification into container or non-container form is done once, at
// construction time, via AsContainer and AsNonContainer. The returned
// wrapper types are the only values on which kind-specific operations
// are available, so a caller holding a ContainerContext has already
// proven the resource is a container and need not re-check.
type Context struct {
	space *objspace.Space
	slot  resource.Slot
	links map[objspace.AssocRelType]objspace.AssocLink
}

// New constructs the context for the given slot within the given object
// space. It fails if the slot was resolved against a different storage
// space than the one backing the object space.
func New(space *objspace.Space, slot resource.Slot) (*Context, error) {
	if slot.Space() != space.StorageSpace() {
		return nil, fmt.Errorf("slot for %s belongs to a different storage space", slot.URI())
	}
	return &Context{
		space: space,
		slot:  slot,
		links: space.AssocLinks(slot),
	}, nil
}

// Slot returns the resource slot this context was built for.
func (c *Context) Slot() resource.Slot {
	return c.slot
}

// URI returns the resource URI this context was built for.
func (c *Context) URI() resource.URI {
	return c.slot.URI()
}

// Space returns the object space the context's identities were resolved
// against.
func (c *Context) Space() *objspace.Space {
	return c.space
}

// Link returns the association link for the given relation type, if the
// object space defines one for this slot.
func (c *Context) Link(rel objspace.AssocRelType) (objspace.AssocLink, bool) {
	link, ok := c.links[rel]
	return link, ok
}

// Links returns all association links of the resource, keyed by relation
// type. The returned map is shared; callers must not modify it.
func (c *Context) Links() map[objspace.AssocRelType]objspace.AssocLink {
	return c.links
}

// BaseObjectID returns the identity of the object holding the resource's
// primary content.
func (c *Context) BaseObjectID() objstore.ObjectID {
	return c.links[objspace.RelBase].Target
}

// AuxNSObjectID returns the identity of the namespace under which the
// resource's auxiliary resources are stored.
func (c *Context) AuxNSObjectID() objstore.ObjectID {
	return c.links[objspace.RelAuxNS].Target
}

// SidecarObjectIDs returns the identities of all sidecar objects the
// object space assigns to the resource.
func (c *Context) SidecarObjectIDs() []objstore.ObjectID {
	ids := make([]objstore.ObjectID, 0, len(objspace.SidecarRelTypes))
	for _, rel := range objspace.SidecarRelTypes {
		if link, ok := c.links[rel]; ok {
			ids = append(ids, link.Target)
		}
	}
	return ids
}

// MutexSiblingContext returns the context of the resource's mutex
// sibling, or false if the resource has none (the storage root).
func (c *Context) MutexSiblingContext() (*Context, bool, error) {
	siblingURI, ok := c.slot.MutexSibling()
	if !ok {
		return nil, false, nil
	}
	siblingSlot, err := resource.ResolveSlot(c.space.StorageSpace(), siblingURI)
	if err != nil {
		return nil, false, err
	}
	sibling, err := New(c.space, siblingSlot)
	if err != nil {
		return nil, false, err
	}
	return sibling, true, nil
}

// AsContainer classifies the context as a container context. It reports
// false when the resource is a non-container.
func (c *Context) AsContainer() (ContainerContext, bool) {
	cslot, ok := c.slot.AsContainer()
	if !ok {
		return ContainerContext{}, false
	}
	return ContainerContext{ctx: c, slot: cslot}, true
}

// AsNonContainer classifies the context as a non-container context. It
// reports false when the resource is a container.
func (c *Context) AsNonContainer() (NonContainerContext, bool) {
	nslot, ok := c.slot.AsNonContainer()
	if !ok {
		return NonContainerContext{}, false
	}
	return NonContainerContext{ctx: c, slot: nslot}, true
}

// ContainerContext is a Context classified as a container at
// construction time. Container-only operations hang off this type.
type ContainerContext struct {
	ctx  *Context
	slot resource.ContainerSlot
}

// Context widens back to the unclassified form. Widening is always
// legal; narrowing requires AsContainer again.
func (c ContainerContext) Context() *Context {
	return c.ctx
}

// Slot returns the classified container slot.
func (c ContainerContext) Slot() resource.ContainerSlot {
	return c.slot
}

// MemberNamespaceID returns the namespace object under which the
// container's member resources are stored. For containers this is the
// base object itself, so an existing container's base object doubles as
// its membership index.
func (c ContainerContext) MemberNamespaceID() objstore.ObjectID {
	return c.ctx.BaseObjectID()
}

// NonContainerContext is a Context classified as a non-container at
// construction time.
type NonContainerContext struct {
	ctx  *Context
	slot resource.NonContainerSlot
}

// Context widens back to the unclassified form.
func (c NonContainerContext) Context() *Context {
	return c.ctx
}

// Slot returns the classified non-container slot.
func (c NonContainerContext) Slot() resource.NonContainerSlot {
	return c.slot
}
