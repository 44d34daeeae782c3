// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resource

// ContainerSlot is a [Slot] proven at construction time to address a
// container. Values are only obtainable through [Slot.AsContainer], so
// container-only code paths can take a ContainerSlot parameter and never
// re-check the kind.
//
// Widening back to a plain Slot is always allowed via [ContainerSlot.Slot].
type ContainerSlot struct {
	slot Slot
}

// NonContainerSlot is the counterpart of [ContainerSlot] for
// non-container resources.
type NonContainerSlot struct {
	slot Slot
}

// AsContainer returns the slot as a [ContainerSlot] if it addresses a
// container.
func (s Slot) AsContainer() (ContainerSlot, bool) {
	if s.kind != Container {
		return ContainerSlot{}, false
	}
	return ContainerSlot{slot: s}, true
}

// AsNonContainer returns the slot as a [NonContainerSlot] if it addresses
// a non-container.
func (s Slot) AsNonContainer() (NonContainerSlot, bool) {
	if s.kind != NonContainer {
		return NonContainerSlot{}, false
	}
	return NonContainerSlot{slot: s}, true
}

// Slot widens back to the unclassified form.
func (c ContainerSlot) Slot() Slot {
	return c.slot
}

// URI returns the container's URI.
func (c ContainerSlot) URI() URI {
	return c.slot.uri
}

// Slot widens back to the unclassified form.
func (n NonContainerSlot) Slot() Slot {
	return n.slot
}

// URI returns the resource's URI.
func (n NonContainerSlot) URI() URI {
	return n.slot.uri
}
