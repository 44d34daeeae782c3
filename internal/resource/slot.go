// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resource

import (
	"errors"
	"fmt"
	"strings"
)

// Reserved path delimiters. A segment of an ordinary (mero) resource URI
// may not contain either of these, which is what makes the slot path
// grammar and the object space mapping injective.
const (
	// AuxLinkDelim marks an auxiliary-namespace step in a slot path, as
	// in "a/b._aux/acl" (aux "acl" of /a/b) or "a/._aux/acl" (aux "acl"
	// of container /a/).
	AuxLinkDelim = "._aux"

	// SidecarDelim never appears in slot paths at all; it is reserved for
	// sidecar object keys in the object space.
	SidecarDelim = ".__"
)

// ErrUnassignable is wrapped by slot resolution errors for URIs that
// cannot be assigned a slot in the given storage space: URIs outside the
// space, URIs using reserved delimiters in ordinary segments, or URIs
// whose aux-link structure doesn't decode against the space's registry.
//
// Callers generally treat an unassignable URI the same as a non-existing
// resource; nothing can ever be stored under it.
var ErrUnassignable = errors.New("uri is not assignable a slot in this storage space")

// Slot is a resource's position in a storage space: its URI, its kind,
// and, for auxiliary resources, the relation linking it to its subject.
//
// Slots are computed on demand by [ResolveSlot] and are immutable.
type Slot struct {
	space *StorageSpace
	uri   URI
	kind  Kind

	// For aux resource slots only:
	isAux   bool
	auxRel  AuxRelType
	subject URI // resource the aux link hangs off
}

// ResolveSlot computes the slot for the given URI in the given space.
//
// Resolution is pure validation plus classification: it fails (wrapping
// [ErrUnassignable]) if the URI is outside the space or its path doesn't
// conform to the slot path grammar; it never performs I/O.
func ResolveSlot(space *StorageSpace, uri URI) (Slot, error) {
	if !space.Contains(uri) {
		return Slot{}, fmt.Errorf("%w: %q is outside space rooted at %q", ErrUnassignable, uri, space.Root())
	}

	slot := Slot{space: space, uri: uri, kind: uri.Kind()}
	if uri == space.Root() {
		return slot, nil
	}

	rel := strings.TrimPrefix(uri.String(), space.Root().String())
	rel = strings.TrimSuffix(rel, "/")

	// Walk the root-relative path segments, validating the slot path
	// grammar. subjectEnd tracks where the current aux link's subject
	// resource ends in the relative path, so aux slots can recover their
	// subject URI without a second pass.
	const (
		stateMero = iota // expecting an ordinary slug or an aux-link step
		stateAuxToken    // expecting an aux rel type token
	)
	state := stateMero
	consumed := 0 // bytes of rel consumed before the current segment
	var auxRel AuxRelType
	var subjectEnd int
	isAux := false

	segs := strings.Split(rel, "/")
	for i, seg := range segs {
		last := i == len(segs)-1

		switch state {
		case stateMero:
			switch {
			case seg == AuxLinkDelim:
				// Aux link on the container formed by the preceding
				// segments (possibly the space root).
				if last {
					return Slot{}, fmt.Errorf("%w: %q ends at an aux link delimiter", ErrUnassignable, uri)
				}
				subjectEnd = consumed
				isAux = true
				state = stateAuxToken
			case strings.HasSuffix(seg, AuxLinkDelim):
				slug := strings.TrimSuffix(seg, AuxLinkDelim)
				if !isCleanSlug(slug) {
					return Slot{}, fmt.Errorf("%w: %q has invalid segment %q", ErrUnassignable, uri, seg)
				}
				if last {
					return Slot{}, fmt.Errorf("%w: %q ends at an aux link delimiter", ErrUnassignable, uri)
				}
				subjectEnd = consumed + len(slug)
				isAux = true
				state = stateAuxToken
			default:
				if !isCleanSlug(seg) {
					return Slot{}, fmt.Errorf("%w: %q has invalid segment %q", ErrUnassignable, uri, seg)
				}
				isAux = false
			}

		case stateAuxToken:
			token := seg
			continueAux := false
			if token != AuxLinkDelim && strings.HasSuffix(token, AuxLinkDelim) {
				// Aux of an aux, as in "r._aux/acl._aux/meta".
				token = strings.TrimSuffix(token, AuxLinkDelim)
				continueAux = true
			}
			rt, known := space.AuxRelTypeByToken(token)
			if !known {
				return Slot{}, fmt.Errorf("%w: %q has unknown aux rel token %q", ErrUnassignable, uri, token)
			}
			if continueAux {
				if last {
					return Slot{}, fmt.Errorf("%w: %q ends at an aux link delimiter", ErrUnassignable, uri)
				}
				subjectEnd = consumed + len(token)
				state = stateAuxToken
				break
			}
			auxRel = rt
			if last {
				// The URI's trailing-slash form must agree with the
				// registered target kind of the aux relation.
				if uri.Kind() != rt.TargetKind {
					return Slot{}, fmt.Errorf("%w: %q has kind %s but aux rel %q targets %s resources",
						ErrUnassignable, uri, uri.Kind(), rt.Rel, rt.TargetKind)
				}
			} else {
				// Descending below the aux resource: only possible when
				// it is a container.
				if rt.TargetKind != Container {
					return Slot{}, fmt.Errorf("%w: %q descends below non-container aux resource", ErrUnassignable, uri)
				}
				isAux = false
				state = stateMero
			}

		default:
			panic("unreachable slot path state")
		}

		consumed += len(seg) + 1
	}

	slot.isAux = isAux
	if slot.isAux {
		slot.auxRel = auxRel
		// The subject prefix already carries its own trailing slash when
		// the subject is a container (bare "._aux" segments only follow
		// container or root prefixes), so plain concatenation restores
		// the subject URI exactly.
		slot.subject = URI{s: space.Root().String() + rel[:subjectEnd]}
	}
	return slot, nil
}

// isCleanSlug reports whether s is usable as an ordinary path segment:
// non-empty, not a dot segment, and free of reserved delimiters.
func isCleanSlug(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.Contains(s, AuxLinkDelim) && !strings.Contains(s, SidecarDelim)
}

// URI returns the slot's resource URI.
func (s Slot) URI() URI {
	return s.uri
}

// Kind returns the slot's resource kind.
func (s Slot) Kind() Kind {
	return s.kind
}

// Space returns the storage space the slot belongs to.
func (s Slot) Space() *StorageSpace {
	return s.space
}

// IsRoot reports whether the slot is the space's root container.
func (s Slot) IsRoot() bool {
	return s.uri == s.space.Root()
}

// IsAux reports whether the slot addresses an auxiliary resource. When it
// does, AuxRel and Subject describe the linking relation.
func (s Slot) IsAux() bool {
	return s.isAux
}

// AuxRel returns the auxiliary relation type for aux slots; ok is false
// for ordinary slots.
func (s Slot) AuxRel() (AuxRelType, bool) {
	return s.auxRel, s.isAux
}

// Subject returns the URI of the resource this auxiliary resource is
// linked from; ok is false for ordinary slots.
func (s Slot) Subject() (URI, bool) {
	return s.subject, s.isAux
}

// RootRelativePath returns the slot's path relative to the space root,
// without a leading slash. The root container's relative path is "".
// Container paths keep their trailing slash.
func (s Slot) RootRelativePath() string {
	return strings.TrimPrefix(s.uri.String(), s.space.Root().String())
}

// MutexSibling returns the slot's mutex sibling URI (trailing slash
// toggled), or ok=false for the space root, which has no sibling inside
// the space.
func (s Slot) MutexSibling() (URI, bool) {
	if s.IsRoot() {
		return URI{}, false
	}
	return s.uri.MutexSibling()
}
