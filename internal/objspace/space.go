// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objspace

import (
	"fmt"
	"strings"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/resource"
)

// Space is an object space: the association between one storage space
// and the object ids its resources are stored under. A Space is immutable
// configuration; all of its methods are pure.
type Space struct {
	storageSpace *resource.StorageSpace
}

// New returns the object space for the given storage space.
func New(storageSpace *resource.StorageSpace) *Space {
	return &Space{storageSpace: storageSpace}
}

// StorageSpace returns the associated storage space.
func (s *Space) StorageSpace() *resource.StorageSpace {
	return s.storageSpace
}

// BaseObjectID returns the id of the base object associated with the
// given slot.
//
// The base object path is the slot's root-relative path verbatim, which
// is what makes the mapping deterministic and injective: slot paths are
// already unique per resource, and the reserved delimiters keep the
// derived aux and sidecar ids from aliasing any other resource's base.
func (s *Space) BaseObjectID(slot resource.Slot) objstore.ObjectID {
	return objstore.MakeObjectID(slot.RootRelativePath())
}

// ObjectID resolves the id of the object associated with the given slot
// under the given relation type.
func (s *Space) ObjectID(slot resource.Slot, rel AssocRelType) (objstore.ObjectID, error) {
	base := s.BaseObjectID(slot)
	switch rel {
	case RelBase:
		return base, nil
	case RelAuxNS:
		return objstore.MakeObjectID(base.Path() + resource.AuxLinkDelim + "/"), nil
	case RelAltContent, RelAltFatMeta:
		return objstore.MakeObjectID(base.Path() + resource.SidecarDelim + sidecarToken(rel)), nil
	default:
		return objstore.ObjectID{}, fmt.Errorf("invalid assoc rel type %d", rel)
	}
}

// AssocLinks returns the association links for the given slot, indexed by
// rel type. The set always covers all of [AllAssocRelTypes].
func (s *Space) AssocLinks(slot resource.Slot) map[AssocRelType]AssocLink {
	links := make(map[AssocRelType]AssocLink, len(AllAssocRelTypes))
	for _, rel := range AllAssocRelTypes {
		id, err := s.ObjectID(slot, rel)
		if err != nil {
			// Unreachable: AllAssocRelTypes only contains valid types.
			panic(err)
		}
		links[rel] = AssocLink{Target: id, RelType: rel}
	}
	return links
}

// RevLink decodes the unique reverse link for the object with the given
// id: which resource owns it, and under which relation.
//
// Object paths this core never writes (unknown sidecar tokens, paths that
// don't decode to an assignable slot) yield an error.
func (s *Space) RevLink(id objstore.ObjectID) (AssocRevLink, error) {
	path := id.Path()
	basePath := path
	rel := RelBase

	// Sidecar object ids carry the sidecar delimiter exactly once, after
	// the base path.
	if prefix, tokenPart, found := strings.Cut(path, resource.SidecarDelim); found {
		sidecarRel, known := sidecarRelTypeOfToken(tokenPart)
		if !known {
			return AssocRevLink{}, fmt.Errorf("object path %q has unknown sidecar token %q", path, tokenPart)
		}
		basePath = prefix
		rel = sidecarRel
	} else if stripped, ok := strings.CutSuffix(path, resource.AuxLinkDelim+"/"); ok {
		basePath = stripped
		rel = RelAuxNS
	}

	uri, err := resource.ParseURI(s.storageSpace.Root().String() + basePath)
	if err != nil {
		return AssocRevLink{}, fmt.Errorf("object path %q does not map into the space: %w", path, err)
	}
	if _, err := resource.ResolveSlot(s.storageSpace, uri); err != nil {
		return AssocRevLink{}, fmt.Errorf("object path %q does not map to an assignable resource: %w", path, err)
	}

	return AssocRevLink{Target: uri, RelType: rel}, nil
}
