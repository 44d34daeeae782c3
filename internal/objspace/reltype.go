// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package objspace defines the object space: the deterministic mapping
// between resource slots and the backend objects that store them.
//
// Every resource is associated with a fixed set of objects, one per
// association relation type: its base object (primary content), its aux
// namespace marker, and its sidecar objects (alternate content and fat
// metadata). The mapping from (slot, rel type) to object id is pure,
// deterministic, and injective for a given space configuration, and every
// object path decodes back to exactly one (resource, rel type) reverse
// link.
package objspace

// AssocRelType is the relation type of a link between a resource and one
// of its associated objects.
type AssocRelType int

const (
	relInvalid AssocRelType = iota

	// RelBase links a resource to its primary content object. For
	// containers that object is the namespace marker itself.
	RelBase

	// RelAuxNS links a resource to the namespace object grouping its
	// auxiliary resources' objects.
	RelAuxNS

	// RelAltContent links a resource to its alternate-content sidecar
	// object.
	RelAltContent

	// RelAltFatMeta links a resource to its fat-metadata sidecar object.
	RelAltFatMeta
)

// AllAssocRelTypes lists every association relation type, so callers can
// probe for all of a resource's possible objects without hardcoding the
// set.
var AllAssocRelTypes = []AssocRelType{RelBase, RelAuxNS, RelAltContent, RelAltFatMeta}

// SidecarRelTypes lists the relation types that address sidecar objects.
var SidecarRelTypes = []AssocRelType{RelAltContent, RelAltFatMeta}

// IsSidecar reports whether the relation addresses a sidecar object.
func (t AssocRelType) IsSidecar() bool {
	return t == RelAltContent || t == RelAltFatMeta
}

func (t AssocRelType) String() string {
	switch t {
	case RelBase:
		return "base"
	case RelAuxNS:
		return "aux-ns"
	case RelAltContent:
		return "alt-content"
	case RelAltFatMeta:
		return "alt-fat-meta"
	default:
		return "invalid"
	}
}

// Sidecar path encoding tokens. These are appended to a base object path
// after the sidecar delimiter, giving keys like "a/b.png.__altcontent"
// and "a/b/.__altfm".
const (
	altContentToken = "altcontent"
	altFatMetaToken = "altfm"
)

func sidecarToken(t AssocRelType) string {
	switch t {
	case RelAltContent:
		return altContentToken
	case RelAltFatMeta:
		return altFatMetaToken
	default:
		panic("not a sidecar rel type: " + t.String())
	}
}

func sidecarRelTypeOfToken(token string) (AssocRelType, bool) {
	switch token {
	case altContentToken:
		return RelAltContent, true
	case altFatMetaToken:
		return RelAltFatMeta, true
	default:
		return relInvalid, false
	}
}
