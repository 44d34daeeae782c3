// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resource

import "fmt"

// AuxRelType describes one kind of auxiliary resource a storage space
// knows about, such as an ACL document or a description resource.
type AuxRelType struct {
	// Rel is the link relation the auxiliary resource is advertised
	// under, e.g. "acl" or "describedby".
	Rel string

	// Token is the path segment token the relation is encoded as in
	// resource URIs and object paths, e.g. "acl" or "meta". Tokens must
	// be non-empty, unique within a space, and free of the reserved
	// delimiters.
	Token string

	// TargetKind is the resource kind of the auxiliary resource itself.
	TargetKind Kind
}

// DefaultAuxRelTypes is the auxiliary relation registry used when a space
// configuration doesn't supply its own.
var DefaultAuxRelTypes = []AuxRelType{
	{Rel: "acl", Token: "acl", TargetKind: NonContainer},
	{Rel: "describedby", Token: "meta", TargetKind: NonContainer},
}

// StorageSpace is the immutable configuration of one Solid storage space:
// its root container URI and its auxiliary relation registry.
type StorageSpace struct {
	root URI

	auxByToken map[string]AuxRelType
	auxByRel   map[string]AuxRelType
}

// NewStorageSpace constructs a storage space rooted at the given container
// URI. If auxRelTypes is nil, [DefaultAuxRelTypes] is used.
func NewStorageSpace(root URI, auxRelTypes []AuxRelType) (*StorageSpace, error) {
	if root.IsZero() {
		return nil, fmt.Errorf("storage space root uri is not set")
	}
	if root.Kind() != Container {
		return nil, fmt.Errorf("storage space root %q is not a container uri", root)
	}
	if auxRelTypes == nil {
		auxRelTypes = DefaultAuxRelTypes
	}
	s := &StorageSpace{
		root:       root,
		auxByToken: make(map[string]AuxRelType, len(auxRelTypes)),
		auxByRel:   make(map[string]AuxRelType, len(auxRelTypes)),
	}
	for _, rt := range auxRelTypes {
		if rt.Rel == "" || rt.Token == "" {
			return nil, fmt.Errorf("aux rel type must have both rel and token set")
		}
		if !isCleanSlug(rt.Token) {
			return nil, fmt.Errorf("aux rel type token %q contains reserved delimiters", rt.Token)
		}
		if rt.TargetKind != Container && rt.TargetKind != NonContainer {
			return nil, fmt.Errorf("aux rel type %q has invalid target kind", rt.Rel)
		}
		if _, dup := s.auxByToken[rt.Token]; dup {
			return nil, fmt.Errorf("duplicate aux rel type token %q", rt.Token)
		}
		if _, dup := s.auxByRel[rt.Rel]; dup {
			return nil, fmt.Errorf("duplicate aux rel type %q", rt.Rel)
		}
		s.auxByToken[rt.Token] = rt
		s.auxByRel[rt.Rel] = rt
	}
	return s, nil
}

// Root returns the space's root container URI.
func (s *StorageSpace) Root() URI {
	return s.root
}

// AuxRelTypeByToken looks up an auxiliary relation type by its path
// encoding token.
func (s *StorageSpace) AuxRelTypeByToken(token string) (AuxRelType, bool) {
	rt, ok := s.auxByToken[token]
	return rt, ok
}

// AuxRelTypeByRel looks up an auxiliary relation type by its link relation.
func (s *StorageSpace) AuxRelTypeByRel(rel string) (AuxRelType, bool) {
	rt, ok := s.auxByRel[rel]
	return rt, ok
}

// AuxRelTypes returns the space's auxiliary relation registry.
func (s *StorageSpace) AuxRelTypes() []AuxRelType {
	out := make([]AuxRelType, 0, len(s.auxByRel))
	for _, rt := range s.auxByRel {
		out = append(out, rt)
	}
	return out
}

// Contains reports whether the given URI addresses a resource inside this
// space (the root itself included).
func (s *StorageSpace) Contains(uri URI) bool {
	return uri == s.root || s.root.IsAncestorOf(uri)
}
