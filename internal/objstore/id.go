// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objstore

import (
	"errors"
	"fmt"
	"strings"
)

// ObjectID identifies an object within one object space, independent of
// any particular backend and its key naming constraints.
//
// The identity is a normalized rootless URI path: no leading slash, no
// dot segments, no non-trailing empty segments. A trailing slash (or the
// empty path, which is the space root) marks a namespace; everything else
// is addressable byte content.
//
// The zero value is the space root namespace.
type ObjectID struct {
	path string
}

// RootNamespaceID is the object id of the space root namespace.
var RootNamespaceID ObjectID

// MakeObjectID converts the given path into an [ObjectID] without
// validation. Use this only for paths constructed by the object space
// mapping itself, which are valid by construction.
func MakeObjectID(path string) ObjectID {
	return ObjectID{path: path}
}

// ParseObjectID validates that the given string is a normalized rootless
// URI path and returns it wrapped in an [ObjectID].
//
// This is intended for keys observed in a backing store, where other
// software may have introduced keys this core never wrote.
func ParseObjectID(path string) (ObjectID, error) {
	if path == "" {
		return RootNamespaceID, nil
	}
	if strings.HasPrefix(path, "/") {
		return ObjectID{}, errObjectPathRooted
	}
	segs := strings.Split(strings.TrimSuffix(path, "/"), "/")
	for _, seg := range segs {
		if seg == "" {
			return ObjectID{}, errObjectPathEmptySegment
		}
		if seg == "." || seg == ".." {
			return ObjectID{}, fmt.Errorf("object path contains dot segment %q", seg)
		}
	}
	return ObjectID{path: path}, nil
}

var (
	errObjectPathRooted       = errors.New("object path must be rootless")
	errObjectPathEmptySegment = errors.New("object path contains a non-trailing empty segment")
)

// Path returns the root-relative path of the object.
func (id ObjectID) Path() string {
	return id.path
}

// IsNamespace reports whether the id denotes a namespace (trailing
// delimiter or the space root) rather than byte content.
func (id ObjectID) IsNamespace() bool {
	return id.path == "" || strings.HasSuffix(id.path, "/")
}

// Child returns the id of a direct child of this namespace id.
func (id ObjectID) Child(name string) (ObjectID, error) {
	if !id.IsNamespace() {
		return ObjectID{}, fmt.Errorf("object %q is not a namespace", id.path)
	}
	child, err := ParseObjectID(id.path + name)
	if err != nil {
		return ObjectID{}, err
	}
	if strings.Count(strings.TrimSuffix(name, "/"), "/") > 0 {
		return ObjectID{}, fmt.Errorf("child name %q spans multiple segments", name)
	}
	return child, nil
}

func (id ObjectID) String() string {
	if id.path == "" {
		return "<space root>"
	}
	return id.path
}
