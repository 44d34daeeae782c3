// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objstore

import "time"

// Metadata is the store-reported metadata of an object at the point of
// observation.
//
// Which fields are populated depends on the backend's capabilities: a
// backend without [CapObjectValidators] reports zero LastModified and
// empty ETag, and only backends with [CapNativeContentTypeMetadata]
// report ContentType.
type Metadata struct {
	Size         int64
	LastModified time.Time
	ETag         string
	ContentType  string
}

// Object is a backend-observed object: its id plus its metadata snapshot.
//
// Objects are classified at the point of observation into namespace
// objects and file objects; the classification is binary and mutually
// exclusive, determined entirely by the key form.
type Object struct {
	ID   ObjectID
	Meta Metadata
}

// IsNamespaceObject reports whether the object represents a container-like
// grouping (a prefix/"directory" marker).
func (o Object) IsNamespaceObject() bool {
	return o.ID.IsNamespace()
}

// IsFileObject reports whether the object represents addressable byte
// content.
func (o Object) IsFileObject() bool {
	return !o.ID.IsNamespace()
}
