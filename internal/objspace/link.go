// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objspace

import (
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/resource"
)

// AssocLink is a directed link from a resource to one of its associated
// objects. Two links are equal iff both the target and the rel type
// match.
type AssocLink struct {
	Target  objstore.ObjectID
	RelType AssocRelType
}

// AssocRevLink is the reverse direction: from a stored object back to the
// resource that logically owns it. Every object in a space has exactly
// one reverse link.
type AssocRevLink struct {
	Target  resource.URI
	RelType AssocRelType
}
