// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package objstore defines our abstraction for backend object storage,
// along with the vocabulary types shared by all backend implementations.
//
// An object store is conceptually a flat key/value store where keys are
// normalized rootless URI paths, values are opaque blobs, and keys with a
// trailing slash denote namespace markers rather than byte content. A
// backend implementation can:
//
//   - Stat an object, returning store-reported metadata or a NotFound
//     problem.
//   - Get an object's bytes, honouring lenient byte-range requests.
//   - Put an object atomically (single-object overwrite; no reader may
//     ever observe a half-written object via Stat or Get).
//   - Delete an object.
//   - List the immediate children of a namespace.
//
// Backends map object paths to their native keys through a small closed
// set of path encodings (see [PathEncoding]); they never interpret object
// content.
//
// All "object absent" conditions, however the underlying SDK reports
// them, are collapsed into a problem of kind [problem.NotFound] before
// they leave a backend. The [Found] adapter converts that one uniform
// signal into an optional value for the layers above.
package objstore
