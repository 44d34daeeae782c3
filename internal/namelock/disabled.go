// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package namelock

import "context"

// Disabled is a NameLocker that grants every acquisition immediately
// without any coordination. It is useful for single-writer deployments,
// for stores synchronized by an outer layer, and for tests.
type Disabled struct{}

var _ NameLocker = Disabled{}

// WithLock runs fn without taking any lock.
func (Disabled) WithLock(ctx context.Context, name string, kind LockKind, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
