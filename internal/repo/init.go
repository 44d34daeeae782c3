// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"context"

	"github.com/manomayam/manas/internal/objstore"
)

// Initialize ensures the storage root container's namespace marker
// exists in the backend. It is idempotent: an already-initialized
// repository is left untouched, so it is safe to run on every startup.
func (r *Repo) Initialize(ctx context.Context) error {
	rootID := objstore.RootNamespaceID

	_, exists, err := objstore.Found(r.backend.Stat(ctx, rootID))
	if err != nil {
		return err
	}
	if exists {
		r.logger.Debug("storage root already initialized", "root", r.space.StorageSpace().Root().String())
		return nil
	}

	if err := r.backend.Put(ctx, rootID, nil, objstore.PutOptions{}); err != nil {
		return err
	}
	r.logger.Info("initialized storage root", "root", r.space.StorageSpace().Root().String(), "backend", r.backend.Name())
	return nil
}
