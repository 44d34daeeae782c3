// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/manomayam/manas/internal/namelock"
	"github.com/manomayam/manas/internal/objstore"
	objfs "github.com/manomayam/manas/internal/objstore/fs"
	"github.com/manomayam/manas/internal/objstore/gcs"
	"github.com/manomayam/manas/internal/objstore/inmem"
	objs3 "github.com/manomayam/manas/internal/objstore/s3"
	"github.com/manomayam/manas/internal/spaceconfig"
)

// FromConfig assembles a repository from a decoded configuration,
// constructing the configured backend and name locker.
func FromConfig(ctx context.Context, cfg *spaceconfig.Config, logger hclog.Logger) (*Repo, error) {
	backend, err := NewBackend(ctx, cfg.Backend, logger)
	if err != nil {
		return nil, err
	}
	locker, err := NewLocker(cfg.Locking)
	if err != nil {
		return nil, err
	}
	return New(cfg.Space, backend, Options{
		Logger: logger,
		Locker: locker,
	}), nil
}

// NewBackend constructs the backend a spec describes.
func NewBackend(ctx context.Context, spec spaceconfig.BackendSpec, logger hclog.Logger) (objstore.Backend, error) {
	switch spec.Type {
	case "inmem":
		return inmem.New(), nil
	case "fs":
		return objfs.NewAtDir(spec.FS.Dir, logger)
	case "s3":
		return objs3.NewFromConfig(ctx, objs3.Config{
			Bucket:       spec.S3.Bucket,
			Prefix:       spec.S3.Prefix,
			Region:       spec.S3.Region,
			Endpoint:     spec.S3.Endpoint,
			SkipChecksum: spec.S3.SkipChecksum,
		}, logger)
	case "gcs":
		return gcs.NewFromConfig(ctx, gcs.Config{
			Bucket:          spec.GCS.Bucket,
			Prefix:          spec.GCS.Prefix,
			CredentialsFile: spec.GCS.CredentialsFile,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown backend type %q", spec.Type)
	}
}

// NewLocker constructs the name locker a spec describes.
func NewLocker(spec spaceconfig.LockingSpec) (namelock.NameLocker, error) {
	switch spec.Mode {
	case "disabled":
		return namelock.Disabled{}, nil
	case "inmem", "":
		policy := namelock.Wait
		if spec.Policy == "fail_fast" {
			policy = namelock.FailFast
		}
		return namelock.NewInMem(policy), nil
	default:
		return nil, fmt.Errorf("unknown locking mode %q", spec.Mode)
	}
}
