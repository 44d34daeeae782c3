// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package gcs implements an object store backend on a Google Cloud
// Storage bucket.
//
// Like the s3 backend, namespace objects are zero-byte marker objects
// with a trailing-slash name.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
)

// Config describes the bucket a GCS backend operates on.
type Config struct {
	// Bucket is the bucket name. Required.
	Bucket string

	// Prefix is prepended to every object name. May be empty; a
	// non-empty prefix must end in "/".
	Prefix string

	// CredentialsFile points at a service account key file. When empty,
	// application default credentials are used.
	CredentialsFile string
}

// Backend is an [objstore.Backend] on a GCS bucket.
type Backend struct {
	client *storage.Client
	bucket string
	prefix string
	logger hclog.Logger
}

var _ objstore.Backend = (*Backend)(nil)

// New wraps an existing storage client. A nil logger disables logging.
func New(client *storage.Client, cfg Config, logger hclog.Logger) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs backend requires a bucket name")
	}
	if cfg.Prefix != "" && cfg.Prefix[len(cfg.Prefix)-1] != '/' {
		return nil, fmt.Errorf("gcs object prefix %q must end in a slash", cfg.Prefix)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Backend{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

// NewFromConfig builds a storage client from the configured or ambient
// Google credentials and wraps it.
func NewFromConfig(ctx context.Context, cfg Config, logger hclog.Logger) (*Backend, error) {
	var opts []option.ClientOption
	credsFile := cfg.CredentialsFile
	if credsFile == "" {
		credsFile = os.Getenv("GOOGLE_BACKEND_CREDENTIALS")
	}
	if credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating cloud storage client: %w", err)
	}
	return New(client, cfg, logger)
}

func (b *Backend) Name() string {
	return "gcs"
}

func (b *Backend) Capabilities() objstore.Capability {
	return objstore.CapIndependentNamespaceObjects |
		objstore.CapObjectValidators |
		objstore.CapNativeContentTypeMetadata
}

func (b *Backend) object(id objstore.ObjectID) *storage.ObjectHandle {
	return b.client.Bucket(b.bucket).Object(b.prefix + id.Path())
}

func (b *Backend) Stat(ctx context.Context, id objstore.ObjectID) (objstore.Metadata, error) {
	attrs, err := b.object(id).Attrs(ctx)
	if err != nil {
		return objstore.Metadata{}, b.mapErr(err, "stat", id)
	}
	return attrsMetadata(attrs), nil
}

func (b *Backend) Get(ctx context.Context, id objstore.ObjectID, rng objstore.ByteRange) (objstore.ReadResult, error) {
	if id.IsNamespace() {
		return objstore.ReadResult{}, problem.New(problem.NotFound, "namespace %q has no content", id)
	}

	attrs, err := b.object(id).Attrs(ctx)
	if err != nil {
		return objstore.ReadResult{}, b.mapErr(err, "get", id)
	}
	meta := attrsMetadata(attrs)

	effective := rng.Clamp(meta.Size)
	if effective.IsEmpty() {
		return objstore.ReadResult{Range: effective, Meta: meta}, nil
	}

	rd, err := b.object(id).NewRangeReader(ctx, effective.Offset, effective.Len())
	if err != nil {
		return objstore.ReadResult{}, b.mapErr(err, "get", id)
	}
	defer rd.Close()

	data, err := io.ReadAll(rd)
	if err != nil {
		return objstore.ReadResult{}, problem.Wrap(problem.BackendFailure, err, "reading object %q", id)
	}

	return objstore.ReadResult{
		Data:  data,
		Range: effective,
		Meta:  meta,
	}, nil
}

func (b *Backend) Put(ctx context.Context, id objstore.ObjectID, data []byte, opts objstore.PutOptions) error {
	if id.IsNamespace() && len(data) > 0 {
		return problem.New(problem.BackendFailure, "namespace %q cannot carry content", id)
	}

	// The write only becomes visible when Close commits it, which gives
	// the all-or-nothing behavior the backend contract requires.
	w := b.object(id).NewWriter(ctx)
	w.ContentType = opts.ContentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return b.mapErr(err, "put", id)
	}
	if err := w.Close(); err != nil {
		return b.mapErr(err, "put", id)
	}
	b.logger.Trace("uploaded object", "bucket", b.bucket, "name", b.prefix+id.Path(), "size", len(data))
	return nil
}

func (b *Backend) Delete(ctx context.Context, id objstore.ObjectID) error {
	if err := b.object(id).Delete(ctx); err != nil {
		return b.mapErr(err, "delete", id)
	}
	return nil
}

func (b *Backend) List(ctx context.Context, ns objstore.ObjectID) ([]objstore.Object, error) {
	nsName := b.prefix + ns.Path()
	it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{
		Prefix:    nsName,
		Delimiter: "/",
	})

	var objects []objstore.Object
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, problem.Wrap(problem.BackendFailure, err, "listing %q in bucket %q", nsName, b.bucket)
		}

		switch {
		case attrs.Prefix != "":
			// Synthetic prefix entry for a nested namespace.
			if path, ok := b.objectPath(attrs.Prefix); ok {
				objects = append(objects, objstore.Object{ID: objstore.MakeObjectID(path)})
			}
		case attrs.Name != nsName:
			if path, ok := b.objectPath(attrs.Name); ok {
				objects = append(objects, objstore.Object{
					ID:   objstore.MakeObjectID(path),
					Meta: attrsMetadata(attrs),
				})
			}
		}
	}
	return objects, nil
}

func (b *Backend) objectPath(name string) (string, bool) {
	if len(name) < len(b.prefix) || name[:len(b.prefix)] != b.prefix {
		return "", false
	}
	return name[len(b.prefix):], true
}

func (b *Backend) mapErr(err error, op string, id objstore.ObjectID) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return problem.New(problem.NotFound, "object %q does not exist", id)
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return problem.Wrap(problem.BackendFailure, err, "bucket %q does not exist", b.bucket)
	}
	return problem.Wrap(problem.BackendFailure, err, "%s %q in bucket %q", op, id, b.bucket)
}

func attrsMetadata(attrs *storage.ObjectAttrs) objstore.Metadata {
	return objstore.Metadata{
		Size:         attrs.Size,
		LastModified: attrs.Updated,
		ETag:         attrs.Etag,
		ContentType:  attrs.ContentType,
	}
}
