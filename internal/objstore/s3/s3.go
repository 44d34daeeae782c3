// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package s3 implements an object store backend on an AWS S3 bucket,
// or any S3-compatible service.
//
// Namespace objects are stored as zero-byte marker objects whose key
// carries the trailing delimiter, the common "directory object"
// convention. Markers exist independently of the keys below them.
package s3

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hashicorp/go-hclog"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
)

// Config describes the bucket an S3 backend operates on.
type Config struct {
	// Bucket is the bucket name. Required.
	Bucket string

	// Prefix is prepended to every object key, so one bucket can host
	// several spaces. May be empty; a non-empty prefix must end in "/".
	Prefix string

	// Region overrides the ambient AWS region when non-empty.
	Region string

	// Endpoint points the client at an S3-compatible service when
	// non-empty.
	Endpoint string

	// SkipChecksum disables request checksums, needed for some
	// S3-compatible services.
	SkipChecksum bool
}

// Backend is an [objstore.Backend] on an S3 bucket.
type Backend struct {
	client *s3.Client
	bucket string
	prefix string
	logger hclog.Logger

	skipChecksum bool
}

var _ objstore.Backend = (*Backend)(nil)

// New wraps an existing S3 client. A nil logger disables logging.
func New(client *s3.Client, cfg Config, logger hclog.Logger) (*Backend, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 backend requires a bucket name")
	}
	if cfg.Prefix != "" && cfg.Prefix[len(cfg.Prefix)-1] != '/' {
		return nil, fmt.Errorf("s3 key prefix %q must end in a slash", cfg.Prefix)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Backend{
		client:       client,
		bucket:       cfg.Bucket,
		prefix:       cfg.Prefix,
		logger:       logger,
		skipChecksum: cfg.SkipChecksum,
	}, nil
}

// NewFromConfig builds a client from the ambient AWS configuration
// (environment, shared config files, instance metadata) and wraps it.
func NewFromConfig(ctx context.Context, cfg Config, logger hclog.Logger) (*Backend, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, cfg, logger)
}

func (b *Backend) Name() string {
	return "s3"
}

func (b *Backend) Capabilities() objstore.Capability {
	return objstore.CapIndependentNamespaceObjects |
		objstore.CapObjectValidators |
		objstore.CapNativeContentTypeMetadata
}

func (b *Backend) key(id objstore.ObjectID) string {
	return b.prefix + id.Path()
}

func (b *Backend) Stat(ctx context.Context, id objstore.ObjectID) (objstore.Metadata, error) {
	key := b.key(id)
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	})
	if err != nil {
		return objstore.Metadata{}, b.mapErr(err, "stat", key)
	}
	return headMetadata(out), nil
}

func (b *Backend) Get(ctx context.Context, id objstore.ObjectID, rng objstore.ByteRange) (objstore.ReadResult, error) {
	if id.IsNamespace() {
		return objstore.ReadResult{}, problem.New(problem.NotFound, "namespace %q has no content", id)
	}

	// Head first, both to learn the full size for range clamping and to
	// sidestep S3-compatible services that misreport missing keys on
	// GetObject.
	meta, err := b.Stat(ctx, id)
	if err != nil {
		return objstore.ReadResult{}, err
	}

	effective := rng.Clamp(meta.Size)
	if effective.IsEmpty() {
		return objstore.ReadResult{Range: effective, Meta: meta}, nil
	}

	key := b.key(id)
	input := &s3.GetObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	}
	if !rng.IsFull() {
		// HTTP ranges are inclusive of the last byte.
		input.Range = aws.String(fmt.Sprintf("bytes=%d-%d", effective.Offset, effective.End-1))
	}

	out, err := b.client.GetObject(ctx, input)
	if err != nil {
		return objstore.ReadResult{}, b.mapErr(err, "get", key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return objstore.ReadResult{}, problem.Wrap(problem.BackendFailure, err, "reading body of %q", key)
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

	key := b.key(id)
	input := &s3.PutObjectInput{
		Bucket:        &b.bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if !b.skipChecksum {
		// Pre-computing the checksum keeps the request compatible with
		// S3 services that reject streamed trailer checksums.
		sum := sha256.Sum256(data)
		input.ChecksumAlgorithm = types.ChecksumAlgorithmSha256
		input.ChecksumSHA256 = aws.String(base64.StdEncoding.EncodeToString(sum[:]))
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return b.mapErr(err, "put", key)
	}
	b.logger.Trace("uploaded object", "bucket", b.bucket, "key", key, "size", len(data))
	return nil
}

func (b *Backend) Delete(ctx context.Context, id objstore.ObjectID) error {
	// S3 deletes are idempotent and report success for absent keys, so
	// probe first to honor the NotFound contract.
	if _, err := b.Stat(ctx, id); err != nil {
		return err
	}

	key := b.key(id)
	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &b.bucket,
		Key:    &key,
	}); err != nil {
		return b.mapErr(err, "delete", key)
	}
	return nil
}

func (b *Backend) List(ctx context.Context, ns objstore.ObjectID) ([]objstore.Object, error) {
	const maxKeys = 1000

	nsKey := b.key(ns)
	params := &s3.ListObjectsV2Input{
		Bucket:    &b.bucket,
		Prefix:    &nsKey,
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(maxKeys),
	}

	var objects []objstore.Object
	pg := s3.NewListObjectsV2Paginator(b.client, params)
	for pg.HasMorePages() {
		page, err := pg.NextPage(ctx)
		if err != nil {
			return nil, b.mapErr(err, "list", nsKey)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == nsKey {
				// The namespace's own marker is not a child.
				continue
			}
			path, ok := b.objectPath(key)
			if !ok {
				continue
			}
			objects = append(objects, objstore.Object{
				ID: objstore.MakeObjectID(path),
				Meta: objstore.Metadata{
					Size:         aws.ToInt64(obj.Size),
					LastModified: aws.ToTime(obj.LastModified),
					ETag:         aws.ToString(obj.ETag),
				},
			})
		}
		for _, cp := range page.CommonPrefixes {
			key := aws.ToString(cp.Prefix)
			path, ok := b.objectPath(key)
			if !ok {
				continue
			}
			objects = append(objects, objstore.Object{ID: objstore.MakeObjectID(path)})
		}
	}
	return objects, nil
}

// objectPath strips the configured key prefix, rejecting foreign keys.
func (b *Backend) objectPath(key string) (string, bool) {
	if len(key) < len(b.prefix) || key[:len(b.prefix)] != b.prefix {
		return "", false
	}
	return key[len(b.prefix):], true
}

func (b *Backend) mapErr(err error, op, key string) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return problem.Wrap(problem.BackendFailure, err, "bucket %q does not exist", b.bucket)
	}

	var notFound *types.NotFound
	var noKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noKey) {
		return problem.New(problem.NotFound, "object %q does not exist", key)
	}

	return problem.Wrap(problem.BackendFailure, err, "%s %q in bucket %q", op, key, b.bucket)
}

func headMetadata(out *s3.HeadObjectOutput) objstore.Metadata {
	return objstore.Metadata{
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         aws.ToString(out.ETag),
		ContentType:  aws.ToString(out.ContentType),
	}
}
