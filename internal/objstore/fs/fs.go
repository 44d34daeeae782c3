// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package fs implements an object store backend on a directory tree,
// through the afero filesystem abstraction so tests can run against a
// memory-backed filesystem.
//
// Namespace objects map to directories and file objects to regular
// files. Object path segments are percent-decoded into file names, so
// stored resources stay human-readable on disk. Directories are not
// independent of their contents: removing a directory removes
// everything under it, which is why this backend does not advertise
// [objstore.CapIndependentNamespaceObjects].
package fs

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"
	"github.com/spf13/afero"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
)

// Temp files carry this prefix while a put is in flight, and are
// skipped by List.
const tempFilePrefix = ".tmp-"

// Backend is an [objstore.Backend] on a directory tree.
type Backend struct {
	fs       afero.Afero
	encoding objstore.PathEncoding
	logger   hclog.Logger
}

var _ objstore.Backend = (*Backend)(nil)

// New wraps the given filesystem, whose root is the storage root. A nil
// logger disables logging.
func New(base afero.Fs, logger hclog.Logger) *Backend {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Backend{
		fs:       afero.Afero{Fs: base},
		encoding: objstore.EncodingPctDecoded,
		logger:   logger,
	}
}

// NewAtDir stores objects under the given OS directory, which must
// exist.
func NewAtDir(dir string, logger hclog.Logger) (*Backend, error) {
	osFS := afero.NewOsFs()
	ok, err := afero.DirExists(osFS, dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("storage directory %q does not exist", dir)
	}
	return New(afero.NewBasePathFs(osFS, dir), nil), nil
}

func (b *Backend) Name() string {
	return "fs"
}

func (b *Backend) Capabilities() objstore.Capability {
	return objstore.CapObjectValidators
}

// filePath translates an object id to its filesystem path. Namespace
// ids translate to directory paths without the trailing separator.
func (b *Backend) filePath(id objstore.ObjectID) (string, error) {
	key, err := b.encoding.BackendKey(id)
	if err != nil {
		return "", problem.Wrap(problem.BackendFailure, err, "translating object id %q", id)
	}
	if key == "" {
		return ".", nil
	}
	return strings.TrimSuffix(key, "/"), nil
}

func (b *Backend) Stat(ctx context.Context, id objstore.ObjectID) (objstore.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return objstore.Metadata{}, problem.Wrap(problem.BackendFailure, err, "stat %q", id)
	}
	p, err := b.filePath(id)
	if err != nil {
		return objstore.Metadata{}, err
	}

	info, err := b.fs.Stat(p)
	if err != nil {
		return objstore.Metadata{}, b.mapErr(err, "stat", id)
	}
	if info.IsDir() != id.IsNamespace() {
		// A file where a directory is expected, or vice versa, backs a
		// different kind of object and so does not back this one.
		return objstore.Metadata{}, problem.New(problem.NotFound, "object %q does not exist", id)
	}
	return fileMetadata(info, id.IsNamespace()), nil
}

func (b *Backend) Get(ctx context.Context, id objstore.ObjectID, rng objstore.ByteRange) (objstore.ReadResult, error) {
	if id.IsNamespace() {
		return objstore.ReadResult{}, problem.New(problem.NotFound, "namespace %q has no content", id)
	}
	meta, err := b.Stat(ctx, id)
	if err != nil {
		return objstore.ReadResult{}, err
	}
	p, err := b.filePath(id)
	if err != nil {
		return objstore.ReadResult{}, err
	}

	effective := rng.Clamp(meta.Size)
	if effective.IsEmpty() {
		return objstore.ReadResult{Range: effective, Meta: meta}, nil
	}

	f, err := b.fs.Open(p)
	if err != nil {
		return objstore.ReadResult{}, b.mapErr(err, "get", id)
	}
	defer f.Close()

	data := make([]byte, effective.Len())
	if _, err := f.ReadAt(data, effective.Offset); err != nil {
		return objstore.ReadResult{}, problem.Wrap(problem.BackendFailure, err, "reading %q", id)
	}

	return objstore.ReadResult{
		Data:  data,
		Range: effective,
		Meta:  meta,
	}, nil
}

func (b *Backend) Put(ctx context.Context, id objstore.ObjectID, data []byte, opts objstore.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return problem.Wrap(problem.BackendFailure, err, "put %q", id)
	}
	p, err := b.filePath(id)
	if err != nil {
		return err
	}

	if id.IsNamespace() {
		if len(data) > 0 {
			return problem.New(problem.BackendFailure, "namespace %q cannot carry content", id)
		}
		if err := b.fs.MkdirAll(p, 0755); err != nil {
			return b.mapErr(err, "put", id)
		}
		return nil
	}

	dir := path.Dir(p)
	if err := b.fs.MkdirAll(dir, 0755); err != nil {
		return b.mapErr(err, "put", id)
	}

	// Write-then-rename so a reader never observes a half-written file
	// under the final name.
	nonce, err := uuid.GenerateUUID()
	if err != nil {
		return problem.Wrap(problem.BackendFailure, err, "put %q", id)
	}
	tmp := path.Join(dir, tempFilePrefix+nonce)
	if err := b.fs.WriteFile(tmp, data, 0644); err != nil {
		return b.mapErr(err, "put", id)
	}
	if err := b.fs.Rename(tmp, p); err != nil {
		b.fs.Remove(tmp)
		return b.mapErr(err, "put", id)
	}
	b.logger.Trace("wrote object file", "path", p, "size", len(data))
	return nil
}

func (b *Backend) Delete(ctx context.Context, id objstore.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return problem.Wrap(problem.BackendFailure, err, "delete %q", id)
	}
	// The stat also verifies kind agreement between id and entry.
	if _, err := b.Stat(ctx, id); err != nil {
		return err
	}
	p, err := b.filePath(id)
	if err != nil {
		return err
	}
	if err := b.fs.Remove(p); err != nil {
		return b.mapErr(err, "delete", id)
	}
	return nil
}

func (b *Backend) List(ctx context.Context, ns objstore.ObjectID) ([]objstore.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, problem.Wrap(problem.BackendFailure, err, "list %q", ns)
	}
	p, err := b.filePath(ns)
	if err != nil {
		return nil, err
	}

	entries, err := b.fs.ReadDir(p)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, b.mapErr(err, "list", ns)
	}

	objects := make([]objstore.Object, 0, len(entries))
	for _, info := range entries {
		name := info.Name()
		if strings.HasPrefix(name, tempFilePrefix) {
			continue
		}
		childKey := name
		if info.IsDir() {
			childKey += "/"
		}
		childPath, err := b.encoding.ObjectPath(childKey)
		if err != nil {
			return nil, problem.Wrap(problem.BackendFailure, err, "translating entry %q", name)
		}
		objects = append(objects, objstore.Object{
			ID:   objstore.MakeObjectID(ns.Path() + childPath),
			Meta: fileMetadata(info, info.IsDir()),
		})
	}
	return objects, nil
}

func (b *Backend) mapErr(err error, op string, id objstore.ObjectID) error {
	if isNotExist(err) {
		return problem.New(problem.NotFound, "object %q does not exist", id)
	}
	return problem.Wrap(problem.BackendFailure, err, "%s %q", op, id)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err)
}

func fileMetadata(info fs.FileInfo, isNamespace bool) objstore.Metadata {
	meta := objstore.Metadata{
		LastModified: info.ModTime(),
	}
	if !isNamespace {
		meta.Size = info.Size()
		// The filesystem keeps no content hashes; a size and mtime
		// digest still changes whenever the content does, within mtime
		// resolution.
		sum := md5.Sum([]byte(strconv.FormatInt(info.Size(), 10) + "-" + strconv.FormatInt(info.ModTime().UnixNano(), 10)))
		meta.ETag = hex.EncodeToString(sum[:])
	}
	return meta
}
