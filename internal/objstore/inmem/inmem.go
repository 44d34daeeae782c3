// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package inmem implements an object store backend held entirely in
// process memory. It is used in tests and for throwaway single-process
// deployments; nothing is persisted.
package inmem

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"context"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/problem"
)

// Backend stores objects in a flat map keyed by object path. Namespace
// markers are independent entries, so the backend advertises
// [objstore.CapIndependentNamespaceObjects].
type Backend struct {
	mu      sync.RWMutex
	objects map[string]*entry
}

var _ objstore.Backend = (*Backend)(nil)

type entry struct {
	data []byte
	meta objstore.Metadata
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{objects: make(map[string]*entry)}
}

func (b *Backend) Name() string {
	return "inmem"
}

func (b *Backend) Capabilities() objstore.Capability {
	return objstore.CapIndependentNamespaceObjects |
		objstore.CapObjectValidators |
		objstore.CapNativeContentTypeMetadata
}

func (b *Backend) Stat(ctx context.Context, id objstore.ObjectID) (objstore.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return objstore.Metadata{}, problem.Wrap(problem.BackendFailure, err, "stat %q", id)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.objects[id.Path()]
	if !ok {
		return objstore.Metadata{}, problem.New(problem.NotFound, "object %q does not exist", id)
	}
	return e.meta, nil
}

func (b *Backend) Get(ctx context.Context, id objstore.ObjectID, rng objstore.ByteRange) (objstore.ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return objstore.ReadResult{}, problem.Wrap(problem.BackendFailure, err, "get %q", id)
	}
	if id.IsNamespace() {
		return objstore.ReadResult{}, problem.New(problem.NotFound, "namespace %q has no content", id)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.objects[id.Path()]
	if !ok {
		return objstore.ReadResult{}, problem.New(problem.NotFound, "object %q does not exist", id)
	}

	effective := rng.Clamp(e.meta.Size)
	data := make([]byte, effective.Len())
	copy(data, e.data[effective.Offset:effective.End])
	return objstore.ReadResult{
		Data:  data,
		Range: effective,
		Meta:  e.meta,
	}, nil
}

func (b *Backend) Put(ctx context.Context, id objstore.ObjectID, data []byte, opts objstore.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return problem.Wrap(problem.BackendFailure, err, "put %q", id)
	}
	if id.IsNamespace() && len(data) > 0 {
		return problem.New(problem.BackendFailure, "namespace %q cannot carry content", id)
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	sum := md5.Sum(stored)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[id.Path()] = &entry{
		data: stored,
		meta: objstore.Metadata{
			Size:         int64(len(stored)),
			LastModified: time.Now().UTC(),
			ETag:         hex.EncodeToString(sum[:]),
			ContentType:  opts.ContentType,
		},
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, id objstore.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return problem.Wrap(problem.BackendFailure, err, "delete %q", id)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[id.Path()]; !ok {
		return problem.New(problem.NotFound, "object %q does not exist", id)
	}
	delete(b.objects, id.Path())
	return nil
}

func (b *Backend) List(ctx context.Context, ns objstore.ObjectID) ([]objstore.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, problem.Wrap(problem.BackendFailure, err, "list %q", ns)
	}

	prefix := ns.Path()

	b.mu.RLock()
	defer b.mu.RUnlock()

	// Collect immediate children only. Objects nested deeper contribute
	// their ancestor namespace at most once.
	children := make(map[string]*entry)
	for path, e := range b.objects {
		if path == prefix || !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := path[len(prefix):]
		if i := strings.Index(rest, "/"); i >= 0 && i < len(rest)-1 {
			// Deeper descendant; surface the intermediate namespace
			// unless its own marker entry was already collected.
			key := prefix + rest[:i+1]
			if _, ok := children[key]; !ok {
				children[key] = nil
			}
			continue
		}
		children[path] = e
	}

	objects := make([]objstore.Object, 0, len(children))
	for path, e := range children {
		obj := objstore.Object{ID: objstore.MakeObjectID(path)}
		if e != nil {
			obj.Meta = e.meta
		}
		objects = append(objects, obj)
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ID.Path() < objects[j].ID.Path()
	})
	return objects, nil
}
