// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package status

import (
	"context"
	"testing"

	"github.com/manomayam/manas/internal/objspace"
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/objstore/inmem"
	"github.com/manomayam/manas/internal/problem"
	"github.com/manomayam/manas/internal/resource"
)

func testResolver(t *testing.T) (*Resolver, *inmem.Backend) {
	t.Helper()
	storageSpace, err := resource.NewStorageSpace(resource.MustParseURI("http://ex.org/"), nil)
	if err != nil {
		t.Fatal(err)
	}
	backend := inmem.New()
	return NewResolver(backend, objspace.New(storageSpace), nil), backend
}

func mustPut(t *testing.T, backend *inmem.Backend, path string, data []byte) {
	t.Helper()
	if err := backend.Put(context.Background(), objstore.MakeObjectID(path), data, objstore.PutOptions{}); err != nil {
		t.Fatal(err)
	}
}

func resolveState(t *testing.T, r *Resolver, uri string) State {
	t.Helper()
	token, err := r.Resolve(context.Background(), resource.MustParseURI(uri))
	if err != nil {
		t.Fatalf("Resolve(%q): %s", uri, err)
	}
	return token.State()
}

func TestResolveDecisionTable(t *testing.T) {
	r, backend := testResolver(t)
	mustPut(t, backend, "a/b", []byte("content"))

	tests := []struct {
		uri  string
		want State
	}{
		{"http://ex.org/a/b", ExistingRepresented},
		{"http://ex.org/a/b/", NonExistingMutexExisting},
		{"http://ex.org/a/c", NonExistingMutexNonExisting},
		{"http://ex.org/a/c/", NonExistingMutexNonExisting},
	}
	for _, test := range tests {
		if got := resolveState(t, r, test.uri); got != test.want {
			t.Errorf("Resolve(%q) = %s, want %s", test.uri, got, test.want)
		}
	}
}

func TestResolveExistingNonRepresented(t *testing.T) {
	r, backend := testResolver(t)

	// Only an auxiliary object exists for /a/b.
	mustPut(t, backend, "a/b._aux/acl", []byte("acl graph"))

	if got := resolveState(t, r, "http://ex.org/a/b"); got != ExistingNonRepresented {
		t.Errorf("got %s, want %s", got, ExistingNonRepresented)
	}
}

func TestResolveEmptyAuxNamespaceMarker(t *testing.T) {
	r, backend := testResolver(t)

	// A bare aux namespace marker with no children, as backends with
	// independent namespace objects can hold. List reports nothing, so
	// existence hinges on the marker itself.
	mustPut(t, backend, "a/b._aux/", nil)

	if got := resolveState(t, r, "http://ex.org/a/b"); got != ExistingNonRepresented {
		t.Errorf("got %s, want %s", got, ExistingNonRepresented)
	}
}

func TestResolveOwnExistenceWinsOverSibling(t *testing.T) {
	r, backend := testResolver(t)

	// Both forms have base objects. This violates the store's intended
	// invariant, but resolution must still prefer the target's own
	// existence over reporting it as mutex-blocked.
	mustPut(t, backend, "a/b", []byte("x"))
	mustPut(t, backend, "a/b/", nil)

	if got := resolveState(t, r, "http://ex.org/a/b"); got != ExistingRepresented {
		t.Errorf("got %s, want %s", got, ExistingRepresented)
	}
	if got := resolveState(t, r, "http://ex.org/a/b/"); got != ExistingRepresented {
		t.Errorf("got %s, want %s", got, ExistingRepresented)
	}
}

func TestResolveMutexExclusivity(t *testing.T) {
	r, backend := testResolver(t)
	mustPut(t, backend, "x/y", []byte("x"))
	mustPut(t, backend, "p/q/", nil)
	mustPut(t, backend, "p/q/r", []byte("r"))

	// For any URI, the resource and its sibling must never both report
	// as existing.
	for _, uri := range []string{
		"http://ex.org/x/y",
		"http://ex.org/p/q",
		"http://ex.org/p/q/r",
		"http://ex.org/nothing",
	} {
		own := resolveState(t, r, uri)
		u := resource.MustParseURI(uri)
		siblingURI, ok := u.MutexSibling()
		if !ok {
			continue
		}
		sibling := resolveState(t, r, siblingURI.String())
		if own.Exists() && sibling.Exists() {
			t.Errorf("%s and %s both resolve as existing (%s, %s)", uri, siblingURI, own, sibling)
		}
	}
}

func TestResolveBaseMetadata(t *testing.T) {
	r, backend := testResolver(t)
	mustPut(t, backend, "a/b", []byte("content"))

	token, err := r.Resolve(context.Background(), resource.MustParseURI("http://ex.org/a/b"))
	if err != nil {
		t.Fatal(err)
	}
	meta, ok := token.BaseMetadata()
	if !ok {
		t.Fatal("no base metadata on represented resource")
	}
	if meta.Size != 7 {
		t.Errorf("size %d, want 7", meta.Size)
	}

	absent, err := r.Resolve(context.Background(), resource.MustParseURI("http://ex.org/zzz"))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := absent.BaseMetadata(); ok {
		t.Error("non-existing resource reported base metadata")
	}
}

func TestResolveUnassignableURI(t *testing.T) {
	r, _ := testResolver(t)

	// The aux link delimiter may not terminate a path, so this URI can
	// have no backing object.
	token, err := r.Resolve(context.Background(), resource.MustParseURI("http://ex.org/a._aux/"))
	if err != nil {
		t.Fatal(err)
	}
	if token.State() != NonExistingMutexNonExisting {
		t.Errorf("got %s, want %s", token.State(), NonExistingMutexNonExisting)
	}
	if token.Context() != nil {
		t.Error("unassignable uri produced a resource context")
	}
}

func TestResolveOutsideSpace(t *testing.T) {
	r, _ := testResolver(t)

	_, err := r.Resolve(context.Background(), resource.MustParseURI("http://other.example/a"))
	if !problem.IsKind(err, problem.NotFound) {
		t.Fatalf("got %v, want NotFound", err)
	}
}

// failingStatBackend fails Stat for one object path while delegating
// everything else.
type failingStatBackend struct {
	objstore.Backend
	failPath string
}

func (b *failingStatBackend) Stat(ctx context.Context, id objstore.ObjectID) (objstore.Metadata, error) {
	if id.Path() == b.failPath {
		return objstore.Metadata{}, problem.New(problem.BackendFailure, "stat %q: injected failure", id)
	}
	return b.Backend.Stat(ctx, id)
}

func TestResolvePartialProbeFailure(t *testing.T) {
	storageSpace, err := resource.NewStorageSpace(resource.MustParseURI("http://ex.org/"), nil)
	if err != nil {
		t.Fatal(err)
	}
	backend := inmem.New()
	mustPut(t, backend, "a/b/", nil)

	// The target's own probe succeeds, the sibling probe fails. The
	// resolver must fail outright rather than guess a state.
	failing := &failingStatBackend{Backend: backend, failPath: "a/b/"}
	r := NewResolver(failing, objspace.New(storageSpace), nil)

	_, err = r.Resolve(context.Background(), resource.MustParseURI("http://ex.org/a/b"))
	if !problem.IsKind(err, problem.BackendFailure) {
		t.Fatalf("got %v, want BackendFailure", err)
	}
}

func TestRevalidate(t *testing.T) {
	r, backend := testResolver(t)

	token, err := r.Resolve(context.Background(), resource.MustParseURI("http://ex.org/a/b"))
	if err != nil {
		t.Fatal(err)
	}
	if token.State() != NonExistingMutexNonExisting {
		t.Fatalf("unexpected initial state %s", token.State())
	}

	fresh, same, err := r.Revalidate(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if !same {
		t.Error("state changed without store mutation")
	}

	mustPut(t, backend, "a/b", []byte("x"))
	fresh, same, err = r.Revalidate(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if same {
		t.Error("revalidation missed the store mutation")
	}
	if fresh.State() != ExistingRepresented {
		t.Errorf("fresh state %s, want %s", fresh.State(), ExistingRepresented)
	}
}
