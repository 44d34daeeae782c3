// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resctx

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/manomayam/manas/internal/objspace"
	"github.com/manomayam/manas/internal/resource"
)

func testContext(t *testing.T, uri string) *Context {
	t.Helper()
	storageSpace, err := resource.NewStorageSpace(resource.MustParseURI("http://ex.org/"), nil)
	if err != nil {
		t.Fatal(err)
	}
	space := objspace.New(storageSpace)
	slot, err := resource.ResolveSlot(storageSpace, resource.MustParseURI(uri))
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := New(space, slot)
	if err != nil {
		t.Fatal(err)
	}
	return ctx
}

func TestContextLinks(t *testing.T) {
	ctx := testContext(t, "http://ex.org/a/b.png")

	if got, want := ctx.BaseObjectID().Path(), "a/b.png"; got != want {
		t.Errorf("base object id %q, want %q", got, want)
	}
	if got, want := ctx.AuxNSObjectID().Path(), "a/b.png._aux/"; got != want {
		t.Errorf("aux ns object id %q, want %q", got, want)
	}

	sidecars := ctx.SidecarObjectIDs()
	if len(sidecars) != len(objspace.SidecarRelTypes) {
		t.Fatalf("wrong sidecar ids: %s", spew.Sdump(sidecars))
	}
	for _, id := range sidecars {
		if id.IsNamespace() {
			t.Errorf("sidecar id %q classified as namespace", id.Path())
		}
	}

	if _, ok := ctx.Link(objspace.RelAltContent); !ok {
		t.Error("missing alt content link")
	}
}

func TestContextClassification(t *testing.T) {
	container := testContext(t, "http://ex.org/a/b/")
	nonContainer := testContext(t, "http://ex.org/a/b")

	cc, ok := container.AsContainer()
	if !ok {
		t.Fatal("container context did not classify as container")
	}
	if _, ok := container.AsNonContainer(); ok {
		t.Error("container context also classified as non-container")
	}
	if got, want := cc.MemberNamespaceID().Path(), "a/b/"; got != want {
		t.Errorf("member namespace id %q, want %q", got, want)
	}
	if cc.Context() != container {
		t.Error("widening lost the underlying context")
	}

	nc, ok := nonContainer.AsNonContainer()
	if !ok {
		t.Fatal("non-container context did not classify as non-container")
	}
	if _, ok := nonContainer.AsContainer(); ok {
		t.Error("non-container context also classified as container")
	}
	if nc.Context() != nonContainer {
		t.Error("widening lost the underlying context")
	}
}

func TestMutexSiblingContext(t *testing.T) {
	ctx := testContext(t, "http://ex.org/a/b")

	sibling, ok, err := ctx.MutexSiblingContext()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a mutex sibling")
	}
	if got, want := sibling.URI().String(), "http://ex.org/a/b/"; got != want {
		t.Errorf("sibling uri %q, want %q", got, want)
	}
	if got, want := sibling.BaseObjectID().Path(), "a/b/"; got != want {
		t.Errorf("sibling base object id %q, want %q", got, want)
	}

	root := testContext(t, "http://ex.org/")
	if _, ok, err := root.MutexSiblingContext(); err != nil || ok {
		t.Errorf("root sibling = (ok=%v, err=%v), want none", ok, err)
	}
}
