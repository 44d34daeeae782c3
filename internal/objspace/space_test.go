// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package objspace

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/resource"
)

func testSpace(t *testing.T) *Space {
	t.Helper()
	storageSpace, err := resource.NewStorageSpace(resource.MustParseURI("http://ex.org/"), nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(storageSpace)
}

func mustSlot(t *testing.T, space *Space, uri string) resource.Slot {
	t.Helper()
	slot, err := resource.ResolveSlot(space.StorageSpace(), resource.MustParseURI(uri))
	if err != nil {
		t.Fatal(err)
	}
	return slot
}

func TestObjectIDMapping(t *testing.T) {
	space := testSpace(t)

	tests := []struct {
		uri  string
		rel  AssocRelType
		want string
	}{
		{"http://ex.org/", RelBase, ""},
		{"http://ex.org/", RelAuxNS, "._aux/"},
		{"http://ex.org/a/b.png", RelBase, "a/b.png"},
		{"http://ex.org/a/b.png", RelAuxNS, "a/b.png._aux/"},
		{"http://ex.org/a/b.png", RelAltFatMeta, "a/b.png.__altfm"},
		{"http://ex.org/a/b.png", RelAltContent, "a/b.png.__altcontent"},
		{"http://ex.org/a/b/", RelBase, "a/b/"},
		{"http://ex.org/a/b/", RelAuxNS, "a/b/._aux/"},
		{"http://ex.org/a/b/", RelAltContent, "a/b/.__altcontent"},
		{"http://ex.org/a/b/", RelAltFatMeta, "a/b/.__altfm"},
		{"http://ex.org/a._aux/acl", RelBase, "a._aux/acl"},
		{"http://ex.org/a._aux/acl", RelAltFatMeta, "a._aux/acl.__altfm"},
	}
	for _, test := range tests {
		slot := mustSlot(t, space, test.uri)
		id, err := space.ObjectID(slot, test.rel)
		if err != nil {
			t.Errorf("ObjectID(%q, %s) error: %s", test.uri, test.rel, err)
			continue
		}
		if id.Path() != test.want {
			t.Errorf("ObjectID(%q, %s) = %q, want %q", test.uri, test.rel, id.Path(), test.want)
		}
	}
}

func TestObjectIDDeterminism(t *testing.T) {
	space := testSpace(t)
	slot := mustSlot(t, space, "http://ex.org/a/b/")

	for _, rel := range AllAssocRelTypes {
		first, err := space.ObjectID(slot, rel)
		if err != nil {
			t.Fatal(err)
		}
		again, err := space.ObjectID(slot, rel)
		if err != nil {
			t.Fatal(err)
		}
		if first != again {
			t.Errorf("ObjectID(%s) not deterministic: %q vs %q", rel, first.Path(), again.Path())
		}
	}
}

func TestObjectIDInjectivity(t *testing.T) {
	space := testSpace(t)

	// A mix of slots whose derived ids could plausibly collide if the
	// delimiter scheme were broken: mutex siblings, aux resources, and
	// near-miss names.
	uris := []string{
		"http://ex.org/",
		"http://ex.org/a",
		"http://ex.org/a/",
		"http://ex.org/a/b",
		"http://ex.org/a/b/",
		"http://ex.org/a/b.png",
		"http://ex.org/a._aux/acl",
		"http://ex.org/a/._aux/acl",
		"http://ex.org/a/b._aux/meta",
	}

	seen := make(map[string]string) // object path -> "uri rel"
	for _, uri := range uris {
		slot := mustSlot(t, space, uri)
		for _, rel := range AllAssocRelTypes {
			id, err := space.ObjectID(slot, rel)
			if err != nil {
				t.Fatal(err)
			}
			key := id.Path()
			owner := uri + " " + rel.String()
			if prev, dup := seen[key]; dup {
				t.Errorf("object id %q resolved for both %s and %s", key, prev, owner)
			}
			seen[key] = owner
		}
	}
}

func TestAssocLinks(t *testing.T) {
	space := testSpace(t)
	slot := mustSlot(t, space, "http://ex.org/a/b.png")

	links := space.AssocLinks(slot)
	if len(links) != len(AllAssocRelTypes) {
		t.Fatalf("got %d links, want %d", len(links), len(AllAssocRelTypes))
	}
	wantPaths := map[AssocRelType]string{
		RelBase:       "a/b.png",
		RelAuxNS:      "a/b.png._aux/",
		RelAltContent: "a/b.png.__altcontent",
		RelAltFatMeta: "a/b.png.__altfm",
	}
	gotPaths := make(map[AssocRelType]string, len(links))
	for rel, link := range links {
		if link.RelType != rel {
			t.Errorf("link under key %s has rel type %s", rel, link.RelType)
		}
		gotPaths[rel] = link.Target.Path()
	}
	if diff := cmp.Diff(wantPaths, gotPaths); diff != "" {
		t.Errorf("wrong link targets:\n%s", diff)
	}
}

func TestRevLink(t *testing.T) {
	space := testSpace(t)

	// Every id the forward mapping produces must decode back to exactly
	// its (resource, rel type) pair.
	for _, uri := range []string{
		"http://ex.org/",
		"http://ex.org/a/b.png",
		"http://ex.org/a/b/",
		"http://ex.org/a._aux/acl",
	} {
		slot := mustSlot(t, space, uri)
		for _, rel := range AllAssocRelTypes {
			id, err := space.ObjectID(slot, rel)
			if err != nil {
				t.Fatal(err)
			}
			rev, err := space.RevLink(id)
			if err != nil {
				t.Errorf("RevLink(%q) error: %s", id.Path(), err)
				continue
			}
			if rev.Target.String() != uri || rev.RelType != rel {
				t.Errorf("RevLink(%q) = (%q, %s), want (%q, %s)", id.Path(), rev.Target, rev.RelType, uri, rel)
			}
		}
	}
}

func TestRevLinkRejectsForeignPaths(t *testing.T) {
	space := testSpace(t)

	for _, path := range []string{
		"a/b.__bogus",   // unknown sidecar token
		"a/._aux/x/y/z", // not an assignable slot path
	} {
		id := objstore.MakeObjectID(path)
		if _, err := space.RevLink(id); err == nil {
			t.Errorf("RevLink(%q) succeeded, want error", path)
		}
	}
}
