// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package resops

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/manomayam/manas/internal/namelock"
	"github.com/manomayam/manas/internal/objspace"
	"github.com/manomayam/manas/internal/objstore"
	"github.com/manomayam/manas/internal/objstore/inmem"
	"github.com/manomayam/manas/internal/problem"
	"github.com/manomayam/manas/internal/resource"
	"github.com/manomayam/manas/internal/status"
)

type testStore struct {
	backend  *inmem.Backend
	resolver *status.Resolver
	creator  *BasicCreator
	deleter  *BasicDeleter
	reader   *BasicReader
	updater  *BasicUpdater
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	storageSpace, err := resource.NewStorageSpace(resource.MustParseURI("http://ex.org/"), nil)
	if err != nil {
		t.Fatal(err)
	}
	backend := inmem.New()
	resolver := status.NewResolver(backend, objspace.New(storageSpace), nil)
	locker := namelock.NewInMem(namelock.Wait)
	creator := NewBasicCreator(backend, resolver, locker, nil, true)
	return &testStore{
		backend:  backend,
		resolver: resolver,
		creator:  creator,
		deleter:  NewBasicDeleter(backend, resolver, locker, nil),
		reader:   NewBasicReader(backend, nil),
		updater:  NewBasicUpdater(backend, resolver, locker, nil, true, creator),
	}
}

func (s *testStore) resolve(t *testing.T, uri string) *status.Token {
	t.Helper()
	token, err := s.resolver.Resolve(context.Background(), resource.MustParseURI(uri))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func (s *testStore) mustCreate(t *testing.T, uri string, data []byte) {
	t.Helper()
	token := s.resolve(t, uri)
	if err := s.creator.Create(context.Background(), token, data, CreateOptions{}); err != nil {
		t.Fatalf("creating %s: %s", uri, err)
	}
}

func TestCreateAndRead(t *testing.T) {
	s := newTestStore(t)
	s.mustCreate(t, "http://ex.org/a/b.txt", []byte("hello"))

	token := s.resolve(t, "http://ex.org/a/b.txt")
	if token.State() != status.ExistingRepresented {
		t.Fatalf("state after create: %s", token.State())
	}

	res, err := s.reader.Read(context.Background(), token, objstore.FullRange)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Represented || !bytes.Equal(res.Data, []byte("hello")) {
		t.Errorf("read back %q (represented=%v)", res.Data, res.Represented)
	}

	// The intermediate container materialized too.
	parent := s.resolve(t, "http://ex.org/a/")
	if parent.State() != status.ExistingRepresented {
		t.Errorf("intermediate container state: %s", parent.State())
	}
}

func TestCreateRejectsConflict(t *testing.T) {
	s := newTestStore(t)
	s.mustCreate(t, "http://ex.org/a/", nil)

	// The non-container form conflicts with the existing container.
	token := s.resolve(t, "http://ex.org/a")
	if token.State() != status.NonExistingMutexExisting {
		t.Fatalf("unexpected state %s", token.State())
	}
	err := s.creator.Create(context.Background(), token, []byte("x"), CreateOptions{})
	if !problem.IsKind(err, problem.Conflict) {
		t.Fatalf("got %v, want Conflict", err)
	}

	// Backend state unchanged: the non-container form still has no
	// object.
	if _, err := s.backend.Stat(context.Background(), objstore.MakeObjectID("a")); !problem.IsKind(err, problem.NotFound) {
		t.Errorf("conflicting create left an object behind: %v", err)
	}

	// Creating over an existing resource is a conflict too.
	existing := s.resolve(t, "http://ex.org/a/")
	if err := s.creator.Create(context.Background(), existing, nil, CreateOptions{}); !problem.IsKind(err, problem.Conflict) {
		t.Fatalf("got %v, want Conflict", err)
	}
}

func TestCreateStaleToken(t *testing.T) {
	s := newTestStore(t)

	token := s.resolve(t, "http://ex.org/a")
	s.mustCreate(t, "http://ex.org/a", []byte("first"))

	// The old token still claims the name is free; the in-lock
	// revalidation must catch that.
	err := s.creator.Create(context.Background(), token, []byte("second"), CreateOptions{})
	if !problem.IsKind(err, problem.Conflict) {
		t.Fatalf("got %v, want Conflict", err)
	}
}

func TestCreateAuxResource(t *testing.T) {
	s := newTestStore(t)
	s.mustCreate(t, "http://ex.org/a/b", []byte("doc"))
	s.mustCreate(t, "http://ex.org/a/b._aux/acl", []byte("grants"))

	token := s.resolve(t, "http://ex.org/a/b._aux/acl")
	if token.State() != status.ExistingRepresented {
		t.Fatalf("state after create: %s", token.State())
	}
	res, err := s.reader.Read(context.Background(), token, objstore.FullRange)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Data, []byte("grants")) {
		t.Errorf("read back %q", res.Data)
	}

	// Aux resources of the space root need no subject probe.
	s.mustCreate(t, "http://ex.org/._aux/acl", []byte("root grants"))

	// The update create-on-absence path reaches aux resources too.
	if err := s.updater.Update(context.Background(), s.resolve(t, "http://ex.org/a/b._aux/meta"), []byte("m"), UpdateOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := s.deleter.Delete(context.Background(), s.resolve(t, "http://ex.org/a/b._aux/acl")); err != nil {
		t.Fatal(err)
	}
	if got := s.resolve(t, "http://ex.org/a/b._aux/acl").State(); got.Exists() {
		t.Errorf("aux resource still %s after delete", got)
	}
}

func TestCreateAuxWithoutSubject(t *testing.T) {
	s := newTestStore(t)

	token := s.resolve(t, "http://ex.org/a/b._aux/acl")
	if token.State() != status.NonExistingMutexNonExisting {
		t.Fatalf("unexpected state %s", token.State())
	}
	err := s.creator.Create(context.Background(), token, []byte("g"), CreateOptions{})
	if !problem.IsKind(err, problem.Conflict) {
		t.Fatalf("got %v, want Conflict", err)
	}

	// The failed create wrote nothing.
	if _, err := s.backend.Stat(context.Background(), objstore.MakeObjectID("a/b._aux/acl")); !problem.IsKind(err, problem.NotFound) {
		t.Errorf("failed create left an object behind: %v", err)
	}

	// A non-represented subject is enough; the aux link hangs off the
	// resource, not its representation.
	if err := s.backend.Put(context.Background(), objstore.MakeObjectID("a/b._aux/meta"), []byte("m"), objstore.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	s.mustCreate(t, "http://ex.org/a/b._aux/acl", []byte("g"))
}

func TestReadNonRepresentedAndAbsent(t *testing.T) {
	s := newTestStore(t)

	// Only an acl object exists for /a.
	if err := s.backend.Put(context.Background(), objstore.MakeObjectID("a._aux/acl"), []byte("g"), objstore.PutOptions{}); err != nil {
		t.Fatal(err)
	}

	res, err := s.reader.Read(context.Background(), s.resolve(t, "http://ex.org/a"), objstore.FullRange)
	if err != nil {
		t.Fatal(err)
	}
	if res.Represented || len(res.Data) != 0 {
		t.Errorf("non-represented read: %+v", res)
	}

	if _, err := s.reader.Read(context.Background(), s.resolve(t, "http://ex.org/nope"), objstore.FullRange); !problem.IsKind(err, problem.NotFound) {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestReadRange(t *testing.T) {
	s := newTestStore(t)
	s.mustCreate(t, "http://ex.org/obj", bytes.Repeat([]byte("x"), 100))

	token := s.resolve(t, "http://ex.org/obj")
	res, err := s.reader.Read(context.Background(), token, objstore.ByteRange{Offset: 90, Size: 50})
	if err != nil {
		t.Fatal(err)
	}
	if res.Range.Offset != 90 || res.Range.End != 100 || len(res.Data) != 10 {
		t.Errorf("clamped read: range %+v, %d bytes", res.Range, len(res.Data))
	}
}

func TestListMembers(t *testing.T) {
	s := newTestStore(t)
	s.mustCreate(t, "http://ex.org/c/", nil)
	s.mustCreate(t, "http://ex.org/c/one", []byte("1"))
	s.mustCreate(t, "http://ex.org/c/two/", nil)

	// The container's own remnants must not show up as members.
	if err := s.backend.Put(context.Background(), objstore.MakeObjectID("c/._aux/acl"), []byte("g"), objstore.PutOptions{}); err != nil {
		t.Fatal(err)
	}

	members, err := s.reader.ListMembers(context.Background(), s.resolve(t, "http://ex.org/c/"))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, m := range members {
		got = append(got, m.String())
	}
	want := []string{"http://ex.org/c/one", "http://ex.org/c/two/"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("wrong members:\n%s", diff)
	}

	if _, err := s.reader.ListMembers(context.Background(), s.resolve(t, "http://ex.org/c/one")); !problem.IsKind(err, problem.Unsupported) {
		t.Fatalf("got %v, want Unsupported for non-container", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	s.mustCreate(t, "http://ex.org/c/", nil)
	s.mustCreate(t, "http://ex.org/c/one", []byte("1"))

	// Aux and sidecar remnants of /c/one.
	for _, path := range []string{"c/one._aux/acl", "c/one.__altfm"} {
		if err := s.backend.Put(context.Background(), objstore.MakeObjectID(path), []byte("m"), objstore.PutOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	// Non-empty container refuses deletion.
	if err := s.deleter.Delete(context.Background(), s.resolve(t, "http://ex.org/c/")); !problem.IsKind(err, problem.Conflict) {
		t.Fatalf("got %v, want Conflict", err)
	}

	if err := s.deleter.Delete(context.Background(), s.resolve(t, "http://ex.org/c/one")); err != nil {
		t.Fatal(err)
	}

	// The resource and all remnants are gone.
	for _, path := range []string{"c/one", "c/one._aux/acl", "c/one.__altfm"} {
		if _, err := s.backend.Stat(context.Background(), objstore.MakeObjectID(path)); !problem.IsKind(err, problem.NotFound) {
			t.Errorf("object %q survived deletion: %v", path, err)
		}
	}

	// Now the container is empty and deletable.
	if err := s.deleter.Delete(context.Background(), s.resolve(t, "http://ex.org/c/")); err != nil {
		t.Fatal(err)
	}

	// Deleting a non-existing resource is NotFound.
	if err := s.deleter.Delete(context.Background(), s.resolve(t, "http://ex.org/c/")); !problem.IsKind(err, problem.NotFound) {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)

	// Create-if-absent path.
	if err := s.updater.Update(context.Background(), s.resolve(t, "http://ex.org/doc"), []byte("v1"), UpdateOptions{}); err != nil {
		t.Fatal(err)
	}

	// Replace path.
	if err := s.updater.Update(context.Background(), s.resolve(t, "http://ex.org/doc"), []byte("v2"), UpdateOptions{}); err != nil {
		t.Fatal(err)
	}
	res, err := s.reader.Read(context.Background(), s.resolve(t, "http://ex.org/doc"), objstore.FullRange)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Data, []byte("v2")) {
		t.Errorf("got %q after update", res.Data)
	}

	// Mutex conflict.
	if err := s.updater.Update(context.Background(), s.resolve(t, "http://ex.org/doc/"), []byte("x"), UpdateOptions{}); !problem.IsKind(err, problem.Conflict) {
		t.Fatalf("got %v, want Conflict", err)
	}

	// Container representations are not replaceable.
	s.mustCreate(t, "http://ex.org/c/", nil)
	if err := s.updater.Update(context.Background(), s.resolve(t, "http://ex.org/c/"), []byte("x"), UpdateOptions{}); !problem.IsKind(err, problem.Unsupported) {
		t.Fatalf("got %v, want Unsupported", err)
	}
}

func TestUpdateWithoutCreate(t *testing.T) {
	s := newTestStore(t)
	strict := NewBasicUpdater(s.backend, s.resolver, namelock.Disabled{}, nil, false, nil)

	err := strict.Update(context.Background(), s.resolve(t, "http://ex.org/doc"), []byte("x"), UpdateOptions{})
	if !problem.IsKind(err, problem.NotFound) {
		t.Fatalf("got %v, want NotFound", err)
	}
}

func TestUnsupportedAndDelegating(t *testing.T) {
	s := newTestStore(t)
	token := s.resolve(t, "http://ex.org/doc")

	if err := (UnsupportedCreator{}).Create(context.Background(), token, nil, CreateOptions{}); !problem.IsKind(err, problem.Unsupported) {
		t.Errorf("got %v, want Unsupported", err)
	}
	if err := (UnsupportedDeleter{}).Delete(context.Background(), token); !problem.IsKind(err, problem.Unsupported) {
		t.Errorf("got %v, want Unsupported", err)
	}
	if _, err := (UnsupportedReader{}).Read(context.Background(), token, objstore.FullRange); !problem.IsKind(err, problem.Unsupported) {
		t.Errorf("got %v, want Unsupported", err)
	}
	if err := (UnsupportedUpdater{}).Update(context.Background(), token, nil, UpdateOptions{}); !problem.IsKind(err, problem.Unsupported) {
		t.Errorf("got %v, want Unsupported", err)
	}

	// Delegation is transparent.
	del := DelegatingCreator{Inner: s.creator}
	if err := del.Create(context.Background(), token, []byte("x"), CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := s.resolve(t, "http://ex.org/doc").State(); got != status.ExistingRepresented {
		t.Errorf("state after delegated create: %s", got)
	}
}

func TestPatchContextValidate(t *testing.T) {
	tests := []struct {
		name     string
		pc       PatchContext
		wantKind problem.Kind
		wantOK   bool
	}{
		{
			name: "valid sparql update",
			pc: PatchContext{
				Source:            []byte("INSERT DATA { <a> <b> <c> }"),
				SourceContentType: "application/sparql-update",
				TargetContentType: "text/turtle",
				Ops:               []PatchOp{PatchRead, PatchAppend},
			},
			wantOK: true,
		},
		{
			name:     "empty source",
			pc:       PatchContext{SourceContentType: "text/n3"},
			wantKind: problem.InvalidEncodedSourceRep,
		},
		{
			name: "unknown patch type",
			pc: PatchContext{
				Source:            []byte("x"),
				SourceContentType: "application/json-patch+json",
				Ops:               []PatchOp{PatchWrite},
			},
			wantKind: problem.IncompatiblePatchSourceContentType,
		},
		{
			name: "incompatible target type",
			pc: PatchContext{
				Source:            []byte("x"),
				SourceContentType: "text/n3",
				TargetContentType: "image/png",
				Ops:               []PatchOp{PatchWrite},
			},
			wantKind: problem.IncompatiblePatchSourceContentType,
		},
		{
			name: "no mutation",
			pc: PatchContext{
				Source:            []byte("x"),
				SourceContentType: "text/n3",
				TargetContentType: "text/turtle",
				Ops:               []PatchOp{PatchRead},
			},
			wantKind: problem.PatchSemantics,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.pc.Validate()
			if test.wantOK {
				if err != nil {
					t.Fatal(err)
				}
				return
			}
			if !problem.IsKind(err, test.wantKind) {
				t.Fatalf("got %v, want kind %v", err, test.wantKind)
			}
		})
	}
}
