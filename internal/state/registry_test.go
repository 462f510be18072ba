// internal/state/registry_test.go
package state

import (
	"context"
	"testing"

	"github.com/user/docchat/internal/types"
)

func TestRegistryStore(t *testing.T) {
	dir := t.TempDir()
	store := NewRegistryStore(dir)
	ctx := context.Background()

	// Empty load before first save
	docs, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("expected empty registry, got %d documents", len(docs))
	}

	saved := []*types.Document{
		{ID: types.NewDocumentID(), Name: "a.pdf", Size: 100, UploadState: types.UploadUploaded, Progress: 100, SessionID: "s1"},
		{ID: types.NewDocumentID(), Name: "b.pdf", Size: 200, UploadState: types.UploadFailed, Error: "status 500"},
	}
	if err := store.Save(ctx, saved); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(loaded))
	}

	// Order must be preserved so rollback snapshots restore exactly.
	if loaded[0].Name != "a.pdf" || loaded[1].Name != "b.pdf" {
		t.Errorf("expected order preserved, got %s, %s", loaded[0].Name, loaded[1].Name)
	}
	if loaded[1].Error != "status 500" {
		t.Errorf("expected error preserved, got %q", loaded[1].Error)
	}
}

func TestRegistryStoreOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := NewRegistryStore(dir)
	ctx := context.Background()

	doc := &types.Document{ID: types.NewDocumentID(), Name: "a.pdf"}
	if err := store.Save(ctx, []*types.Document{doc}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, nil); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty registry after overwrite, got %d", len(loaded))
	}
}
