package state

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ref := Ref{Domain: "profiles", Key: "user-1"}
	snapshot := map[string]any{"name": "ada", "age": 36}

	meta, err := store.Save(context.Background(), ref, snapshot, Meta{SnapshotID: "snap-1", ETag: "v1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.SnapshotID != "snap-1" {
		t.Fatalf("expected metadata echoed, got %+v", meta)
	}

	loaded, loadedMeta, ok, err := store.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatalf("expected record present")
	}
	if loaded["name"] != "ada" || loadedMeta.ETag != "v1" {
		t.Fatalf("unexpected load %v %+v", loaded, loadedMeta)
	}

	// mutations of the returned snapshot must not leak into the store
	loaded["name"] = "mallory"
	again, _, _, err := store.Load(context.Background(), ref)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if again["name"] != "ada" {
		t.Fatalf("expected stored snapshot isolated, got %v", again)
	}
}

func TestMemoryStoreMissingRecord(t *testing.T) {
	store := NewMemoryStore()
	_, _, ok, err := store.Load(context.Background(), Ref{Domain: "profiles", Key: "missing"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected missing record")
	}
}

func TestRefIdentifier(t *testing.T) {
	id, err := Ref{Domain: "profiles", Key: "user-1"}.Identifier()
	if err != nil {
		t.Fatalf("identifier: %v", err)
	}
	if id != "profiles/user-1" {
		t.Fatalf("unexpected identifier %q", id)
	}
	if _, err := (Ref{Key: "user-1"}).Identifier(); err == nil {
		t.Fatalf("expected error for missing domain")
	}
	if _, err := (Ref{Domain: "profiles"}).Identifier(); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
