package state

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-observe"
)

type device struct{}

var (
	deviceName   = observe.New[device]("name", "")
	deviceUptime = observe.New[device]("uptime", 0)

	_ = observe.MustRegister(deviceName, deviceUptime)
)

func TestKeeperSaveAndRestore(t *testing.T) {
	keeper := Keeper[device]{Store: NewMemoryStore()}
	ref := Ref{Domain: "devices", Key: "d-1"}

	src := &device{}
	if err := deviceName.Set(src, "edge-router"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := deviceUptime.Set(src, 120); err != nil {
		t.Fatalf("set: %v", err)
	}

	meta, err := keeper.Save(context.Background(), ref, src, Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.SnapshotID == "" || meta.ETag == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected minted metadata, got %+v", meta)
	}

	dst := &device{}
	hits := 0
	if err := observe.AddCallback(dst, "name", observe.Callback[device](func(*device) error {
		hits++
		return nil
	})); err != nil {
		t.Fatalf("add: %v", err)
	}
	defer observe.ClearCallbacks(dst)

	restored, err := keeper.Restore(context.Background(), ref, dst)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.SnapshotID != meta.SnapshotID {
		t.Fatalf("expected stored metadata, got %+v", restored)
	}
	if got := deviceName.Get(dst); got != "edge-router" {
		t.Fatalf("expected restored name, got %v", got)
	}
	if got := deviceUptime.Get(dst); got != 120 {
		t.Fatalf("expected restored uptime, got %v", got)
	}
	if hits != 1 {
		t.Fatalf("expected one coalesced notification, got %d", hits)
	}
}

func TestKeeperSaveETagMismatch(t *testing.T) {
	keeper := Keeper[device]{Store: NewMemoryStore()}
	ref := Ref{Domain: "devices", Key: "d-2"}

	src := &device{}
	first, err := keeper.Save(context.Background(), ref, src, Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := keeper.Save(context.Background(), ref, src, Meta{ETag: "stale"}); !errors.Is(err, ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
	if _, err := keeper.Save(context.Background(), ref, src, Meta{ETag: first.ETag}); err != nil {
		t.Fatalf("expected matching etag to save, got %v", err)
	}
}

func TestKeeperRestoreMissing(t *testing.T) {
	keeper := Keeper[device]{Store: NewMemoryStore()}
	dst := &device{}
	if _, err := keeper.Restore(context.Background(), Ref{Domain: "devices", Key: "nope"}, dst); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestKeeperRequiresStore(t *testing.T) {
	keeper := Keeper[device]{}
	d := &device{}
	if _, err := keeper.Save(context.Background(), Ref{Domain: "devices", Key: "x"}, d, Meta{}); err == nil {
		t.Fatalf("expected error without store")
	}
	if _, err := keeper.Restore(context.Background(), Ref{Domain: "devices", Key: "x"}, d); err == nil {
		t.Fatalf("expected error without store")
	}
}
