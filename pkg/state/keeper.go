package state

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-observe"
	"github.com/google/uuid"
)

// Keeper persists and restores the observable properties of instances of O
// through a Store. Save captures a property snapshot; Restore applies a
// loaded snapshot back without firing per-write notifications.
type Keeper[O any] struct {
	Store Store
}

// Save snapshots inst and writes it under ref. When meta carries an ETag it
// must match the stored one, otherwise ErrETagMismatch. The returned Meta
// carries a freshly minted snapshot ID and ETag.
func (k Keeper[O]) Save(ctx context.Context, ref Ref, inst *O, meta Meta) (Meta, error) {
	if k.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	_, loadedMeta, ok, err := k.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %q: %w", ref.Domain, err)
	}
	if ok && meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	snapshot, err := observe.Snapshot(inst)
	if err != nil {
		return Meta{}, err
	}

	saveMeta := meta
	saveMeta.SnapshotID = uuid.NewString()
	saveMeta.ETag = uuid.NewString()
	saveMeta.UpdatedAt = time.Now()

	saved, err := k.Store.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return Meta{}, fmt.Errorf("state: save %q: %w", ref.Domain, err)
	}
	return saved, nil
}

// Restore loads the snapshot stored under ref and applies it to inst. Each
// changed property fires at most one notification, after every value is in
// place.
func (k Keeper[O]) Restore(ctx context.Context, ref Ref, inst *O) (Meta, error) {
	if k.Store == nil {
		return Meta{}, fmt.Errorf("state: store is required")
	}
	snapshot, meta, ok, err := k.Store.Load(ctx, ref)
	if err != nil {
		return Meta{}, fmt.Errorf("state: load %q: %w", ref.Domain, err)
	}
	if !ok {
		return Meta{}, fmt.Errorf("%w: %s/%s", ErrNotFound, ref.Domain, ref.Key)
	}
	if err := observe.Apply(inst, snapshot); err != nil {
		return meta, err
	}
	return meta, nil
}
