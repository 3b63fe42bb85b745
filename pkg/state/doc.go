// Package state defines persistence-facing contracts for loading and saving
// property snapshots of observed instances, plus a small keeper that
// orchestrates snapshot capture and restoration through the core observe
// primitives.
//
// Responsibilities:
//   - Store only loads/saves a single snapshot for a single Ref.
//   - Keeper[O] snapshots an instance with observe.Snapshot and restores one
//     with observe.Apply, which coalesces notifications per property.
//   - The core observe package remains persistence-agnostic; all persistence
//     logic stays behind Store implementations supplied by consumers.
//
// Data flow:
//
//	observe.Snapshot -> Keeper.Save -> Store
//	Store -> Keeper.Restore -> observe.Apply
//
// Deterministic keys:
//
//	Ref.Identifier() provides a canonical storage key format ("domain/key").
package state
