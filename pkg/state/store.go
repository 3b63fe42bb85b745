package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("state: snapshot not found")

var ErrETagMismatch = errors.New("state: etag mismatch")

// Ref identifies one persisted snapshot for one instance of an observed type.
type Ref struct {
	Domain string
	Key    string
}

// Identifier returns the canonical storage key for the reference.
func (r Ref) Identifier() (string, error) {
	domain := strings.TrimSpace(r.Domain)
	if domain == "" {
		return "", fmt.Errorf("state: domain is required")
	}
	key := strings.TrimSpace(r.Key)
	if key == "" {
		return "", fmt.Errorf("state: key is required")
	}
	return fmt.Sprintf("%s/%s", domain, key), nil
}

// Meta is storage-owned metadata used for trace/audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one property snapshot for a single reference. Snapshots
// are plain name-to-value maps, so any marshaling backend can implement it.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot map[string]any, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot map[string]any, meta Meta) (Meta, error)
}
