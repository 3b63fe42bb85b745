package activity

import (
	"context"
	"sync"
)

// CaptureHook records the property lifecycle events (property.changed,
// callback.added, callback.removed, delay.flushed) flowing through an
// emitter, for assertions in tests. Events are stored normalized, exactly as
// downstream hooks would observe them.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records the event and returns any configured error, letting tests
// simulate a failing sink while still asserting on what was delivered.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}
