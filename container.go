package observe

import (
	"reflect"
	"runtime"
	"sort"
	"sync"
	"weak"
)

// Callback observes state changes on an instance. A non-nil error aborts the
// remainder of the dispatch and propagates to the caller of the triggering
// write.
type Callback[O any] func(*O) error

// BoundCallback ties a method-like function to the object it belongs to. The
// owner is held through a weak pointer, so registering one of its methods as
// a callback never extends the owner's lifetime; once the owner is collected
// the entry is evicted from every container holding it.
//
// fn must not capture owner, otherwise the weak reference is defeated.
type BoundCallback[O any] struct {
	fnID  uintptr
	owner any
	bind  func() (Callback[O], bool)
}

// Bound constructs the bound-callback variant for owner's method fn. The
// callback is invoked as fn(owner, instance) whenever the observed instance
// changes, for as long as owner is alive.
func Bound[W, O any](owner *W, fn func(*W, *O) error) BoundCallback[O] {
	if owner == nil || fn == nil {
		return BoundCallback[O]{}
	}
	wp := weak.Make(owner)
	runtime.AddCleanup(owner, evictOwner, any(wp))
	return BoundCallback[O]{
		fnID:  reflect.ValueOf(fn).Pointer(),
		owner: any(wp),
		bind: func() (Callback[O], bool) {
			w := wp.Value()
			if w == nil {
				return nil, false
			}
			return func(inst *O) error { return fn(w, inst) }, true
		},
	}
}

// evictHub maps a weak owner token to the eviction thunks of the containers
// that hold entries for that owner. Thunks hold containers weakly so the hub
// never extends a container's lifetime either.
var evictHub = struct {
	sync.Mutex
	targets map[any][]func(any)
}{targets: map[any][]func(any){}}

func evictOwner(key any) {
	evictHub.Lock()
	targets := evictHub.targets[key]
	delete(evictHub.targets, key)
	evictHub.Unlock()
	for _, evict := range targets {
		evict(key)
	}
}

func onOwnerGone(key any, evict func(any)) {
	evictHub.Lock()
	evictHub.targets[key] = append(evictHub.targets[key], evict)
	evictHub.Unlock()
}

type entry[O any] struct {
	cb       Callback[O]
	fnID     uintptr
	owner    any
	bind     func() (Callback[O], bool)
	priority int
}

func (e *entry[O]) resolve() (Callback[O], bool) {
	if e.owner == nil {
		return e.cb, true
	}
	return e.bind()
}

func (e *entry[O]) matches(other *entry[O]) bool {
	if (e.owner == nil) != (other.owner == nil) {
		return false
	}
	if e.fnID != other.fnID {
		return false
	}
	return e.owner == nil || e.owner == other.owner
}

// Container is an ordered, owner-safe collection of callbacks for one
// (instance, property) pair. Entries are kept in insertion order; Callables
// resolves them in descending priority order with stable ties.
type Container[O any] struct {
	mu      sync.Mutex
	entries []*entry[O]
}

// NewContainer returns an empty container.
func NewContainer[O any]() *Container[O] {
	return &Container[O]{}
}

// Append classifies cb as a free callback or a BoundCallback and stores it.
// Free callbacks are held strongly; bound callbacks keep only a weak pointer
// to their owner and are evicted when the owner is collected.
func (c *Container[O]) Append(cb any, priority int) error {
	_, err := c.appendHandle(cb, priority)
	return err
}

// appendHandle is Append returning the stored entry, so callers that need
// to remove exactly their own registration can do so by handle instead of
// by function identity.
func (c *Container[O]) appendHandle(cb any, priority int) (*entry[O], error) {
	e, err := wrapCallback[O](cb, priority)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
	if e.owner != nil {
		c.watchOwner(e.owner)
	}
	return e, nil
}

// removeEntry deletes exactly one entry by its registration handle.
func (c *Container[O]) removeEntry(target *entry[O]) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e == target {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func wrapCallback[O any](cb any, priority int) (*entry[O], error) {
	switch fn := cb.(type) {
	case Callback[O]:
		if fn == nil {
			return nil, ErrNotCallable
		}
		return &entry[O]{cb: fn, fnID: reflect.ValueOf(fn).Pointer(), priority: priority}, nil
	case func(*O) error:
		if fn == nil {
			return nil, ErrNotCallable
		}
		return &entry[O]{cb: fn, fnID: reflect.ValueOf(fn).Pointer(), priority: priority}, nil
	case BoundCallback[O]:
		if fn.bind == nil {
			return nil, ErrNotCallable
		}
		return &entry[O]{fnID: fn.fnID, owner: fn.owner, bind: fn.bind, priority: priority}, nil
	default:
		return nil, ErrNotCallable
	}
}

func (c *Container[O]) watchOwner(key any) {
	wc := weak.Make(c)
	onOwnerGone(key, func(owner any) {
		if cc := wc.Value(); cc != nil {
			cc.evict(owner)
		}
	})
}

// evict removes every entry whose owner token matches.
func (c *Container[O]) evict(owner any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.owner != owner {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}

// Remove deletes every entry matching cb. Free callbacks match by function
// identity (closures built from the same literal share it); bound callbacks
// match by (function, owner) identity.
func (c *Container[O]) Remove(cb any) error {
	needle, err := wrapCallback[O](cb, 0)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.entries[:0]
	removed := false
	for _, e := range c.entries {
		if e.matches(needle) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	c.entries = kept
	if !removed {
		return ErrNotFound
	}
	return nil
}

// Contains reports whether cb is registered and still resolvable. A bound
// entry whose owner has been collected but not yet evicted counts as absent.
func (c *Container[O]) Contains(cb any) bool {
	needle, err := wrapCallback[O](cb, 0)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if !e.matches(needle) {
			continue
		}
		if _, ok := e.resolve(); ok {
			return true
		}
	}
	return false
}

// Callables returns the currently resolvable callbacks in dispatch order:
// descending priority, ties broken by insertion order. Bound entries whose
// owner died but has not been evicted yet are skipped. The returned slice is
// a snapshot; mutating it does not affect the container.
func (c *Container[O]) Callables() []Callback[O] {
	c.mu.Lock()
	sorted := make([]*entry[O], len(c.entries))
	copy(sorted, c.entries)
	c.mu.Unlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority > sorted[j].priority
	})

	out := make([]Callback[O], 0, len(sorted))
	for _, e := range sorted {
		if fn, ok := e.resolve(); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Clear removes every entry.
func (c *Container[O]) Clear() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

// Len counts stored entries, including bound entries whose owner died but
// has not been evicted yet.
func (c *Container[O]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// copyTo clones every entry into dst preserving priorities and boundness.
func (c *Container[O]) copyTo(dst *Container[O]) {
	c.mu.Lock()
	src := make([]*entry[O], len(c.entries))
	copy(src, c.entries)
	c.mu.Unlock()

	for _, e := range src {
		clone := &entry[O]{cb: e.cb, fnID: e.fnID, owner: e.owner, bind: e.bind, priority: e.priority}
		dst.mu.Lock()
		dst.entries = append(dst.entries, clone)
		dst.mu.Unlock()
		if clone.owner != nil {
			dst.watchOwner(clone.owner)
		}
	}
}
