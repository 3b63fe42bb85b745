package observe

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"time"
	"weak"
)

// Property is a reactive attribute definition shared by every instance of its
// owning type O. When an instance's value for the property changes, each
// registered callback is invoked with the instance.
//
// A Property is constructed once, at type-declaration time, and registered
// with the type's manifest. Per-instance bookkeeping (current value, callback
// container, enabled flag) lives in a weak table keyed by the instance, so
// the property never keeps an instance alive.
type Property[O any] struct {
	name   string
	doc    string
	def    any
	getter func(*O) any
	setter func(*O, any)

	manifest *Manifest[O]

	mu     sync.Mutex
	states map[weak.Pointer[O]]*instanceState[O]
}

type instanceState[O any] struct {
	hasValue  bool
	value     any
	callbacks *Container[O]
	disabled  bool
}

// New declares a value property with a default. Reads return the last written
// value, or def before the first write.
func New[O any](name string, def any) *Property[O] {
	return &Property[O]{name: name, def: def}
}

// NewAccessor declares a property backed by a custom getter. Without a
// Setter the property is read-only.
func NewAccessor[O any](name string, getter func(*O) any) *Property[O] {
	return &Property[O]{name: name, getter: getter}
}

// Setter attaches the write half of an accessor property. Chainable, so a
// declaration reads as a single expression.
func (p *Property[O]) Setter(fn func(*O, any)) *Property[O] {
	p.setter = fn
	return p
}

// Doc attaches a human-readable description, surfaced through Descriptors.
func (p *Property[O]) Doc(doc string) *Property[O] {
	p.doc = doc
	return p
}

// Name returns the property name.
func (p *Property[O]) Name() string {
	return p.name
}

// Docstring returns the description set via Doc.
func (p *Property[O]) Docstring() string {
	return p.doc
}

// ReadOnly reports whether writes are rejected (accessor without a setter).
func (p *Property[O]) ReadOnly() bool {
	return p.getter != nil && p.setter == nil
}

func (p *Property[O]) state(inst *O, create bool) *instanceState[O] {
	wp := weak.Make(inst)
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.states[wp]; ok {
		return s
	}
	if !create {
		return nil
	}
	if p.states == nil {
		p.states = map[weak.Pointer[O]]*instanceState[O]{}
	}
	s := &instanceState[O]{}
	p.states[wp] = s
	runtime.AddCleanup(inst, func(key weak.Pointer[O]) {
		p.mu.Lock()
		delete(p.states, key)
		p.mu.Unlock()
	}, wp)
	return s
}

// Get returns the instance's current value for the property. Getting never
// dispatches.
func (p *Property[O]) Get(inst *O) any {
	if p.getter != nil {
		return p.getter(inst)
	}
	if s := p.state(inst, false); s != nil && s.hasValue {
		return s.value
	}
	return p.def
}

// Set writes value and, when the observed value actually changed, notifies
// the instance's callbacks. Writing to a read-only property fails with
// ErrNoSetter before any state is touched.
func (p *Property[O]) Set(inst *O, value any) error {
	if p.ReadOnly() {
		return fmt.Errorf("%w: %s", ErrNoSetter, p.name)
	}
	old := p.Get(inst)
	if p.setter != nil {
		p.setter(inst, value)
	} else {
		s := p.state(inst, true)
		s.value = value
		s.hasValue = true
	}
	next := p.Get(inst)
	if equalValues(old, next) {
		return nil
	}
	// Writes under a delay or ignore scope neither dispatch nor audit; a
	// delayed change surfaces later as a single delay.flushed event.
	if !p.Enabled(inst) {
		return nil
	}
	return errors.Join(p.Notify(inst), p.emitChanged(inst, old, next))
}

// Notify invokes the instance's resolvable callbacks in descending priority
// order. A callback error stops the dispatch; the remaining callbacks are
// skipped and the error propagates wrapped in *DispatchError. Disabled
// instances are a no-op.
func (p *Property[O]) Notify(inst *O) error {
	if !p.Enabled(inst) {
		return nil
	}
	callbacks := p.Callbacks(inst)
	start := time.Now()
	var dispatchErr error
	for _, cb := range callbacks {
		if err := cb(inst); err != nil {
			dispatchErr = &DispatchError{Property: p.name, Err: err}
			break
		}
	}
	p.logDispatch(len(callbacks), time.Since(start), dispatchErr)
	return dispatchErr
}

// Enable re-enables dispatch for the instance.
func (p *Property[O]) Enable(inst *O) {
	p.state(inst, true).disabled = false
}

// Disable suppresses dispatch for the instance until Enable.
func (p *Property[O]) Disable(inst *O) {
	p.state(inst, true).disabled = true
}

// Enabled reports whether dispatch is currently enabled for the instance.
func (p *Property[O]) Enabled(inst *O) bool {
	s := p.state(inst, false)
	return s == nil || !s.disabled
}

// AddCallback registers cb (a Callback, func(*O) error, or BoundCallback)
// on the instance, lazily creating the container.
func (p *Property[O]) AddCallback(inst *O, cb any, opts ...CallbackOption) error {
	_, err := p.addCallbackHandle(inst, cb, opts...)
	return err
}

// addCallbackHandle registers cb and returns its container entry. Removal by
// handle deletes only that registration, unlike RemoveCallback which matches
// by function identity.
func (p *Property[O]) addCallbackHandle(inst *O, cb any, opts ...CallbackOption) (*entry[O], error) {
	cfg := applyCallbackOptions(opts)
	s := p.state(inst, true)
	if s.callbacks == nil {
		s.callbacks = NewContainer[O]()
	}
	e, err := s.callbacks.appendHandle(cb, cfg.priority)
	if err != nil {
		return nil, fmt.Errorf("%w: property %s", err, p.name)
	}
	return e, p.emitCallbackEvent(inst, callbackAdded)
}

func (p *Property[O]) removeCallbackHandle(inst *O, e *entry[O]) error {
	s := p.state(inst, false)
	if s == nil || s.callbacks == nil {
		return fmt.Errorf("%w: property %s", ErrNotFound, p.name)
	}
	if err := s.callbacks.removeEntry(e); err != nil {
		return fmt.Errorf("%w: property %s", err, p.name)
	}
	return p.emitCallbackEvent(inst, callbackRemoved)
}

// RemoveCallback removes a previously registered callback. Removing a
// callback that is not registered fails with ErrNotFound.
func (p *Property[O]) RemoveCallback(inst *O, cb any) error {
	s := p.state(inst, false)
	if s == nil || s.callbacks == nil {
		if _, err := wrapCallback[O](cb, 0); err != nil {
			return fmt.Errorf("%w: property %s", err, p.name)
		}
		return fmt.Errorf("%w: property %s", ErrNotFound, p.name)
	}
	if err := s.callbacks.Remove(cb); err != nil {
		return fmt.Errorf("%w: property %s", err, p.name)
	}
	return p.emitCallbackEvent(inst, callbackRemoved)
}

// Callbacks returns a snapshot of the currently resolvable callbacks in
// dispatch order. Mutating the returned slice does not affect the container.
func (p *Property[O]) Callbacks(inst *O) []Callback[O] {
	s := p.state(inst, false)
	if s == nil || s.callbacks == nil {
		return []Callback[O]{}
	}
	return s.callbacks.Callables()
}

// ClearCallbacks empties the instance's container and restores the enabled
// default.
func (p *Property[O]) ClearCallbacks(inst *O) {
	s := p.state(inst, false)
	if s == nil {
		return
	}
	if s.callbacks != nil {
		s.callbacks.Clear()
	}
	s.disabled = false
}

func (p *Property[O]) logDispatch(callbacks int, duration time.Duration, err error) {
	if p.manifest == nil {
		return
	}
	p.manifest.dispatchLogger().LogDispatch(DispatchLogEvent{
		Property:  p.name,
		Callbacks: callbacks,
		Duration:  duration,
		Err:       err,
	})
}

// CallbackOption configures callback registration.
type CallbackOption func(*callbackConfig)

type callbackConfig struct {
	priority int
}

// WithPriority forces a certain order of execution: callbacks with larger
// priorities run first.
func WithPriority(priority int) CallbackOption {
	return func(cfg *callbackConfig) {
		cfg.priority = priority
	}
}

func applyCallbackOptions(opts []CallbackOption) callbackConfig {
	cfg := callbackConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func equalValues(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
