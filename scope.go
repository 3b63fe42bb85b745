package observe

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-observe/pkg/activity"
)

// The scope registries are process-wide and keyed by (instance, property)
// identity so that independently created scopes over the same key nest
// correctly. Counts exist only while a key is scoped; a saved value exists
// iff a delay count does.
var scopeRegistry = struct {
	mu          sync.Mutex
	delayCount  map[scopeKey]int
	savedValues map[scopeKey]any
	ignoreCount map[scopeKey]int
}{
	delayCount:  map[scopeKey]int{},
	savedValues: map[scopeKey]any{},
	ignoreCount: map[scopeKey]int{},
}

type scopeKey struct {
	inst any
	prop any
}

// DelayScope suspends dispatch for a set of properties on one instance until
// End, which fires at most one notification per property — and only if the
// value then differs from the value captured when the property first became
// delayed. Scopes nest: the notification fires when the outermost scope for
// a property ends. End must be called on every exit path; an unbalanced
// scope permanently suppresses notifications for its keys.
type DelayScope[O any] struct {
	inst  *O
	props []*Property[O]
	done  bool
}

// Delay enters a delay scope for the named properties, or for every
// registered property when no names are given.
func Delay[O any](inst *O, names ...string) (*DelayScope[O], error) {
	props, err := scopeProperties[O](names)
	if err != nil {
		return nil, err
	}
	scopeRegistry.mu.Lock()
	defer scopeRegistry.mu.Unlock()
	for _, p := range props {
		key := scopeKey{inst: inst, prop: p}
		if _, delayed := scopeRegistry.delayCount[key]; !delayed {
			scopeRegistry.delayCount[key] = 1
			scopeRegistry.savedValues[key] = p.Get(inst)
		} else {
			scopeRegistry.delayCount[key]++
		}
		p.Disable(inst)
	}
	return &DelayScope[O]{inst: inst, props: props}, nil
}

// End exits the scope. For every property whose outermost delay this was,
// dispatch is re-enabled and a single notification fires if the current
// value differs from the pre-scope snapshot. Calling End again is a no-op.
func (s *DelayScope[O]) End() error {
	if s == nil || s.done {
		return nil
	}
	s.done = true

	var pendingProps []*Property[O]
	var pendingOlds []any

	scopeRegistry.mu.Lock()
	for _, p := range s.props {
		key := scopeKey{inst: s.inst, prop: p}
		if scopeRegistry.delayCount[key] > 1 {
			scopeRegistry.delayCount[key]--
			continue
		}
		delete(scopeRegistry.delayCount, key)
		old := scopeRegistry.savedValues[key]
		delete(scopeRegistry.savedValues, key)
		p.Enable(s.inst)
		if !equalValues(old, p.Get(s.inst)) {
			pendingProps = append(pendingProps, p)
			pendingOlds = append(pendingOlds, old)
		}
	}
	scopeRegistry.mu.Unlock()

	var errs []error
	for i, p := range pendingProps {
		if err := p.Notify(s.inst); err != nil {
			errs = append(errs, err)
		}
		if err := emitDelayFlushed(p, s.inst, pendingOlds[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IgnoreScope suppresses dispatch entirely for a set of properties on one
// instance. Unlike DelayScope, no notification fires on End even if the
// value changed. Reference counted, so nested scopes keep dispatch disabled
// until the outermost End.
type IgnoreScope[O any] struct {
	inst  *O
	props []*Property[O]
	done  bool
}

// Ignore enters an ignore scope for the named properties, or for every
// registered property when no names are given.
func Ignore[O any](inst *O, names ...string) (*IgnoreScope[O], error) {
	props, err := scopeProperties[O](names)
	if err != nil {
		return nil, err
	}
	scopeRegistry.mu.Lock()
	defer scopeRegistry.mu.Unlock()
	for _, p := range props {
		key := scopeKey{inst: inst, prop: p}
		scopeRegistry.ignoreCount[key]++
		p.Disable(inst)
	}
	return &IgnoreScope[O]{inst: inst, props: props}, nil
}

// End exits the scope, re-enabling dispatch once the outermost ignore for
// each property ends. Calling End again is a no-op.
func (s *IgnoreScope[O]) End() error {
	if s == nil || s.done {
		return nil
	}
	s.done = true
	scopeRegistry.mu.Lock()
	defer scopeRegistry.mu.Unlock()
	for _, p := range s.props {
		key := scopeKey{inst: s.inst, prop: p}
		if scopeRegistry.ignoreCount[key] > 1 {
			scopeRegistry.ignoreCount[key]--
			continue
		}
		delete(scopeRegistry.ignoreCount, key)
		p.Enable(s.inst)
	}
	return nil
}

// Delayed runs fn inside a delay scope over the named properties,
// guaranteeing a balanced End on every exit path, panics included.
func Delayed[O any](inst *O, fn func() error, names ...string) (err error) {
	scope, derr := Delay(inst, names...)
	if derr != nil {
		return derr
	}
	defer func() {
		err = errors.Join(err, scope.End())
	}()
	return fn()
}

// Ignored runs fn inside an ignore scope over the named properties,
// guaranteeing a balanced End on every exit path.
func Ignored[O any](inst *O, fn func() error, names ...string) (err error) {
	scope, ierr := Ignore(inst, names...)
	if ierr != nil {
		return ierr
	}
	defer func() {
		err = errors.Join(err, scope.End())
	}()
	return fn()
}

func scopeProperties[O any](names []string) ([]*Property[O], error) {
	m, err := ManifestFor[O]()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return m.Properties(), nil
	}
	props := make([]*Property[O], 0, len(names))
	for _, name := range names {
		p, err := m.Property(name)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

func emitDelayFlushed[O any](p *Property[O], inst *O, old any) error {
	m := p.manifest
	if m == nil {
		return nil
	}
	emitter := m.activityEmitter()
	if !emitter.Enabled() {
		return nil
	}
	return emitter.Emit(context.Background(), activity.BuildDelayFlushedEvent(activity.PropertyEventInput{
		ObjectID: fmt.Sprintf("%p", inst),
		Property: p.name,
		OldValue: old,
		NewValue: p.Get(inst),
	}))
}
