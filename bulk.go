package observe

import (
	"fmt"
	"reflect"
)

// AddCallback attaches one or more callbacks to one or more properties of
// inst. props is a property name, a slice of names, or a map from name to a
// callback (or slice of callbacks); callback is a single callback or a slice,
// and must be omitted (nil) when props is a map. Side effects apply per
// property in encounter order and are not rolled back if a later property
// fails validation.
func AddCallback[O any](inst *O, props any, callback any, opts ...CallbackOption) error {
	m, err := ManifestFor[O]()
	if err != nil {
		return err
	}
	targets, err := resolveTargets(m, props, callback)
	if err != nil {
		return err
	}
	for _, target := range targets {
		for _, cb := range target.callbacks {
			if err := target.prop.AddCallback(inst, cb, opts...); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveCallback reverses AddCallback for the same property/callback
// specification. Removing a callback that is not registered fails with
// ErrNotFound; earlier removals in the same call are not rolled back.
func RemoveCallback[O any](inst *O, props any, callback any) error {
	m, err := ManifestFor[O]()
	if err != nil {
		return err
	}
	targets, err := resolveTargets(m, props, callback)
	if err != nil {
		return err
	}
	for _, target := range targets {
		for _, cb := range target.callbacks {
			if err := target.prop.RemoveCallback(inst, cb); err != nil {
				return err
			}
		}
	}
	return nil
}

// Callbacks returns a snapshot of the resolvable callbacks registered on one
// property of inst.
func Callbacks[O any](inst *O, name string) ([]Callback[O], error) {
	m, err := ManifestFor[O]()
	if err != nil {
		return nil, err
	}
	p, err := m.Property(name)
	if err != nil {
		return nil, err
	}
	return p.Callbacks(inst), nil
}

// AllCallbacks returns the callback snapshot of every registered property,
// keyed by property name.
func AllCallbacks[O any](inst *O) (map[string][]Callback[O], error) {
	m, err := ManifestFor[O]()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Callback[O], len(m.order))
	for _, name := range m.order {
		out[name] = m.props[name].Callbacks(inst)
	}
	return out, nil
}

// ClearCallbacks empties the containers of the named properties, or of every
// registered property when no names are given, resetting the enabled flag.
func ClearCallbacks[O any](inst *O, names ...string) error {
	m, err := ManifestFor[O]()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = m.Names()
	}
	for _, name := range names {
		p, err := m.Property(name)
		if err != nil {
			return err
		}
		p.ClearCallbacks(inst)
	}
	return nil
}

// CopyOption configures CopyCallbacks.
type CopyOption func(*copyConfig)

type copyConfig struct {
	checkType bool
}

// WithoutTypeCheck skips the dynamic-type comparison between source and
// target instances. Only meaningful when the owner type is an interface.
func WithoutTypeCheck() CopyOption {
	return func(cfg *copyConfig) {
		cfg.checkType = false
	}
}

// CopyCallbacks fans every callback registered on old onto the corresponding
// property of new, preserving priorities and bound-owner weak references.
// Used when a consumer replaces an owned sub-object with a freshly built
// equivalent and wants external observers preserved.
func CopyCallbacks[O any](oldInst, newInst *O, opts ...CopyOption) error {
	cfg := copyConfig{checkType: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.checkType {
		oldType := reflect.TypeOf(*oldInst)
		newType := reflect.TypeOf(*newInst)
		if oldType != newType {
			return fmt.Errorf("%w: %v vs %v", ErrTypeMismatch, oldType, newType)
		}
	}
	m, err := ManifestFor[O]()
	if err != nil {
		return err
	}
	for _, name := range m.order {
		p := m.props[name]
		src := p.state(oldInst, false)
		if src == nil || src.callbacks == nil || src.callbacks.Len() == 0 {
			continue
		}
		dst := p.state(newInst, true)
		if dst.callbacks == nil {
			dst.callbacks = NewContainer[O]()
		}
		src.callbacks.copyTo(dst.callbacks)
	}
	return nil
}

type bulkTarget[O any] struct {
	prop      *Property[O]
	callbacks []any
}

// resolveTargets validates the property specification and pairs each
// resolved property with the callbacks that apply to it. Validation happens
// per property in encounter order.
func resolveTargets[O any](m *Manifest[O], props any, callback any) ([]bulkTarget[O], error) {
	switch spec := props.(type) {
	case string:
		callbacks, err := normalizeCallbacks[O](callback)
		if err != nil {
			return nil, err
		}
		p, err := m.Property(spec)
		if err != nil {
			return nil, err
		}
		return []bulkTarget[O]{{prop: p, callbacks: callbacks}}, nil
	case []string:
		callbacks, err := normalizeCallbacks[O](callback)
		if err != nil {
			return nil, err
		}
		targets := make([]bulkTarget[O], 0, len(spec))
		for _, name := range spec {
			p, err := m.Property(name)
			if err != nil {
				return nil, err
			}
			targets = append(targets, bulkTarget[O]{prop: p, callbacks: callbacks})
		}
		return targets, nil
	case map[string]any:
		if callback != nil {
			return nil, ErrConflict
		}
		// Iterate in manifest declaration order so partial application on
		// failure is deterministic.
		targets := make([]bulkTarget[O], 0, len(spec))
		for _, name := range m.order {
			value, ok := spec[name]
			if !ok {
				continue
			}
			callbacks, err := normalizeCallbacks[O](value)
			if err != nil {
				return nil, err
			}
			targets = append(targets, bulkTarget[O]{prop: m.props[name], callbacks: callbacks})
		}
		for name := range spec {
			if _, err := m.Property(name); err != nil {
				return nil, err
			}
		}
		return targets, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotAProperty, props)
	}
}

// normalizeCallbacks flattens a callback specification (single callback or
// slice) into registrable values, rejecting anything that is not callable.
func normalizeCallbacks[O any](callback any) ([]any, error) {
	switch cb := callback.(type) {
	case nil:
		return nil, fmt.Errorf("%w: callback is required", ErrNotCallable)
	case Callback[O]:
		if cb == nil {
			return nil, ErrNotCallable
		}
		return []any{cb}, nil
	case func(*O) error:
		if cb == nil {
			return nil, ErrNotCallable
		}
		return []any{cb}, nil
	case BoundCallback[O]:
		if cb.bind == nil {
			return nil, ErrNotCallable
		}
		return []any{cb}, nil
	case []Callback[O]:
		out := make([]any, 0, len(cb))
		for _, fn := range cb {
			if fn == nil {
				return nil, ErrNotCallable
			}
			out = append(out, fn)
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(cb))
		for _, value := range cb {
			nested, err := normalizeCallbacks[O](value)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotCallable, callback)
	}
}

// normalizeCallback resolves a specification that must name exactly one
// callback.
func normalizeCallback[O any](callback any) (Callback[O], error) {
	values, err := normalizeCallbacks[O](callback)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%w: exactly one callback expected", ErrNotCallable)
	}
	switch cb := values[0].(type) {
	case Callback[O]:
		return cb, nil
	case func(*O) error:
		return cb, nil
	case BoundCallback[O]:
		return func(inst *O) error {
			fn, ok := cb.bind()
			if !ok {
				return nil
			}
			return fn(inst)
		}, nil
	}
	return nil, ErrNotCallable
}
