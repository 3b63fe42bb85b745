package observe

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-observe/internal/coerce"
)

// Snapshot captures the current value of every registered property of inst,
// keyed by property name. Suitable for persistence through pkg/state.
func Snapshot[O any](inst *O) (map[string]any, error) {
	m, err := ManifestFor[O]()
	if err != nil {
		return nil, err
	}
	return m.Snapshot(inst), nil
}

// Apply writes values onto inst inside a delay scope, so each changed
// property fires at most one notification once every value is in place.
// Every key is validated against the manifest before any write happens.
// Values whose dynamic type does not match the property default are coerced
// through a JSON round trip, which makes Apply tolerant of snapshots decoded
// from storage.
func Apply[O any](inst *O, values map[string]any) error {
	m, err := ManifestFor[O]()
	if err != nil {
		return err
	}
	for name := range values {
		if _, err := m.Property(name); err != nil {
			return err
		}
	}
	return Delayed(inst, func() error {
		for _, name := range m.Names() {
			value, ok := values[name]
			if !ok {
				continue
			}
			p := m.props[name]
			converted, err := coerceFor(p, value)
			if err != nil {
				return fmt.Errorf("observe: apply %s: %w", name, err)
			}
			if err := p.Set(inst, converted); err != nil {
				return err
			}
		}
		return nil
	})
}

func coerceFor[O any](p *Property[O], value any) (any, error) {
	if p.def == nil || value == nil {
		return value, nil
	}
	target := reflect.TypeOf(p.def)
	if reflect.TypeOf(value) == target {
		return value, nil
	}
	return coerce.Value(value, target)
}
