package observe

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/goliatone/go-observe/pkg/activity"
)

// Manifest enumerates the properties declared by an owner type. It replaces
// reflective attribute scanning: bulk registration, scope managers, snapshots
// and watch expressions all resolve property names through the manifest. It
// also carries the runtime configuration (evaluator, caches, loggers,
// activity hooks) for the type.
type Manifest[O any] struct {
	props map[string]*Property[O]
	order []string

	mu  sync.RWMutex
	cfg manifestConfig
}

type manifestConfig struct {
	evaluator      Evaluator
	programCache   ProgramCache
	functions      *FunctionRegistry
	evalLogger     EvaluatorLogger
	dispatchLogger DispatchLogger
	emitter        *activity.Emitter
}

// Option configures a manifest.
type Option func(*manifestConfig)

// WithEvaluator configures the expression engine used by Watch.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *manifestConfig) {
		cfg.evaluator = e
	}
}

var manifests sync.Map // reflect.Type -> manifest for that owner type

// Register declares the properties of owner type O and returns the manifest.
// Registering the same type again replaces the previous manifest.
func Register[O any](props ...*Property[O]) (*Manifest[O], error) {
	m := &Manifest[O]{props: map[string]*Property[O]{}}
	for _, p := range props {
		if p == nil {
			continue
		}
		if p.name == "" {
			return nil, fmt.Errorf("observe: property name must not be empty")
		}
		if _, exists := m.props[p.name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProperty, p.name)
		}
		m.props[p.name] = p
		m.order = append(m.order, p.name)
		p.manifest = m
	}
	manifests.Store(reflect.TypeFor[O](), m)
	return m, nil
}

// MustRegister is Register, panicking on error. Intended for package-level
// property declarations.
func MustRegister[O any](props ...*Property[O]) *Manifest[O] {
	m, err := Register(props...)
	if err != nil {
		panic(err)
	}
	return m
}

// ManifestFor resolves the manifest registered for type O.
func ManifestFor[O any]() (*Manifest[O], error) {
	stored, ok := manifests.Load(reflect.TypeFor[O]())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, reflect.TypeFor[O]().String())
	}
	return stored.(*Manifest[O]), nil
}

// Use applies configuration options to the manifest. Chainable.
func (m *Manifest[O]) Use(opts ...Option) *Manifest[O] {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, opt := range opts {
		if opt != nil {
			opt(&m.cfg)
		}
	}
	return m
}

// Property resolves a property by name.
func (m *Manifest[O]) Property(name string) (*Property[O], error) {
	if p, ok := m.props[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotAProperty, name)
}

// Names returns the property names in declaration order.
func (m *Manifest[O]) Names() []string {
	return append([]string(nil), m.order...)
}

// Properties returns the properties in declaration order.
func (m *Manifest[O]) Properties() []*Property[O] {
	out := make([]*Property[O], 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.props[name])
	}
	return out
}

// Snapshot captures the current value of every property for inst, keyed by
// property name.
func (m *Manifest[O]) Snapshot(inst *O) map[string]any {
	out := make(map[string]any, len(m.order))
	for _, name := range m.order {
		out[name] = m.props[name].Get(inst)
	}
	return out
}

func (m *Manifest[O]) evaluator() Evaluator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.evaluator
}

func (m *Manifest[O]) setEvaluator(e Evaluator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.evaluator = e
}

func (m *Manifest[O]) programCache() ProgramCache {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.programCache
}

func (m *Manifest[O]) functionRegistry() *FunctionRegistry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.functions
}

func (m *Manifest[O]) evalLogger() EvaluatorLogger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg.evalLogger == nil {
		return noopEvaluatorLogger{}
	}
	return m.cfg.evalLogger
}

func (m *Manifest[O]) dispatchLogger() DispatchLogger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg.dispatchLogger == nil {
		return noopDispatchLogger{}
	}
	return m.cfg.dispatchLogger
}

func (m *Manifest[O]) activityEmitter() *activity.Emitter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.emitter
}
