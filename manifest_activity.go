package observe

import (
	"context"
	"fmt"

	"github.com/goliatone/go-observe/pkg/activity"
)

const (
	callbackAdded   = "callback.added"
	callbackRemoved = "callback.removed"
)

// WithActivityHooks attaches activity hooks to the manifest. Hooks are
// cloned and nil entries dropped to preserve immutability. Property changes,
// callback registration and delay flushes emit events through them.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *manifestConfig) {
		cfg.emitter = activity.NewEmitter(normalized, activity.Config{Enabled: true})
	}
}

// WithActivityEmitter attaches a preconfigured emitter, for callers that
// need a custom channel or enablement flag.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(cfg *manifestConfig) {
		cfg.emitter = emitter
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}

func (p *Property[O]) emitChanged(inst *O, old, next any) error {
	m := p.manifest
	if m == nil {
		return nil
	}
	emitter := m.activityEmitter()
	if !emitter.Enabled() {
		return nil
	}
	return emitter.Emit(context.Background(), activity.BuildPropertyChangedEvent(activity.PropertyEventInput{
		ObjectID: fmt.Sprintf("%p", inst),
		Property: p.name,
		OldValue: old,
		NewValue: next,
	}))
}

func (p *Property[O]) emitCallbackEvent(inst *O, verb string) error {
	m := p.manifest
	if m == nil {
		return nil
	}
	emitter := m.activityEmitter()
	if !emitter.Enabled() {
		return nil
	}
	input := activity.PropertyEventInput{
		ObjectID: fmt.Sprintf("%p", inst),
		Property: p.name,
	}
	var event activity.Event
	switch verb {
	case callbackRemoved:
		event = activity.BuildCallbackRemovedEvent(input)
	default:
		event = activity.BuildCallbackAddedEvent(input)
	}
	return emitter.Emit(context.Background(), event)
}
