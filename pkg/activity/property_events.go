package activity

import (
	"strings"
	"time"
)

// PropertyEventInput describes the common fields for property lifecycle events.
type PropertyEventInput struct {
	ObjectID   string
	Channel    string
	Property   string
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildPropertyChangedEvent constructs a normalized activity event for a
// property value change.
func BuildPropertyChangedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("property.changed", "property", input)
}

// BuildCallbackAddedEvent constructs an activity event for a callback
// registration.
func BuildCallbackAddedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("callback.added", "property", input)
}

// BuildCallbackRemovedEvent constructs an activity event for a callback
// removal.
func BuildCallbackRemovedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("callback.removed", "property", input)
}

// BuildDelayFlushedEvent constructs an activity event for the single
// notification fired when a delay scope ends with a changed value.
func BuildDelayFlushedEvent(input PropertyEventInput) Event {
	return buildPropertyEvent("delay.flushed", "property", input)
}

func buildPropertyEvent(verb, objectType string, input PropertyEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Property != "" {
		metadata = ensureMetadata(metadata)
		metadata["property"] = input.Property
	}
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Property)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Property:   strings.TrimSpace(input.Property),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
