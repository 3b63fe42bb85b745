package observe

import (
	"testing"

	"github.com/goliatone/go-observe/pkg/activity"
)

type ticket struct{}

var (
	ticketStatus = New[ticket]("status", "open")

	ticketManifest = MustRegister(ticketStatus)
)

func TestPropertyChangeEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	ticketManifest.Use(WithActivityHooks(activity.Hooks{capture}))
	defer ticketManifest.Use(WithActivityEmitter(nil))

	tk := &ticket{}
	if err := ticketStatus.Set(tk, "closed"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != "property.changed" {
		t.Fatalf("expected property.changed, got %q", event.Verb)
	}
	if event.Property != "status" {
		t.Fatalf("expected property status, got %q", event.Property)
	}
	if event.Channel != "observe" {
		t.Fatalf("expected default channel, got %q", event.Channel)
	}
	if event.ID == "" {
		t.Fatalf("expected generated event id")
	}
	if event.Metadata["old_value"] != "open" || event.Metadata["new_value"] != "closed" {
		t.Fatalf("unexpected metadata %v", event.Metadata)
	}
}

func TestCallbackLifecycleEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	ticketManifest.Use(WithActivityHooks(activity.Hooks{capture}))
	defer ticketManifest.Use(WithActivityEmitter(nil))

	tk := &ticket{}
	cb := Callback[ticket](func(*ticket) error { return nil })
	if err := ticketStatus.AddCallback(tk, cb); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ticketStatus.RemoveCallback(tk, cb); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if len(capture.Events) != 2 {
		t.Fatalf("expected add and remove events, got %d", len(capture.Events))
	}
	if capture.Events[0].Verb != "callback.added" || capture.Events[1].Verb != "callback.removed" {
		t.Fatalf("unexpected verbs %q, %q", capture.Events[0].Verb, capture.Events[1].Verb)
	}
}

func TestDelayFlushEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	ticketManifest.Use(WithActivityHooks(activity.Hooks{capture}))
	defer ticketManifest.Use(WithActivityEmitter(nil))

	tk := &ticket{}
	err := Delayed(tk, func() error {
		return ticketStatus.Set(tk, "triaged")
	}, "status")
	if err != nil {
		t.Fatalf("delayed: %v", err)
	}

	// the suppressed write must not audit as property.changed; the whole
	// scope collapses to a single delay.flushed event
	if len(capture.Events) != 1 {
		t.Fatalf("expected only the flush event, got %+v", capture.Events)
	}
	event := capture.Events[0]
	if event.Verb != "delay.flushed" {
		t.Fatalf("expected delay.flushed, got %q", event.Verb)
	}
	if event.Metadata["new_value"] != "triaged" {
		t.Fatalf("unexpected flush metadata %v", event.Metadata)
	}
}

func TestIgnoredWriteEmitsNoActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	ticketManifest.Use(WithActivityHooks(activity.Hooks{capture}))
	defer ticketManifest.Use(WithActivityEmitter(nil))

	tk := &ticket{}
	err := Ignored(tk, func() error {
		return ticketStatus.Set(tk, "shadowed")
	}, "status")
	if err != nil {
		t.Fatalf("ignored: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events for ignored writes, got %+v", capture.Events)
	}
}
