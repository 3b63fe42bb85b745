package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksNotifyFansOut(t *testing.T) {
	first := &CaptureHook{}
	second := &CaptureHook{}
	hooks := Hooks{first, nil, second}

	event := Event{
		Verb:       "property.changed",
		ObjectType: "property",
		ObjectID:   "0x1",
		Property:   "status",
	}
	if err := hooks.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(first.Events) != 1 || len(second.Events) != 1 {
		t.Fatalf("expected fan-out to both hooks, got %d/%d", len(first.Events), len(second.Events))
	}
	if first.Events[0].OccurredAt.IsZero() {
		t.Fatalf("expected timestamp to be filled")
	}
}

func TestHooksNotifySkipsIncompleteEvents(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}

	if err := hooks.Notify(context.Background(), Event{Verb: "property.changed"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected incomplete event to be dropped, got %d", len(capture.Events))
	}
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	boom := errors.New("sink down")
	failing := &CaptureHook{Err: boom}
	ok := &CaptureHook{}
	hooks := Hooks{failing, ok}

	err := hooks.Notify(context.Background(), Event{
		Verb:       "callback.added",
		ObjectType: "property",
		ObjectID:   "0x2",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.Events) != 1 {
		t.Fatalf("expected healthy hook to still receive event")
	}
}

func TestNormalizeEventTrimsAndClones(t *testing.T) {
	meta := map[string]any{"k": "v"}
	event := NormalizeEvent(Event{
		Verb:       "  property.changed ",
		ObjectType: " property ",
		ObjectID:   " 0x3 ",
		Metadata:   meta,
		OccurredAt: time.Now(),
	})
	if event.Verb != "property.changed" || event.ObjectType != "property" || event.ObjectID != "0x3" {
		t.Fatalf("expected trimmed fields, got %+v", event)
	}
	event.Metadata["k"] = "changed"
	if meta["k"] != "v" {
		t.Fatalf("expected metadata clone, source mutated")
	}
}

func TestEmitterAppliesDefaults(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	if err := emitter.Emit(context.Background(), Event{
		Verb:       "property.changed",
		ObjectType: "property",
		ObjectID:   "0x4",
	}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Channel != "observe" {
		t.Fatalf("expected default channel, got %q", event.Channel)
	}
	if event.ID == "" {
		t.Fatalf("expected generated event id")
	}
}

func TestEmitterDisabled(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if emitter.Enabled() {
		t.Fatalf("expected disabled emitter")
	}
	if err := emitter.Emit(context.Background(), Event{
		Verb:       "property.changed",
		ObjectType: "property",
		ObjectID:   "0x5",
	}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(capture.Events))
	}

	var nilEmitter *Emitter
	if nilEmitter.Enabled() {
		t.Fatalf("expected nil emitter to report disabled")
	}
}
