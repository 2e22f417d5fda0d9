package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"profile": 1}
	evt := Event{
		Verb:       " profile.saved ",
		ActorID:    " store ",
		UserID:     " user ",
		ObjectType: " profile ",
		ObjectID:   " profile-1 ",
		Channel:    " options ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "profile.saved" || got.ObjectType != "profile" || got.ObjectID != "profile-1" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "store" || got.UserID != "user" || got.Channel != "options" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["profile"] = 2
	if meta["profile"] != 1 {
		t.Fatalf("expected original metadata untouched: %+v", meta)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: "options.flushed"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(context.Context, Event) error { return boom1 }),
		nil,
		HookFunc(func(context.Context, Event) error { return boom2 }),
	}

	//nolint:staticcheck // nil context is normalized by Notify
	err := hooks.Notify(nil, Event{Verb: "options.flushed", ObjectType: "options", ObjectID: "wsSwitchWrap"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: "profile.reset", ObjectType: "profile", ObjectID: "profile-1"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	noHooks := NewEmitter(nil, Config{Enabled: true})
	if noHooks.Enabled() {
		t.Fatalf("expected emitter without hooks to be disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != "options" {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "prefs"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       "preset.applied",
		ObjectType: "preset",
		ObjectID:   "default",
		Channel:    "custom",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}
