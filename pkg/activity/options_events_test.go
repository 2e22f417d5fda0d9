package activity

import (
	"context"
	"slices"
	"testing"
)

func TestBuildOptionsFlushedEventSingleOptionUsesName(t *testing.T) {
	event := BuildOptionsFlushedEvent(OptionsEventInput{ActorID: " store-1 ", Names: []string{"wsSwitchWrap"}})
	if event.Verb != VerbOptionsFlushed || event.ObjectType != "options" {
		t.Fatalf("unexpected verb/object type: %+v", event)
	}
	if event.ObjectID != "wsSwitchWrap" {
		t.Fatalf("expected object id to be the option, got %q", event.ObjectID)
	}
	if event.ActorID != "store-1" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
}

func TestBuildOptionsFlushedEventCopiesNames(t *testing.T) {
	names := []string{"popupScale", "popupRadius"}
	event := BuildOptionsFlushedEvent(OptionsEventInput{Names: names})
	if event.ObjectID != "options" {
		t.Fatalf("expected generic object id for batches, got %q", event.ObjectID)
	}
	got, ok := event.Metadata["options"].([]string)
	if !ok || !slices.Equal(got, names) {
		t.Fatalf("expected names in metadata, got %v", event.Metadata["options"])
	}
	got[0] = "changed"
	if names[0] != "popupScale" {
		t.Fatalf("expected input names untouched")
	}
}

func TestBuildProfileEvents(t *testing.T) {
	saved := BuildProfileSavedEvent(ProfileEventInput{Profile: 2, Count: 40})
	if saved.Verb != VerbProfileSaved || saved.ObjectType != "profile" || saved.ObjectID != "profile-2" {
		t.Fatalf("unexpected saved event: %+v", saved)
	}
	if saved.Metadata["profile"] != 2 || saved.Metadata["count"] != 40 {
		t.Fatalf("unexpected saved metadata: %+v", saved.Metadata)
	}

	loaded := BuildProfileLoadedEvent(ProfileEventInput{Profile: 3, Count: 10, Skipped: 1})
	if loaded.Verb != VerbProfileLoaded || loaded.Metadata["skipped"] != 1 {
		t.Fatalf("unexpected loaded event: %+v", loaded)
	}

	reset := BuildProfileResetEvent(ProfileEventInput{Profile: 5})
	if reset.Verb != VerbProfileReset || reset.ObjectID != "profile-5" {
		t.Fatalf("unexpected reset event: %+v", reset)
	}
	if _, ok := reset.Metadata["count"]; ok {
		t.Fatalf("expected zero count omitted, got %+v", reset.Metadata)
	}
}

func TestBuildPresetAppliedEventFallbackObjectID(t *testing.T) {
	event := BuildPresetAppliedEvent(PresetEventInput{Count: 3})
	if event.ObjectID != "preset" {
		t.Fatalf("expected fallback object ID 'preset', got %q", event.ObjectID)
	}
	named := BuildPresetAppliedEvent(PresetEventInput{Preset: "compact", Count: 3})
	if named.ObjectID != "compact" || named.Metadata["count"] != 3 {
		t.Fatalf("unexpected named preset event: %+v", named)
	}
}

func TestBuiltEventsPassHookValidation(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	events := []Event{
		BuildOptionsFlushedEvent(OptionsEventInput{}),
		BuildProfileResetEvent(ProfileEventInput{Profile: 1}),
		BuildPresetAppliedEvent(PresetEventInput{}),
	}
	for _, event := range events {
		if err := hooks.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(capture.Events) != len(events) {
		t.Fatalf("expected every built event captured, got %d", len(capture.Events))
	}
}
