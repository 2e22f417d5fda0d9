package opts

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-wsoptions/pkg/activity"
)

func TestApplyPresetSetsEveryValue(t *testing.T) {
	capture := &activity.CaptureHook{}
	f := newFixture(t, WithActivityHooks(activity.Hooks{capture}))

	preset, ok := PresetByName("index")
	if !ok {
		t.Fatalf("expected built-in preset")
	}
	if err := f.store.ApplyPreset(context.Background(), preset); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for _, entry := range preset.Values {
		got, err := f.store.Get(entry.Name)
		if err != nil || got != entry.Value {
			t.Fatalf("%s: expected %v, got %v, %v", entry.Name, entry.Value, got, err)
		}
	}
	event, ok := capture.Last()
	if !ok || event.Verb != activity.VerbPresetApplied || event.ActorID != f.store.ID() {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestApplyPresetValidatesFirst(t *testing.T) {
	cases := []struct {
		name   string
		values []PresetValue
		want   error
	}{
		{name: "unknown", values: []PresetValue{{"popupMode", 1}, {"popupShape", 2}}, want: ErrUnknownOption},
		{name: "kind", values: []PresetValue{{"popupMode", 1}, {"popupScale", "big"}}, want: ErrTypeConversion},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.store.ApplyPreset(context.Background(), Preset{Name: tc.name, Values: tc.values})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if f.store.Pending() {
				t.Fatalf("expected nothing buffered")
			}
		})
	}
}

func TestDefaultPresetsMatchCatalog(t *testing.T) {
	f := newFixture(t)
	for _, preset := range DefaultPresets() {
		if err := f.store.ApplyPreset(context.Background(), preset); err != nil {
			t.Fatalf("preset %q: %v", preset.Name, err)
		}
	}
	if _, ok := PresetByName("nope"); ok {
		t.Fatalf("expected unknown preset lookup to fail")
	}
}
