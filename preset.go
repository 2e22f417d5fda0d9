package opts

import (
	"context"
	"fmt"

	"github.com/goliatone/go-wsoptions/pkg/activity"
)

// PresetValue is one literal entry of a preset.
type PresetValue struct {
	Name  string
	Value any
}

// Preset is a fixed bundle of values applied in one shot. Presets are not
// persisted; only the values they set are.
type Preset struct {
	Name   string
	Values []PresetValue
}

// ApplyPreset validates every entry and then sets them in order. An unknown
// option or a kind mismatch aborts before anything is buffered.
func (s *Store) ApplyPreset(ctx context.Context, preset Preset) error {
	normalized := make([]PresetValue, 0, len(preset.Values))
	for _, entry := range preset.Values {
		d, err := s.catalog.Lookup(entry.Name)
		if err != nil {
			return fmt.Errorf("opts: preset %q: %w", preset.Name, err)
		}
		value, ok := d.Kind.normalize(entry.Value)
		if !ok {
			return fmt.Errorf("opts: preset %q: %w", preset.Name, &TypeConversionError{Name: d.Name, Kind: d.Kind, Value: entry.Value})
		}
		normalized = append(normalized, PresetValue{Name: d.Name, Value: value})
	}
	for _, entry := range normalized {
		if err := s.Set(entry.Name, entry.Value); err != nil {
			return fmt.Errorf("opts: preset %q: %w", preset.Name, err)
		}
	}
	s.emit(ctx, activity.BuildPresetAppliedEvent(activity.PresetEventInput{
		ActorID: s.id,
		Preset:  preset.Name,
		Count:   len(normalized),
	}))
	return nil
}

// DefaultPresets returns the built-in popup styles.
func DefaultPresets() []Preset {
	return []Preset{
		{
			Name: "default",
			Values: []PresetValue{
				{"popupMode", 0},
				{"popupScale", 100},
				{"popupWidthScale", 100},
				{"popupPaddingScale", 100},
				{"popupSpacingScale", 100},
				{"popupRadius", 100},
				{"popupOpacity", 98},
				{"allowCustomColors", false},
				{"activeShowWsIndex", true},
				{"activeShowWsName", false},
				{"inactiveShowWsIndex", true},
				{"inactiveShowWsName", false},
			},
		},
		{
			Name: "index",
			Values: []PresetValue{
				{"popupMode", 1},
				{"popupScale", 80},
				{"popupPaddingScale", 50},
				{"popupRadius", 50},
				{"activeShowWsIndex", true},
				{"activeShowWsName", false},
				{"activeShowAppName", false},
				{"activeShowWinTitle", false},
			},
		},
		{
			Name: "names",
			Values: []PresetValue{
				{"popupMode", 0},
				{"popupWidthScale", 120},
				{"activeShowWsIndex", false},
				{"activeShowWsName", true},
				{"inactiveShowWsIndex", false},
				{"inactiveShowWsName", true},
			},
		},
	}
}

// PresetByName looks up a built-in preset.
func PresetByName(name string) (Preset, bool) {
	for _, preset := range DefaultPresets() {
		if preset.Name == name {
			return preset, true
		}
	}
	return Preset{}, false
}
