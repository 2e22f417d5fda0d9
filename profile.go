package opts

import (
	"context"
	"fmt"
	"sort"

	"github.com/goliatone/go-wsoptions/internal/codec"
	"github.com/goliatone/go-wsoptions/pkg/activity"
	"github.com/goliatone/go-wsoptions/pkg/state"
)

// ProfileReport summarises a LoadProfile call.
type ProfileReport struct {
	Profile int
	Applied []string
	Skipped []UnknownProfileKeyWarning
}

func profileDataKey(index int) string {
	return fmt.Sprintf("profile-data-%d", index)
}

func checkProfile(index int) error {
	if index < 1 || index > MaxProfiles {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidProfile, index, MaxProfiles)
	}
	return nil
}

// ProfileName returns the title of profile slot index.
func (s *Store) ProfileName(index int) (string, error) {
	if err := checkProfile(index); err != nil {
		return "", err
	}
	return s.String(ProfileNameOption(index))
}

// SetProfileName renames profile slot index.
func (s *Store) SetProfileName(index int, name string) error {
	if err := checkProfile(index); err != nil {
		return err
	}
	return s.Set(ProfileNameOption(index), name)
}

// SaveProfile snapshots every option except the profile titles into slot
// index. The snapshot goes through the same debounced write path as Set.
func (s *Store) SaveProfile(ctx context.Context, index int) error {
	if err := checkProfile(index); err != nil {
		return err
	}
	snapshot := map[string]string{}
	for _, d := range s.catalog.Descriptors() {
		if d.ProfileName {
			continue
		}
		value, err := s.Get(d.Name)
		if err != nil {
			return fmt.Errorf("opts: save profile %d: %w", index, err)
		}
		text, err := formatValue(d, value)
		if err != nil {
			return fmt.Errorf("opts: save profile %d: %w", index, err)
		}
		snapshot[d.Name] = text
	}
	if err := s.buffer(DefaultStore, state.Change{Key: profileDataKey(index), Value: snapshot}); err != nil {
		return err
	}
	s.cfg.logger.Log(LogEvent{Level: LevelInfo, Op: "profile.save", Fields: map[string]any{"profile": index, "options": len(snapshot)}})
	s.emit(ctx, activity.BuildProfileSavedEvent(activity.ProfileEventInput{
		ActorID: s.id,
		Profile: index,
		Count:   len(snapshot),
	}))
	return nil
}

// LoadProfile applies the snapshot in slot index. Every entry is parsed before
// anything is written, so a malformed entry leaves the store untouched.
// Entries naming options that no longer exist are skipped and reported.
func (s *Store) LoadProfile(ctx context.Context, index int) (ProfileReport, error) {
	report := ProfileReport{Profile: index}
	if err := checkProfile(index); err != nil {
		return report, err
	}
	snapshot, err := s.profileData(index)
	if err != nil {
		return report, err
	}

	type entry struct {
		name  string
		value any
	}
	var entries []entry
	for _, d := range s.catalog.Descriptors() {
		text, ok := snapshot[d.Name]
		if !ok || d.ProfileName {
			continue
		}
		value, err := parseValue(d, text)
		if err != nil {
			return report, err
		}
		entries = append(entries, entry{name: d.Name, value: value})
	}

	unknown := make([]string, 0)
	for key := range snapshot {
		if _, err := s.catalog.Lookup(key); err != nil {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		warning := UnknownProfileKeyWarning{Profile: index, Key: key}
		report.Skipped = append(report.Skipped, warning)
		s.cfg.logger.Log(LogEvent{Level: LevelWarn, Op: "profile.load", Name: key, Err: warning})
	}

	for _, e := range entries {
		if err := s.Set(e.name, e.value); err != nil {
			return report, err
		}
		report.Applied = append(report.Applied, e.name)
	}
	s.cfg.logger.Log(LogEvent{Level: LevelInfo, Op: "profile.load", Fields: map[string]any{"profile": index, "applied": len(report.Applied), "skipped": len(report.Skipped)}})
	s.emit(ctx, activity.BuildProfileLoadedEvent(activity.ProfileEventInput{
		ActorID: s.id,
		Profile: index,
		Count:   len(report.Applied),
		Skipped: len(report.Skipped),
	}))
	return report, nil
}

// ResetProfile restores the schema default of slot index.
func (s *Store) ResetProfile(ctx context.Context, index int) error {
	if err := checkProfile(index); err != nil {
		return err
	}
	if err := s.buffer(DefaultStore, state.Change{Key: profileDataKey(index), Reset: true}); err != nil {
		return err
	}
	s.cfg.logger.Log(LogEvent{Level: LevelInfo, Op: "profile.reset", Fields: map[string]any{"profile": index}})
	s.emit(ctx, activity.BuildProfileResetEvent(activity.ProfileEventInput{ActorID: s.id, Profile: index}))
	return nil
}

// ProfileData returns the raw snapshot of slot index.
func (s *Store) ProfileData(index int) (map[string]string, error) {
	if err := checkProfile(index); err != nil {
		return nil, err
	}
	return s.profileData(index)
}

func (s *Store) profileData(index int) (map[string]string, error) {
	raw, _, err := s.read(DefaultStore, profileDataKey(index))
	if err != nil {
		return nil, fmt.Errorf("opts: profile %d: %w", index, err)
	}
	snapshot, ok := codec.StringMap(raw)
	if !ok {
		return nil, fmt.Errorf("%w: profile %d holds %s", ErrTypeConversion, index, describeValue(raw))
	}
	return snapshot, nil
}

func formatValue(d Descriptor, value any) (string, error) {
	switch d.Kind {
	case KindBool:
		return codec.FormatBool(value.(bool)), nil
	case KindInt:
		return codec.FormatInt(value.(int)), nil
	case KindString:
		return value.(string), nil
	case KindStringList:
		return codec.FormatList(value.([]string))
	default:
		return "", &TypeConversionError{Name: d.Name, Kind: d.Kind, Value: value}
	}
}

func parseValue(d Descriptor, text string) (any, error) {
	var (
		value any
		err   error
	)
	switch d.Kind {
	case KindBool:
		value, err = codec.ParseBool(text)
	case KindInt:
		value, err = codec.ParseInt(text)
	case KindString:
		value = text
	case KindStringList:
		value, err = codec.ParseList(text)
	default:
		err = fmt.Errorf("unsupported kind")
	}
	if err != nil {
		return nil, &TypeConversionError{Name: d.Name, Kind: d.Kind, Value: text, Err: err}
	}
	return value, nil
}
