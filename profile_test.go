package opts

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/goliatone/go-wsoptions/pkg/activity"
	"github.com/goliatone/go-wsoptions/pkg/state"
)

func writeProfile(t *testing.T, f fixture, index int, data map[string]string) {
	t.Helper()
	ext := f.backend(t, DefaultStore)
	err := ext.Write(context.Background(), []state.Change{{Key: profileDataKey(index), Value: data}})
	if err != nil {
		t.Fatalf("seed profile %d: %v", index, err)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	capture := &activity.CaptureHook{}
	f := newFixture(t, WithActivityHooks(activity.Hooks{capture}))
	ctx := context.Background()

	_ = f.store.Set("popupMode", 1)
	_ = f.store.Set(OptionWrap, false)
	_ = f.store.Set(OptionWorkspaceNames, []string{"mail, chat", "web"})
	_ = f.store.SetProfileName(1, "Work")
	if err := f.store.SaveProfile(ctx, 1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	data, err := f.store.ProfileData(1)
	if err != nil {
		t.Fatalf("profile data: %v", err)
	}
	if data["popupMode"] != "1" || data[OptionWrap] != "false" || data[OptionWorkspaceNames] != `["mail, chat","web"]` {
		t.Fatalf("unexpected encoded snapshot %v", data)
	}
	if _, ok := data[ProfileNameOption(1)]; ok {
		t.Fatalf("expected profile titles excluded from snapshots")
	}
	if len(data) != f.store.Catalog().Len()-MaxProfiles {
		t.Fatalf("expected every non-title option saved, got %d entries", len(data))
	}

	_ = f.store.Set("popupMode", 0)
	_ = f.store.Set(OptionWrap, true)
	_ = f.store.Set(OptionWorkspaceNames, []string{})
	report, err := f.store.LoadProfile(ctx, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(report.Skipped) != 0 || len(report.Applied) != len(data) {
		t.Fatalf("unexpected report %+v", report)
	}
	if mode, _ := f.store.Int("popupMode"); mode != 1 {
		t.Fatalf("expected mode restored, got %d", mode)
	}
	if wrap, _ := f.store.Bool(OptionWrap); wrap {
		t.Fatalf("expected wrap restored to false")
	}
	if names, _ := f.store.Strings(OptionWorkspaceNames); !slices.Equal(names, []string{"mail, chat", "web"}) {
		t.Fatalf("expected names with commas restored, got %v", names)
	}
	if title, _ := f.store.ProfileName(1); title != "Work" {
		t.Fatalf("expected title untouched, got %q", title)
	}
	if !slices.Equal(capture.Verbs(), []string{activity.VerbProfileSaved, activity.VerbOptionsFlushed, activity.VerbProfileLoaded}) {
		t.Fatalf("unexpected activity %v", capture.Verbs())
	}
}

func TestLoadProfileSkipsUnknownKeys(t *testing.T) {
	logger := &recordingLogger{}
	f := newFixture(t, WithLogger(logger))
	writeProfile(t, f, 2, map[string]string{"popupMode": "1", "legacyOption": "x"})

	report, err := f.store.LoadProfile(context.Background(), 2)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !slices.Equal(report.Applied, []string{"popupMode"}) {
		t.Fatalf("unexpected applied %v", report.Applied)
	}
	if len(report.Skipped) != 1 || report.Skipped[0] != (UnknownProfileKeyWarning{Profile: 2, Key: "legacyOption"}) {
		t.Fatalf("unexpected skipped %v", report.Skipped)
	}
	event, ok := logger.find("profile.load", LevelWarn)
	if !ok || event.Name != "legacyOption" {
		t.Fatalf("expected warning logged, got %+v", event)
	}
}

func TestLoadProfileAbortsOnMalformedEntry(t *testing.T) {
	f := newFixture(t)
	writeProfile(t, f, 3, map[string]string{OptionWrap: "false", "popupMode": "wide"})

	_, err := f.store.LoadProfile(context.Background(), 3)
	if !errors.Is(err, ErrTypeConversion) {
		t.Fatalf("expected ErrTypeConversion, got %v", err)
	}
	if f.store.Pending() {
		t.Fatalf("expected nothing buffered after a failed load")
	}
	if wrap, _ := f.store.Bool(OptionWrap); !wrap {
		t.Fatalf("expected wrap untouched")
	}
}

func TestLoadProfileReadsLegacyLists(t *testing.T) {
	cases := []struct {
		text string
		want []string
	}{
		{text: "mail,web", want: []string{"mail", "web"}},
		{text: "", want: []string{}},
		{text: `["a,b"]`, want: []string{"a,b"}},
	}
	for _, tc := range cases {
		f := newFixture(t)
		writeProfile(t, f, 4, map[string]string{OptionWorkspaceNames: tc.text})
		if _, err := f.store.LoadProfile(context.Background(), 4); err != nil {
			t.Fatalf("load %q: %v", tc.text, err)
		}
		got, _ := f.store.Strings(OptionWorkspaceNames)
		if !slices.Equal(got, tc.want) {
			t.Fatalf("list %q: expected %v, got %v", tc.text, tc.want, got)
		}
	}
}

func TestProfileIndexIsValidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, index := range []int{0, -1, MaxProfiles + 1} {
		if err := f.store.SaveProfile(ctx, index); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("save %d: expected ErrInvalidProfile, got %v", index, err)
		}
		if _, err := f.store.LoadProfile(ctx, index); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("load %d: expected ErrInvalidProfile, got %v", index, err)
		}
		if err := f.store.ResetProfile(ctx, index); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("reset %d: expected ErrInvalidProfile, got %v", index, err)
		}
		if _, err := f.store.ProfileName(index); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("name %d: expected ErrInvalidProfile, got %v", index, err)
		}
	}
}

func TestResetProfileClearsSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ext := f.backend(t, DefaultStore)

	_ = f.store.SaveProfile(ctx, 5)
	_ = f.store.Flush(ctx)
	if _, ok := ext.UserValue(profileDataKey(5)); !ok {
		t.Fatalf("expected slot written")
	}
	if err := f.store.ResetProfile(ctx, 5); err != nil {
		t.Fatalf("reset: %v", err)
	}
	_ = f.store.Flush(ctx)
	if _, ok := ext.UserValue(profileDataKey(5)); ok {
		t.Fatalf("expected slot cleared")
	}
	data, err := f.store.ProfileData(5)
	if err != nil || len(data) != 0 {
		t.Fatalf("expected empty slot, got %v, %v", data, err)
	}
	report, err := f.store.LoadProfile(ctx, 5)
	if err != nil || len(report.Applied) != 0 {
		t.Fatalf("expected empty load, got %+v, %v", report, err)
	}
}

func TestProfileNames(t *testing.T) {
	f := newFixture(t)
	if title, _ := f.store.ProfileName(3); title != "Profile 3" {
		t.Fatalf("expected default title, got %q", title)
	}
	if err := f.store.SetProfileName(3, "Gaming"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if title, _ := f.store.ProfileName(3); title != "Gaming" {
		t.Fatalf("expected renamed title, got %q", title)
	}
}
