package activity

import (
	"fmt"
	"strings"
	"time"
)

// Verbs emitted by the options store.
const (
	VerbOptionsFlushed = "options.flushed"
	VerbProfileSaved   = "profile.saved"
	VerbProfileLoaded  = "profile.loaded"
	VerbProfileReset   = "profile.reset"
	VerbPresetApplied  = "preset.applied"
)

// OptionsEventInput describes a flush of buffered option writes.
type OptionsEventInput struct {
	ActorID    string
	UserID     string
	Channel    string
	Names      []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ProfileEventInput describes a profile slot operation.
type ProfileEventInput struct {
	ActorID    string
	UserID     string
	Channel    string
	Profile    int
	Count      int
	Skipped    int
	Metadata   map[string]any
	OccurredAt time.Time
}

// PresetEventInput describes a preset application.
type PresetEventInput struct {
	ActorID    string
	UserID     string
	Channel    string
	Preset     string
	Count      int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildOptionsFlushedEvent reports the option names one flush made durable.
func BuildOptionsFlushedEvent(input OptionsEventInput) Event {
	metadata := cloneMap(input.Metadata)
	objectID := "options"
	if len(input.Names) > 0 {
		metadata = ensureMetadata(metadata)
		metadata["options"] = append([]string{}, input.Names...)
		if len(input.Names) == 1 {
			objectID = input.Names[0]
		}
	}
	return Event{
		Verb:       VerbOptionsFlushed,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		ObjectType: "options",
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func BuildProfileSavedEvent(input ProfileEventInput) Event {
	return buildProfileEvent(VerbProfileSaved, input)
}

func BuildProfileLoadedEvent(input ProfileEventInput) Event {
	event := buildProfileEvent(VerbProfileLoaded, input)
	event.Metadata["skipped"] = input.Skipped
	return event
}

func BuildProfileResetEvent(input ProfileEventInput) Event {
	return buildProfileEvent(VerbProfileReset, input)
}

func buildProfileEvent(verb string, input ProfileEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["profile"] = input.Profile
	if input.Count > 0 {
		metadata["count"] = input.Count
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		ObjectType: "profile",
		ObjectID:   fmt.Sprintf("profile-%d", input.Profile),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// BuildPresetAppliedEvent falls back to "preset" when the preset is unnamed.
func BuildPresetAppliedEvent(input PresetEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["count"] = input.Count
	objectID := strings.TrimSpace(input.Preset)
	if objectID == "" {
		objectID = "preset"
	}
	return Event{
		Verb:       VerbPresetApplied,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		ObjectType: "preset",
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
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
