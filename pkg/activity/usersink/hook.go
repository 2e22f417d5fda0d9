// Package usersink forwards options activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-wsoptions/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// TenantID is stamped on every record when set.
	TenantID uuid.UUID
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   h.TenantID,
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       normalized.Metadata,
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	// Actor ids that are not UUIDs would otherwise be lost.
	if record.ActorID == uuid.Nil && normalized.ActorID != "" {
		if record.Data == nil {
			record.Data = map[string]any{}
		}
		record.Data["actor"] = normalized.ActorID
	}

	return h.Sink.Log(ctx, record)
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
