package activity

import (
	"context"
	"strings"
)

// DefaultChannel tags events that do not name a channel.
const DefaultChannel = "options"

// Config controls activity emission defaults.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter fans out events to hooks while applying defaults.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter constructs an emitter from hooks and configuration. An emitter
// with no usable hooks is always disabled.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	live := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			live = append(live, hook)
		}
	}
	return &Emitter{
		hooks:   live,
		enabled: cfg.Enabled && len(live) > 0,
		channel: channel,
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Channel returns the default channel applied to events.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Emit forwards the event to all hooks, filling in the channel when missing.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
