// Package logging routes store log events to zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	opts "github.com/goliatone/go-wsoptions"
)

// Config holds logger construction settings.
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	Output     io.Writer
}

// DefaultConfig logs info and above to stderr in console format.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     os.Stderr,
	}
}

// New builds a zerolog logger from cfg.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}
	return zerolog.New(out).
		Level(cfg.Level).
		With().
		Timestamp().
		Str("component", "options").
		Logger()
}

// ParseLevel maps trace, debug, info, warn and error to zerolog levels,
// falling back to info.
func ParseLevel(value string) zerolog.Level {
	level, err := zerolog.ParseLevel(value)
	if err != nil || value == "" {
		return zerolog.InfoLevel
	}
	return level
}

// Adapter implements opts.Logger on top of a zerolog logger.
type Adapter struct {
	logger zerolog.Logger
}

var _ opts.Logger = Adapter{}

// NewAdapter wraps logger.
func NewAdapter(logger zerolog.Logger) Adapter {
	return Adapter{logger: logger}
}

// Option attaches logger to an options store.
func Option(logger zerolog.Logger) opts.Option {
	return opts.WithLogger(NewAdapter(logger))
}

// Log implements opts.Logger.
func (a Adapter) Log(event opts.LogEvent) {
	entry := a.logger.WithLevel(level(event.Level)).Str("op", event.Op)
	if event.Name != "" {
		entry = entry.Str("option", event.Name)
	}
	if event.Duration > 0 {
		entry = entry.Dur("duration", event.Duration)
	}
	if event.Err != nil {
		entry = entry.Err(event.Err)
	}
	if len(event.Fields) > 0 {
		entry = entry.Fields(event.Fields)
	}
	message := event.Message
	if message == "" {
		message = event.Op
	}
	entry.Msg(message)
}

func level(l opts.LogLevel) zerolog.Level {
	switch l {
	case opts.LevelDebug:
		return zerolog.DebugLevel
	case opts.LevelInfo:
		return zerolog.InfoLevel
	case opts.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
