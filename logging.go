package opts

import "time"

// LogLevel is the severity of a LogEvent.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// LogEvent describes one store operation worth recording.
type LogEvent struct {
	Level    LogLevel
	Op       string // set, flush, profile.load, evaluate, ...
	Name     string // option name when the op concerns one option
	Message  string
	Duration time.Duration
	Err      error
	Fields   map[string]any
}

// Logger records store events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to the store. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
