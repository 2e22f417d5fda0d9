package opts

import "time"

// Timer is a pending single-shot callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms single-shot callbacks; the store uses it for the debounce
// timer so hosts can route it through their own main loop.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, fn func()) Timer

func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) Timer {
	return f(d, fn)
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(cfg *storeConfig) {
		if s != nil {
			cfg.scheduler = s
		}
	}
}
