package todo

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a [Dispatcher].
type Option func(*Options)

// Options holds the configuration for a [Dispatcher].
type Options struct {
	newID    func() string
	clock    func() time.Time
	notifier Notifier
	logger   zerolog.Logger
}

func newOptions() *Options {
	return &Options{
		newID:  uuid.NewString,
		clock:  time.Now,
		logger: zerolog.Nop(),
	}
}

// WithIDGenerator sets the function used to generate ids for new items.
// Defaults to random (version 4) UUIDs.
func WithIDGenerator(newID func() string) Option {
	return func(o *Options) {
		o.newID = newID
	}
}

// WithClock sets the clock used to timestamp change events. Defaults to
// [time.Now].
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.clock = clock
	}
}

// WithNotifier sets the notifier that receives item change events. Use
// [Notifiers] to deliver to more than one.
func WithNotifier(notifier Notifier) Option {
	return func(o *Options) {
		o.notifier = notifier
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}
