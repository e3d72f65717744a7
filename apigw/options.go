package apigw

import "github.com/rs/zerolog"

// Option is a functional option for configuring a [Handler].
type Option func(*Options)

// Options holds the configuration for a [Handler].
type Options struct {
	logger zerolog.Logger
}

func newOptions() *Options {
	return &Options{
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}
