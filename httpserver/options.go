package httpserver

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a [Server].
type Option func(*Options)

// Options holds the configuration for a [Server].
type Options struct {
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	bodyLimit    string
	logger       zerolog.Logger
}

func newOptions() *Options {
	return &Options{
		readTimeout:  10 * time.Second,
		writeTimeout: 10 * time.Second,
		idleTimeout:  60 * time.Second,
		bodyLimit:    "1M",
		logger:       zerolog.Nop(),
	}
}

func (o *Options) validate() error {
	if o.readTimeout <= 0 {
		return errors.New("read timeout must be greater than zero")
	}

	if o.writeTimeout <= 0 {
		return errors.New("write timeout must be greater than zero")
	}

	if o.idleTimeout <= 0 {
		return errors.New("idle timeout must be greater than zero")
	}

	if o.bodyLimit == "" {
		return errors.New("body limit cannot be empty")
	}

	return nil
}

// WithReadTimeout sets the maximum duration for reading a request. Defaults
// to 10 seconds.
func WithReadTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.readTimeout = d
	}
}

// WithWriteTimeout sets the maximum duration before timing out writes of the
// response. Defaults to 10 seconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.writeTimeout = d
	}
}

// WithIdleTimeout sets how long keep-alive connections are kept open between
// requests. Defaults to 60 seconds.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.idleTimeout = d
	}
}

// WithBodyLimit sets the maximum request body size, in the format accepted
// by echo's BodyLimit middleware (for example "512K" or "2M"). Defaults to
// "1M".
func WithBodyLimit(limit string) Option {
	return func(o *Options) {
		o.bodyLimit = limit
	}
}

// WithLogger sets the logger used for request and error logging. Defaults to
// a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}
