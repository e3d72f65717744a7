package pubsub

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

type Option func(*Options)

type Options struct {
	ordering                bool
	publisherDelayThreshold time.Duration
	publisherCountThreshold int
	publisherByteThreshold  int
	logger                  zerolog.Logger
	pubsubClient            pubsubClient
}

func newOptions() *Options {
	return &Options{
		ordering:                true,
		publisherDelayThreshold: 10 * time.Millisecond,
		publisherCountThreshold: 100,
		publisherByteThreshold:  1e6, // 1 MB
		logger:                  zerolog.Nop(),
	}
}

func (o *Options) validate() error {
	if o.publisherDelayThreshold < 0 {
		return errors.New("publisher delay threshold must be non-negative")
	}

	if o.publisherCountThreshold <= 0 {
		return errors.New("publisher count threshold must be greater than zero")
	}

	if o.publisherByteThreshold <= 0 {
		return errors.New("publisher byte threshold must be greater than zero")
	}

	return nil
}

// WithOrdering controls whether events are published with the item ID as
// ordering key. Enabled by default. The subscription must have message
// ordering enabled for the ordering to be observed by consumers.
func WithOrdering(enabled bool) Option {
	return func(o *Options) {
		o.ordering = enabled
	}
}

func WithPublisherDelayThreshold(d time.Duration) Option {
	return func(o *Options) {
		o.publisherDelayThreshold = d
	}
}

func WithPublisherCountThreshold(n int) Option {
	return func(o *Options) {
		o.publisherCountThreshold = n
	}
}

func WithPublisherByteThreshold(n int) Option {
	return func(o *Options) {
		o.publisherByteThreshold = n
	}
}

// WithLogger sets the logger used for publish diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

// WithPubSubClient sets a custom pubsubClient implementation for testing.
func WithPubSubClient(client pubsubClient) Option {
	return func(o *Options) {
		o.pubsubClient = client
	}
}
