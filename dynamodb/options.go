package dynamodb

import (
	"errors"
	"time"
)

// Option is a functional option for configuring a [Client].
type Option func(*Options)

// Options holds the configuration for a [Client]. Use [Option] functions
// (such as [WithConsistentReads] or [WithScanPageSize]) to customise the
// defaults.
type Options struct {
	consistentReads      bool
	scanPageSize         int32
	maxRetryAttempts     int
	maxRetryBackoffDelay time.Duration
	dynamoDBAPI          API
}

func newOptions() *Options {
	return &Options{
		maxRetryAttempts:     3,
		maxRetryBackoffDelay: 20 * time.Second,
	}
}

func (o *Options) validate() error {
	if o.scanPageSize < 0 {
		return errors.New("scan page size must be zero (unlimited) or greater")
	}

	if o.maxRetryAttempts < 1 || o.maxRetryAttempts > 10 {
		return errors.New("max DynamoDB API attempts must be between 1 and 10")
	}

	if o.maxRetryBackoffDelay < time.Second || o.maxRetryBackoffDelay > 30*time.Second {
		return errors.New("max DynamoDB API retry backoff delay must be between 1 and 30 seconds")
	}

	return nil
}

// WithConsistentReads makes GetItem and Scan use strongly consistent reads.
// Defaults to eventually consistent reads.
func WithConsistentReads(enabled bool) Option {
	return func(o *Options) {
		o.consistentReads = enabled
	}
}

// WithScanPageSize sets the maximum number of items evaluated per Scan page
// when listing items. Zero, the default, lets DynamoDB use its 1 MB page
// limit.
func WithScanPageSize(n int32) Option {
	return func(o *Options) {
		o.scanPageSize = n
	}
}

// WithMaxRetryAttempts sets the maximum number of attempts, including the
// first, for each DynamoDB API call. Must be between 1 and 10. Default: 3.
// Ignored when a custom API is supplied with [WithAPI].
func WithMaxRetryAttempts(n int) Option {
	return func(o *Options) {
		o.maxRetryAttempts = n
	}
}

// WithMaxRetryBackoffDelay sets the maximum backoff delay between retry
// attempts. Must be between 1 and 30 seconds. Default: 20 seconds.
// Ignored when a custom API is supplied with [WithAPI].
func WithMaxRetryBackoffDelay(d time.Duration) Option {
	return func(o *Options) {
		o.maxRetryBackoffDelay = d
	}
}

// WithAPI sets a custom [API] implementation. This is useful when a custom
// DynamoDB configuration is required, or for injecting mocks in tests.
func WithAPI(api API) Option {
	return func(o *Options) {
		o.dynamoDBAPI = api
	}
}
