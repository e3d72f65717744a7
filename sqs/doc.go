// Package sqs publishes to-do item change events to an AWS SQS queue.
//
// # Publisher
//
// [Publisher] implements [github.com/slackmgr/todo/todo.Notifier]. Each event
// is sent as a JSON message body with the event type in the "event_type"
// string message attribute. Both FIFO and standard queues are supported; the
// queue type is detected from the URL suffix.
//
// For FIFO queues the message group ID is the item ID, so consumers see the
// events of one item in order. The deduplication ID is a SHA-256 hash of the
// event type, item ID and nanosecond timestamp, so retried sends inside the
// 5-minute deduplication window are discarded by SQS.
//
// Create a publisher with [New] and initialise it with [Publisher.Init]:
//
//	publisher, err := sqs.New(&awsCfg, queueURL,
//	    sqs.WithSqsAPIMaxRetryAttempts(3),
//	    sqs.WithLogger(logger),
//	).Init(ctx)
//
// # Configuration
//
// [Publisher] accepts functional options that are passed to [New] and take
// effect when [Publisher.Init] is called. See the With* functions for
// available settings and their defaults.
package sqs
