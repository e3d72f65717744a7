// Package pubsub publishes to-do item change events to a Google Cloud Pub/Sub
// topic.
//
// [Publisher] implements [github.com/slackmgr/todo/todo.Notifier]. Every event
// is published as JSON with two message attributes: "event_type" (for example
// "item.updated") and "item_id". Subscribers can filter on either attribute
// without decoding the payload.
//
// Message ordering is enabled by default, with the item ID as ordering key,
// so a subscription with ordering enabled receives the events of one item in
// the order they were published. Disable it with [WithOrdering] for topics
// whose subscribers do not need ordering.
//
// # Usage
//
//	client, err := pubsub.NewClient(ctx, projectID)
//	if err != nil {
//	    return err
//	}
//
//	publisher, err := todopubsub.New(client, "todo-events", todopubsub.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	if _, err := publisher.Init(); err != nil {
//	    return err
//	}
//	defer publisher.Close()
//
// Notify blocks until the server acknowledges the message or ctx is done.
// Close flushes pending messages and must be called before the underlying
// Pub/Sub client is closed.
package pubsub
