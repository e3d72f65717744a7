package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
	"github.com/slackmgr/todo/todo"
)

// Message attribute keys set on every published event.
const (
	EventTypeAttribute = "event_type"
	ItemIDAttribute    = "item_id"
)

// Publisher publishes item change events to a Google Cloud Pub/Sub topic. It
// implements [todo.Notifier].
type Publisher struct {
	gcpClient   *pubsub.Client
	client      pubsubClient
	publisher   pubsubPublisher
	topic       string
	opts        *Options
	logger      zerolog.Logger
	initialized atomic.Bool
}

var _ todo.Notifier = (*Publisher)(nil)

func New(c *pubsub.Client, topic string, opts ...Option) (*Publisher, error) {
	if c == nil {
		return nil, errors.New("pub/sub client cannot be nil")
	}

	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	logger := options.logger.With().
		Str("notifier", "pubsub").
		Str("topic", topic).
		Logger()

	return &Publisher{
		gcpClient: c,
		topic:     topic,
		opts:      options,
		logger:    logger,
	}, nil
}

func (p *Publisher) Init() (*Publisher, error) {
	if p.initialized.Load() {
		return p, nil
	}

	if p.topic == "" {
		return nil, errors.New("pub/sub topic cannot be empty")
	}

	if err := p.opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid pub/sub publisher options: %w", err)
	}

	// Use injected client for testing, otherwise wrap the real GCP client.
	if p.opts.pubsubClient != nil {
		p.client = p.opts.pubsubClient
	} else {
		p.client = gcpClient{client: p.gcpClient}
	}

	p.publisher = p.client.Publisher(p.topic)

	p.publisher.SetEnableMessageOrdering(p.opts.ordering)
	p.publisher.SetDelayThreshold(p.opts.publisherDelayThreshold)
	p.publisher.SetCountThreshold(p.opts.publisherCountThreshold)
	p.publisher.SetByteThreshold(p.opts.publisherByteThreshold)

	p.initialized.Store(true)

	return p, nil
}

func (p *Publisher) Name() string {
	return p.topic
}

// Close stops the publisher, flushing any pending messages.
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Stop()
	}
}

// Notify publishes the event as JSON and waits for the server to acknowledge
// it. With ordering enabled, events for the same item share an ordering key,
// and the key is resumed after a failure so the next event can be published.
func (p *Publisher) Notify(ctx context.Context, event todo.Event) error {
	if !p.initialized.Load() {
		return errors.New("pub/sub publisher not initialized")
	}

	if event.ItemID == "" {
		return errors.New("event item ID cannot be empty")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal item event: %w", err)
	}

	msg := &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			EventTypeAttribute: string(event.Type),
			ItemIDAttribute:    event.ItemID,
		},
	}

	if p.opts.ordering {
		msg.OrderingKey = event.ItemID
	}

	serverID, err := p.publisher.Publish(ctx, msg).Get(ctx)
	if err != nil {
		// A failed publish pauses its ordering key. Later events for the
		// item would be rejected until it is resumed.
		if msg.OrderingKey != "" {
			p.publisher.ResumePublish(msg.OrderingKey)
		}

		return fmt.Errorf("failed to publish message to pub/sub topic %s for item %s: %w", p.topic, event.ItemID, err)
	}

	p.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("item_id", event.ItemID).
		Str("message_id", serverID).
		Msg("Item event published to pub/sub topic")

	return nil
}
