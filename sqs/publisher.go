package sqs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
	"github.com/slackmgr/todo/todo"
)

// EventTypeAttribute is the SQS message attribute carrying the event type.
const EventTypeAttribute = "event_type"

// Publisher sends item change events to an SQS queue. It implements
// [todo.Notifier] and supports both FIFO and standard queues.
//
// For FIFO queues the publisher sets the message group ID to the item ID, so
// events for one item are delivered in order, and derives a deduplication ID
// from a SHA-256 hash of the event fields.
//
// Create a Publisher with [New] and call [Publisher.Init] once before
// publishing. Init is not thread-safe; Notify is safe for concurrent use
// after Init returns.
type Publisher struct {
	client      sqsClient
	queueURL    string
	fifo        bool
	awsCfg      *aws.Config
	opts        *Options
	logger      zerolog.Logger
	initialized bool
}

var _ todo.Notifier = (*Publisher)(nil)

// New creates a Publisher for the SQS queue at queueURL. The queue type is
// detected from the URL suffix: a URL ending with ".fifo" is a FIFO queue.
//
// New does not connect to AWS. Call [Publisher.Init] before publishing.
func New(awsCfg *aws.Config, queueURL string, opts ...Option) *Publisher {
	options := newOptions()

	for _, o := range opts {
		o(options)
	}

	logger := options.logger.With().
		Str("notifier", "sqs").
		Str("queue_url", queueURL).
		Logger()

	return &Publisher{
		awsCfg:   awsCfg,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
		opts:     options,
		logger:   logger,
	}
}

// Init validates options, constructs the SQS client and checks that the
// queue exists. It returns the receiver so that initialization can be chained
// with [New]:
//
//	publisher, err := sqs.New(&awsCfg, queueURL).Init(ctx)
//
// Init is idempotent; subsequent calls on an already-initialized Publisher
// are no-ops.
func (p *Publisher) Init(ctx context.Context) (*Publisher, error) {
	if p.initialized {
		return p, nil
	}

	if p.queueURL == "" {
		return nil, errors.New("SQS queue URL cannot be empty")
	}

	if err := p.opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid SQS options: %w", err)
	}

	// Use injected client if provided (for testing), otherwise create real client
	if p.opts.sqsClient != nil {
		p.client = p.opts.sqsClient
	} else {
		if p.awsCfg == nil {
			return nil, errors.New("AWS config cannot be nil")
		}

		p.client = sqs.NewFromConfig(*p.awsCfg, func(o *sqs.Options) {
			o.Retryer = retry.AddWithMaxBackoffDelay(o.Retryer, p.opts.sqsAPIMaxRetryBackoffDelay)
			o.Retryer = retry.AddWithMaxAttempts(o.Retryer, p.opts.sqsAPIMaxRetryAttempts)
		})
	}

	input := &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(p.queueURL),
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	}

	if _, err := p.client.GetQueueAttributes(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to get attributes of SQS queue %s: %w", p.queueURL, err)
	}

	p.initialized = true

	return p, nil
}

// QueueURL returns the SQS queue URL supplied to [New].
func (p *Publisher) QueueURL() string {
	return p.queueURL
}

// Notify marshals the event as JSON and sends it to the queue, with the
// event type as a string message attribute.
func (p *Publisher) Notify(ctx context.Context, event todo.Event) error {
	if !p.initialized {
		return errors.New("SQS publisher not initialized")
	}

	if event.ItemID == "" {
		return errors.New("event item ID cannot be empty")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal item event: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    &p.queueURL,
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			EventTypeAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(event.Type)),
			},
		},
	}

	if p.fifo {
		input.MessageGroupId = aws.String(event.ItemID)
		input.MessageDeduplicationId = aws.String(hash(string(event.Type), event.ItemID, event.Timestamp.UTC().Format(time.RFC3339Nano)))
	}

	output, err := p.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send SQS message: %w", err)
	}

	p.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("item_id", event.ItemID).
		Str("message_id", aws.ToString(output.MessageId)).
		Msg("Item event sent to SQS queue")

	return nil
}

func hash(input ...string) string {
	h := sha256.New()

	for _, s := range input {
		h.Write([]byte(s))
		h.Write([]byte{0}) // null byte delimiter to prevent hash collisions
	}

	bs := h.Sum(nil)

	return base64.URLEncoding.EncodeToString(bs)
}
