package pubsub

import (
	"context"
	"time"

	"cloud.google.com/go/pubsub/v2"
)

// gcpClient hands out topic publishers backed by the Cloud Pub/Sub SDK.
type gcpClient struct {
	client *pubsub.Client
}

//nolint:ireturn // Publisher returns the pubsubPublisher seam
func (g gcpClient) Publisher(topic string) pubsubPublisher {
	return gcpPublisher{Publisher: g.client.Publisher(topic)}
}

// gcpPublisher exposes a *pubsub.Publisher through pubsubPublisher. Stop and
// ResumePublish come from the embedded publisher.
type gcpPublisher struct {
	*pubsub.Publisher
}

//nolint:ireturn // Publish returns the pubsubPublishResult seam
func (g gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) pubsubPublishResult {
	return g.Publisher.Publish(ctx, msg)
}

func (g gcpPublisher) SetEnableMessageOrdering(enabled bool) {
	g.EnableMessageOrdering = enabled
}

func (g gcpPublisher) SetDelayThreshold(d time.Duration) {
	g.PublishSettings.DelayThreshold = d
}

func (g gcpPublisher) SetCountThreshold(n int) {
	g.PublishSettings.CountThreshold = n
}

func (g gcpPublisher) SetByteThreshold(n int) {
	g.PublishSettings.ByteThreshold = n
}
